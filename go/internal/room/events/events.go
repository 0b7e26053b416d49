package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire frame every room event arrives in.
type Envelope struct {
	ID        string          `json:"eventId"`
	RoomCode  string          `json:"roomCode"`
	Type      Type            `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Type identifies one kind of room event.
type Type string

const (
	TypePlayerJoined        Type = "player:joined"
	TypeGameStarted         Type = "game:started"
	TypePaymentRequested    Type = "payment:requested"
	TypeAuditRequested      Type = "audit:requested"
	TypeTransactionFinal    Type = "transaction:finalized"
	TypeTransactionRejected Type = "transaction:rejected"
	TypePaydayCollected     Type = "payday:collected"
	TypePlayerUpdated       Type = "player:updated"
	TypePlayerDisconnected  Type = "player:disconnected"
	TypePlayerReconnected   Type = "player:reconnected"
	TypePlayerRemoved       Type = "player:removed"
	TypeFastTrackAchieved   Type = "fasttrack:achieved"
	TypeSessionExpiryWarn   Type = "session:expiry_warning"
	TypeSessionExpired      Type = "session:expired"
)

// Types lists every event kind the synchronization engine consumes. The
// channel subscribes to exactly this set before joining a room.
func Types() []Type {
	return []Type{
		TypePlayerJoined,
		TypeGameStarted,
		TypePaymentRequested,
		TypeAuditRequested,
		TypeTransactionFinal,
		TypeTransactionRejected,
		TypePaydayCollected,
		TypePlayerUpdated,
		TypePlayerDisconnected,
		TypePlayerReconnected,
		TypePlayerRemoved,
		TypeFastTrackAchieved,
		TypeSessionExpiryWarn,
		TypeSessionExpired,
	}
}

// Event is the closed set of decoded room events. Every payload type in this
// package implements it; the engine switches over the concrete types, so a
// new kind without a handler fails review rather than silently dropping.
type Event interface {
	Kind() Type
	roomEvent()
}

// Decode parses an envelope's payload into its typed event.
func Decode(env Envelope) (Event, error) {
	var (
		ev  Event
		err error
	)

	switch env.Type {
	case TypePlayerJoined:
		ev, err = unmarshal[PlayerJoined](env.Payload)
	case TypeGameStarted:
		ev, err = unmarshal[GameStarted](env.Payload)
	case TypePaymentRequested:
		ev, err = unmarshal[PaymentRequested](env.Payload)
	case TypeAuditRequested:
		ev, err = unmarshal[AuditRequested](env.Payload)
	case TypeTransactionFinal:
		ev, err = unmarshal[TransactionFinalized](env.Payload)
	case TypeTransactionRejected:
		ev, err = unmarshal[TransactionRejected](env.Payload)
	case TypePaydayCollected:
		ev, err = unmarshal[PaydayCollected](env.Payload)
	case TypePlayerUpdated:
		ev, err = unmarshal[PlayerUpdated](env.Payload)
	case TypePlayerDisconnected:
		ev, err = unmarshal[PlayerDisconnected](env.Payload)
	case TypePlayerReconnected:
		ev, err = unmarshal[PlayerReconnected](env.Payload)
	case TypePlayerRemoved:
		ev, err = unmarshal[PlayerRemoved](env.Payload)
	case TypeFastTrackAchieved:
		ev, err = unmarshal[FastTrackAchieved](env.Payload)
	case TypeSessionExpiryWarn:
		ev, err = unmarshal[SessionExpiryWarning](env.Payload)
	case TypeSessionExpired:
		ev, err = unmarshal[SessionExpired](env.Payload)
	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return ev, nil
}

func unmarshal[T any](data []byte) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(data, &payload)
	return payload, err
}
