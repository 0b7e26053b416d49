package engine

import (
	"fmt"

	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/events"
	"github.com/mcdev12/ratrace/go/internal/room/state"
	"github.com/rs/zerolog/log"
)

// Engine applies decoded room events to the stores and returns the follow-up
// effects. Every handler is safe to apply twice: the transport may redeliver
// on reconnect, so duplicate events must leave the stores unchanged.
type Engine struct {
	stores *state.Stores
}

// New creates a synchronization engine over the given stores.
func New(stores *state.Stores) *Engine {
	return &Engine{stores: stores}
}

// Apply routes one event to its handler. Store-mutation failures never
// propagate: a patch against an unknown id is logged and skipped rather
// than corrupting the store.
func (e *Engine) Apply(ev events.Event) []Effect {
	switch p := ev.(type) {
	case events.PlayerJoined:
		return e.applyPlayerJoined(p)
	case events.GameStarted:
		return e.applyGameStarted(p)
	case events.PaymentRequested:
		return e.applyPaymentRequested(p)
	case events.AuditRequested:
		return e.applyAuditRequested(p)
	case events.TransactionFinalized:
		return e.applyTransactionFinalized(p)
	case events.TransactionRejected:
		return e.applyTransactionRejected(p)
	case events.PaydayCollected:
		return e.applyPaydayCollected(p)
	case events.PlayerUpdated:
		return e.applyPlayerUpdated(p)
	case events.PlayerDisconnected:
		return e.applyPlayerDisconnected(p)
	case events.PlayerReconnected:
		return e.applyPlayerReconnected(p)
	case events.PlayerRemoved:
		return e.applyPlayerRemoved(p)
	case events.FastTrackAchieved:
		return e.applyFastTrackAchieved(p)
	case events.SessionExpiryWarning:
		return []Effect{StartCountdown{Minutes: p.MinutesRemaining}}
	case events.SessionExpired:
		e.stores.Session.SetStatus(models.SessionStatusExpired)
		return []Effect{ExpireSession{}}
	default:
		log.Warn().Str("event_type", string(ev.Kind())).Msg("no handler for event, skipping")
		return nil
	}
}

func (e *Engine) applyPlayerJoined(p events.PlayerJoined) []Effect {
	if !e.stores.Roster.Add(p.PlayerID, p.PlayerName) {
		// Redelivered join for a known id: roster and count stay put.
		return nil
	}
	e.stores.Session.AddPlayers(1)
	return []Effect{Notify{models.Notification{
		Severity: models.SeverityInfo,
		Message:  fmt.Sprintf("%s joined the room", p.PlayerName),
	}}}
}

func (e *Engine) applyGameStarted(events.GameStarted) []Effect {
	if e.stores.Session.Status() == models.SessionStatusActive {
		return nil
	}
	e.stores.Session.SetStatus(models.SessionStatusActive)
	return []Effect{Notify{models.Notification{
		Severity: models.SeveritySuccess,
		Message:  "The game has started",
	}}}
}

func (e *Engine) applyPaymentRequested(p events.PaymentRequested) []Effect {
	return []Effect{Notify{models.Notification{
		Severity:     models.SeverityWarning,
		Message:      fmt.Sprintf("%s is collecting $%.2f", p.CollectorName, p.Amount),
		ActionLabel:  "Review",
		ActionTarget: "/audit",
	}}}
}

func (e *Engine) applyAuditRequested(p events.AuditRequested) []Effect {
	added := e.stores.Audit.AddRequest(models.PendingAudit{
		TransactionID: p.TransactionID,
		PlayerID:      p.PlayerID,
		PlayerName:    p.PlayerName,
		Type:          p.Type,
		SubType:       p.SubType,
		Details:       p.Impact,
	})
	if !added {
		return nil
	}
	return []Effect{Notify{models.Notification{
		Severity:     models.SeverityInfo,
		Message:      fmt.Sprintf("%s submitted a %s for your review", p.PlayerName, p.Type),
		ActionLabel:  "Review",
		ActionTarget: "/audit",
	}}}
}

func (e *Engine) applyTransactionFinalized(p events.TransactionFinalized) []Effect {
	// The same event reaches both the submitter and the auditor; the inbox
	// removal applies everywhere, the local-submission handling only where
	// the pending id matches.
	e.stores.Audit.RemoveRequest(p.TransactionID)

	effects := []Effect{
		Invalidate{Scope: ScopeRoster},
		Invalidate{Scope: ScopePlayer},
	}

	if !p.Approved {
		return effects
	}

	if e.stores.Audit.MarkApproved(p.TransactionID) {
		if p.PlayerData != nil {
			if !e.stores.Sheet.Merge(*p.PlayerData) {
				log.Warn().Str("transaction_id", p.TransactionID).Msg("sheet merge skipped, no sheet loaded")
			}
		}
		effects = append(effects, Notify{models.Notification{
			Severity: models.SeveritySuccess,
			Message:  "Your transaction was approved",
		}})
	}
	return effects
}

func (e *Engine) applyTransactionRejected(p events.TransactionRejected) []Effect {
	e.stores.Audit.RemoveRequest(p.TransactionID)

	if !e.stores.Audit.MarkRejected(p.TransactionID, p.Note) {
		return nil
	}
	return []Effect{Notify{models.Notification{
		Severity: models.SeverityError,
		Message:  fmt.Sprintf("Your transaction was rejected: %s", p.Note),
	}}}
}

func (e *Engine) applyPaydayCollected(p events.PaydayCollected) []Effect {
	if !e.stores.Roster.SetCash(p.PlayerID, p.Amount) {
		log.Warn().Str("player_id", p.PlayerID).Msg("payday for unknown roster entry, skipping")
		return nil
	}
	return []Effect{Invalidate{Scope: ScopeRoster}}
}

func (e *Engine) applyPlayerUpdated(p events.PlayerUpdated) []Effect {
	if !e.stores.Roster.Patch(p.PlayerID, p.Data) {
		log.Warn().Str("player_id", p.PlayerID).Msg("update for unknown roster entry, skipping")
	}
	return nil
}

func (e *Engine) applyPlayerDisconnected(p events.PlayerDisconnected) []Effect {
	entry, ok := e.stores.Roster.Get(p.PlayerID)
	if !ok || entry.ConnectionStatus == models.ConnectionStatusDisconnected {
		return nil
	}
	e.stores.Roster.SetConnection(p.PlayerID, models.ConnectionStatusDisconnected)
	return []Effect{Notify{models.Notification{
		Severity: models.SeverityWarning,
		Message:  fmt.Sprintf("%s disconnected", entry.Name),
	}}}
}

func (e *Engine) applyPlayerReconnected(p events.PlayerReconnected) []Effect {
	entry, ok := e.stores.Roster.Get(p.PlayerID)
	if !ok || entry.ConnectionStatus == models.ConnectionStatusConnected {
		return nil
	}
	e.stores.Roster.SetConnection(p.PlayerID, models.ConnectionStatusConnected)
	return []Effect{Notify{models.Notification{
		Severity: models.SeverityInfo,
		Message:  fmt.Sprintf("%s reconnected", entry.Name),
	}}}
}

func (e *Engine) applyPlayerRemoved(p events.PlayerRemoved) []Effect {
	entry, ok := e.stores.Roster.Get(p.PlayerID)
	if !ok {
		return nil
	}
	e.stores.Roster.Remove(p.PlayerID)
	e.stores.Session.AddPlayers(-1)

	msg := fmt.Sprintf("%s was removed from the room", entry.Name)
	if p.Reason != "" {
		msg = fmt.Sprintf("%s was removed from the room: %s", entry.Name, p.Reason)
	}
	return []Effect{Notify{models.Notification{
		Severity: models.SeverityWarning,
		Message:  msg,
	}}}
}

func (e *Engine) applyFastTrackAchieved(p events.FastTrackAchieved) []Effect {
	entry, ok := e.stores.Roster.Get(p.PlayerID)
	if ok && entry.IsOnFastTrack {
		return nil
	}
	if !e.stores.Roster.SetFastTrack(p.PlayerID) {
		log.Warn().Str("player_id", p.PlayerID).Msg("fast track for unknown roster entry, skipping")
		return nil
	}
	return []Effect{Notify{models.Notification{
		Severity: models.SeveritySuccess,
		Message:  fmt.Sprintf("%s reached the Fast Track!", p.PlayerName),
	}}}
}
