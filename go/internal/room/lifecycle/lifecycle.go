package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/ratrace/go/clients/gameapi"
	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/channel"
	"github.com/mcdev12/ratrace/go/internal/room/events"
	"github.com/mcdev12/ratrace/go/internal/room/state"
)

// State identifies where the connection lifecycle currently sits.
type State string

const (
	StateIdle         State = "IDLE"
	StateConnecting   State = "CONNECTING"
	StateJoined       State = "JOINED"
	StateDisconnected State = "DISCONNECTED"
	StateReconnecting State = "RECONNECTING"
	StateReconnected  State = "RECONNECTED"
	StateExpired      State = "EXPIRED"
)

// ErrNoIdentity is returned by AttemptReconnect when nothing was persisted.
var ErrNoIdentity = errors.New("no persisted identity to reconnect with")

// EventChannel is what the manager drives on the transport side.
type EventChannel interface {
	Connect(ctx context.Context) error
	JoinRoom(roomCode, playerID string) error
	LeaveRoom() error
	Subscribe(kind events.Type, h channel.Handler) uint64
	UnsubscribeAll(kind events.Type)
	OnDisconnect(fn func(err error))
	OnReconnect(fn func())
	Close() error
}

// GameAPI is what the manager consumes from the request API.
type GameAPI interface {
	FetchSession(ctx context.Context, roomCode string) (*models.GameSession, error)
	ReconnectPlayer(ctx context.Context, roomCode, playerID string) (*gameapi.ReconnectResponse, error)
}

// Countdown is the expiry countdown as explicit state: active plus the
// instant it runs out. Remaining time is derived from the clock, so tests
// advance a fake clock instead of waiting on real timers. Reaching zero
// does not evict; only the authoritative expiry event does.
type Countdown struct {
	Active    bool
	ExpiresAt time.Time
}

// Manager orchestrates connect → register-handlers → join ordering, detects
// disconnects, drives manual reconnection with catch-up, and owns the
// session-expiry countdown and eviction flow.
type Manager struct {
	ch       EventChannel
	api      GameAPI
	stores   *state.Stores
	ids      IdentityStore
	clock    clockwork.Clock
	dispatch func(events.Envelope)

	mu        sync.Mutex
	state     State
	countdown Countdown
	subbed    bool
}

// NewManager creates a lifecycle manager. dispatch is the function every
// subscribed event kind is routed through (the engine's entry point).
func NewManager(ch EventChannel, api GameAPI, stores *state.Stores, ids IdentityStore, clock clockwork.Clock, dispatch func(events.Envelope)) *Manager {
	m := &Manager{
		ch:       ch,
		api:      api,
		stores:   stores,
		ids:      ids,
		clock:    clock,
		dispatch: dispatch,
		state:    StateIdle,
	}
	ch.OnDisconnect(m.handleTransportDown)
	ch.OnReconnect(m.handleTransportUp)
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Countdown returns the expiry countdown state.
func (m *Manager) Countdown() Countdown {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countdown
}

// CountdownRemaining derives the seconds left on the countdown banner.
func (m *Manager) CountdownRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.countdown.Active {
		return 0
	}
	remaining := m.countdown.ExpiresAt.Sub(m.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ValidateRoom checks a room before entering it.
func (m *Manager) ValidateRoom(ctx context.Context, roomCode string) (*models.GameSession, error) {
	session, err := m.api.FetchSession(ctx, roomCode)
	if err != nil {
		return nil, fmt.Errorf("validate room %s: %w", roomCode, err)
	}
	return session, nil
}

// Enter brings the client into a room: handlers are registered on every
// event kind before the connect resolves and before the join is issued, so
// no event emitted right after join can be missed.
func (m *Manager) Enter(ctx context.Context, roomCode, playerID string) error {
	m.setState(StateConnecting)

	if err := m.attach(ctx, roomCode, playerID); err != nil {
		m.setState(StateIdle)
		return err
	}

	m.setState(StateJoined)
	log.Info().Str("room_code", roomCode).Str("player_id", playerID).Msg("entered room")
	return nil
}

// attach is the shared subscribe → connect → join sequence behind Enter and
// AttemptReconnect. On failure it unwinds the subscriptions; state is the
// caller's to set.
func (m *Manager) attach(ctx context.Context, roomCode, playerID string) error {
	m.mu.Lock()
	if !m.subbed {
		for _, kind := range events.Types() {
			m.ch.Subscribe(kind, m.dispatch)
		}
		m.subbed = true
	}
	m.mu.Unlock()

	if err := m.ch.Connect(ctx); err != nil {
		m.teardownSubscriptions()
		m.stores.Notifications.Enqueue(models.Notification{
			Severity: models.SeverityError,
			Message:  "Could not connect to the game server",
		})
		return fmt.Errorf("connect: %w", err)
	}
	if err := m.ch.JoinRoom(roomCode, playerID); err != nil {
		m.teardownSubscriptions()
		return fmt.Errorf("join room %s: %w", roomCode, err)
	}
	return nil
}

// Leave tears the room session down: unsubscribe all handlers first, then
// leave the room, then cancel pending timers, in that order, so no late
// callback fires against a torn-down store.
func (m *Manager) Leave() {
	m.teardownSubscriptions()
	if err := m.ch.LeaveRoom(); err != nil {
		log.Warn().Err(err).Msg("leave room failed")
	}
	m.stores.Notifications.Clear()

	m.mu.Lock()
	m.countdown = Countdown{}
	m.state = StateIdle
	m.mu.Unlock()
}

// AttemptReconnect resumes a session using persisted identity: the server
// acknowledges the player, the session store is re-seeded, the push channel
// re-joins the room, and only then do the missed events replay through the
// engine. A session-expired answer clears identity and terminates in
// StateExpired; any other failure drops back to StateDisconnected and retry
// is left to the caller.
func (m *Manager) AttemptReconnect(ctx context.Context) error {
	id, err := m.ids.Load()
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	if !id.Valid() {
		return ErrNoIdentity
	}

	m.setState(StateReconnecting)

	resp, err := m.api.ReconnectPlayer(ctx, id.RoomCode, id.PlayerID)
	if errors.Is(err, gameapi.ErrSessionExpired) {
		if clearErr := m.ids.Clear(); clearErr != nil {
			log.Error().Err(clearErr).Msg("failed to clear identity after expiry")
		}
		m.stores.Session.SetStatus(models.SessionStatusExpired)
		m.setState(StateExpired)
		m.stores.Notifications.Enqueue(models.Notification{
			Severity: models.SeverityError,
			Message:  "Your session has expired",
		})
		return err
	}
	if err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("reconnect player: %w", err)
	}

	// A fresh process has empty stores; the session must be re-seeded and
	// the push channel re-joined before the client can resume.
	session, err := m.api.FetchSession(ctx, id.RoomCode)
	if err != nil {
		m.setState(StateDisconnected)
		return fmt.Errorf("fetch session %s: %w", id.RoomCode, err)
	}
	session.CurrentPlayerID = id.PlayerID
	m.stores.Session.Set(*session)

	if err := m.attach(ctx, id.RoomCode, id.PlayerID); err != nil {
		m.setState(StateDisconnected)
		return err
	}

	for _, env := range resp.MissedEvents {
		m.dispatch(env)
	}
	m.setState(StateReconnected)
	log.Info().
		Str("room_code", id.RoomCode).
		Int("missed_events", len(resp.MissedEvents)).
		Msg("reconnected with catch-up")
	return nil
}

// StartCountdown seeds the expiry countdown from a warning event.
func (m *Manager) StartCountdown(minutes int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.countdown = Countdown{
		Active:    true,
		ExpiresAt: m.clock.Now().Add(time.Duration(minutes) * time.Minute),
	}
	log.Info().Int("minutes_remaining", minutes).Msg("session expiry countdown started")
}

// HandleExpired reacts to the authoritative expiry event: the lifecycle
// terminates, the countdown clears, and the blocking modal takes over.
func (m *Manager) HandleExpired() {
	m.mu.Lock()
	m.countdown = Countdown{}
	m.state = StateExpired
	m.mu.Unlock()
	log.Info().Msg("session expired by server")
}

// ConfirmExpiry is the modal's single action: clear persisted identity and
// reset every store so the client returns to the entry point.
func (m *Manager) ConfirmExpiry() error {
	if err := m.ids.Clear(); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	m.teardownSubscriptions()
	m.stores.Reset()

	m.mu.Lock()
	m.state = StateIdle
	m.mu.Unlock()
	return nil
}

func (m *Manager) handleTransportDown(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateJoined && m.state != StateReconnected {
		return
	}
	// Optimistic: assume transient, keep every store intact.
	m.state = StateDisconnected
	log.Warn().Err(err).Msg("transport disconnected")
}

func (m *Manager) handleTransportUp() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDisconnected {
		return
	}
	m.state = StateJoined
	log.Info().Msg("transport recovered, room re-joined")
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

func (m *Manager) teardownSubscriptions() {
	m.mu.Lock()
	subbed := m.subbed
	m.subbed = false
	m.mu.Unlock()

	if !subbed {
		return
	}
	for _, kind := range events.Types() {
		m.ch.UnsubscribeAll(kind)
	}
}
