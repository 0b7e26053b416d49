package room

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/ratrace/go/clients/gameapi"
	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/engine"
	"github.com/mcdev12/ratrace/go/internal/room/events"
	"github.com/mcdev12/ratrace/go/internal/room/lifecycle"
	"github.com/mcdev12/ratrace/go/internal/room/state"
)

// TransactionTypePayday is the transaction type a payday collection submits.
const TransactionTypePayday = "payday"

// ErrReassignmentRequired blocks audited actions while the removed auditor
// has no replacement yet.
var ErrReassignmentRequired = errors.New("assigned auditor was removed; reassign an auditor first")

// ReassignmentState tells the UI whether auditor reassignment is possible or
// required, derived from the assigned auditor's roster status.
type ReassignmentState string

const (
	// ReassignmentNone: the auditor is connected, nothing to do.
	ReassignmentNone ReassignmentState = "NONE"
	// ReassignmentAvailable: the auditor is disconnected; reviews pause and
	// the player may voluntarily pick a replacement.
	ReassignmentAvailable ReassignmentState = "AVAILABLE"
	// ReassignmentMandatory: the auditor was removed; audited actions stay
	// blocked until a replacement is chosen.
	ReassignmentMandatory ReassignmentState = "MANDATORY"
)

// API is the request surface the client consumes. The backend behind it is
// authoritative; the client only reflects its outcomes.
type API interface {
	lifecycle.GameAPI
	CreateGame(ctx context.Context, gameVersion, hostName string) (*gameapi.CreateGameResponse, error)
	JoinGame(ctx context.Context, roomCode, playerName string) (*gameapi.JoinGameResponse, error)
	FetchPlayer(ctx context.Context, roomCode, playerID string) (*models.PlayerSheet, error)
	FetchAllPlayers(ctx context.Context, roomCode string) ([]models.PlayerSummary, error)
	SubmitTransaction(ctx context.Context, roomCode string, req gameapi.SubmitTransactionRequest) (string, error)
	AuditTransaction(ctx context.Context, roomCode, transactionID string, req gameapi.AuditTransactionRequest) error
	ReassignAuditor(ctx context.Context, roomCode, playerID, newAuditorPlayerID string) error
}

// Client is the headless room client: it owns the stores, the
// synchronization engine, the effect runner, and the connection lifecycle,
// and exposes the action vocabulary the UI dispatches.
type Client struct {
	api    API
	ch     lifecycle.EventChannel
	ids    lifecycle.IdentityStore
	clock  clockwork.Clock
	stores *state.Stores
	engine *engine.Engine
	runner *engine.Runner
	lc     *lifecycle.Manager

	// submitMu serializes the single-flight check with the request that
	// follows it, so two concurrent submits cannot both pass the guard.
	submitMu sync.Mutex

	genMu         sync.Mutex
	seenRosterGen uint64
	seenPlayerGen uint64
}

// NewClient wires a room client. A nil clock uses the real one.
func NewClient(api API, ch lifecycle.EventChannel, ids lifecycle.IdentityStore, clock clockwork.Clock) *Client {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	c := &Client{
		api:   api,
		ch:    ch,
		ids:   ids,
		clock: clock,
	}
	c.stores = state.NewStores(clock)
	c.engine = engine.New(c.stores)
	c.lc = lifecycle.NewManager(ch, api, c.stores, ids, clock, c.HandleEnvelope)
	c.runner = engine.NewRunner(c.stores, engine.LifecycleHooks{
		OnCountdown: c.lc.StartCountdown,
		OnExpired:   c.lc.HandleExpired,
	})
	return c
}

// Stores exposes read access to every room store.
func (c *Client) Stores() *state.Stores {
	return c.stores
}

// Lifecycle exposes the connection lifecycle manager.
func (c *Client) Lifecycle() *lifecycle.Manager {
	return c.lc
}

// HandleEnvelope is the single entry point every subscribed event kind and
// every catch-up event routes through: decode, apply, run effects. Malformed
// payloads are logged and skipped; they never corrupt a store.
func (c *Client) HandleEnvelope(env events.Envelope) {
	ev, err := events.Decode(env)
	if err != nil {
		log.Error().
			Err(err).
			Str("event_id", env.ID).
			Str("event_type", string(env.Type)).
			Msg("dropping undecodable event")
		return
	}
	c.runner.Run(c.engine.Apply(ev))
}

// CreateGame opens a new room, persists the host identity, and seeds the
// session store.
func (c *Client) CreateGame(ctx context.Context, gameVersion, hostName string) (string, error) {
	resp, err := c.api.CreateGame(ctx, gameVersion, hostName)
	if err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}

	if err := c.ids.Save(lifecycle.Identity{
		RoomCode:   resp.RoomCode,
		PlayerID:   resp.HostPlayerID,
		PlayerName: hostName,
	}); err != nil {
		log.Error().Err(err).Msg("failed to persist identity")
	}
	c.stores.Session.Set(models.GameSession{
		RoomCode:        resp.RoomCode,
		Status:          models.SessionStatusWaiting,
		HostPlayerID:    resp.HostPlayerID,
		CurrentPlayerID: resp.HostPlayerID,
		PlayerCount:     1,
		GameVersion:     gameVersion,
	})
	return resp.RoomCode, nil
}

// JoinGame joins an existing room, persists identity, and seeds the session
// store from the server's summary.
func (c *Client) JoinGame(ctx context.Context, roomCode, playerName string) (string, error) {
	resp, err := c.api.JoinGame(ctx, roomCode, playerName)
	if err != nil {
		return "", fmt.Errorf("join game %s: %w", roomCode, err)
	}

	if err := c.ids.Save(lifecycle.Identity{
		RoomCode:   roomCode,
		PlayerID:   resp.PlayerID,
		PlayerName: playerName,
	}); err != nil {
		log.Error().Err(err).Msg("failed to persist identity")
	}
	session := resp.Session
	session.RoomCode = roomCode
	session.CurrentPlayerID = resp.PlayerID
	c.stores.Session.Set(session)
	return resp.PlayerID, nil
}

// EnterRoom connects the push channel, joins the room, and loads the initial
// roster and sheet snapshots.
func (c *Client) EnterRoom(ctx context.Context) error {
	session, ok := c.stores.Session.Get()
	if !ok {
		return errors.New("no session to enter; create or join a game first")
	}
	if err := c.lc.Enter(ctx, session.RoomCode, session.CurrentPlayerID); err != nil {
		return err
	}

	if err := c.RefreshRoster(ctx); err != nil {
		log.Warn().Err(err).Msg("initial roster fetch failed")
	}
	if err := c.RefreshSheet(ctx); err != nil {
		log.Warn().Err(err).Msg("initial sheet fetch failed")
	}
	return nil
}

// LeaveRoom tears down the room session but keeps persisted identity, so a
// reconnect attempt remains possible.
func (c *Client) LeaveRoom() {
	c.lc.Leave()
}

// ReturnHome is the voluntary exit: teardown plus identity clear.
func (c *Client) ReturnHome() {
	c.lc.Leave()
	if err := c.ids.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear identity")
	}
	c.stores.Reset()
}

// NewGame discards the current session entirely.
func (c *Client) NewGame() {
	c.ReturnHome()
}

// Close shuts the client down for good: the notification queue stops
// accepting entries and the transport closes.
func (c *Client) Close() error {
	c.stores.Notifications.Stop()
	return c.ch.Close()
}

// AttemptReconnect resumes with persisted identity and, on success, reloads
// the roster and sheet before handing the caller back to the dashboard.
func (c *Client) AttemptReconnect(ctx context.Context) error {
	if err := c.lc.AttemptReconnect(ctx); err != nil {
		return err
	}
	if err := c.RefreshRoster(ctx); err != nil {
		log.Warn().Err(err).Msg("post-reconnect roster fetch failed")
	}
	if err := c.RefreshSheet(ctx); err != nil {
		log.Warn().Err(err).Msg("post-reconnect sheet fetch failed")
	}
	return nil
}

// SubmitTransaction submits one financial action for audit. The single-flight
// guard rejects it client-side, without a request going out, while another
// submission is pending.
func (c *Client) SubmitTransaction(ctx context.Context, txType, subType string, details map[string]any) (string, error) {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	if c.stores.Audit.HasPending() {
		return "", gameapi.ErrPendingTransaction
	}
	if c.Reassignment() == ReassignmentMandatory {
		return "", ErrReassignmentRequired
	}
	session, ok := c.stores.Session.Get()
	if !ok {
		return "", errors.New("no active session")
	}

	txID, err := c.api.SubmitTransaction(ctx, session.RoomCode, gameapi.SubmitTransactionRequest{
		PlayerID: session.CurrentPlayerID,
		Type:     txType,
		SubType:  subType,
		Details:  details,
	})
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}

	c.stores.Audit.BeginPending(models.Transaction{
		ID:       txID,
		PlayerID: session.CurrentPlayerID,
		Type:     txType,
		SubType:  subType,
		Details:  details,
	})
	log.Info().Str("transaction_id", txID).Str("type", txType).Msg("transaction submitted for audit")
	return txID, nil
}

// CollectPayday submits the payday collection, which rides the same audit
// protocol and is blocked by the same single-flight guard. Receiving money
// from another player's market event is exempt; that arrives as a push
// event, not through this call.
func (c *Client) CollectPayday(ctx context.Context) (string, error) {
	return c.SubmitTransaction(ctx, TransactionTypePayday, "", nil)
}

// ApproveAudit approves one queued review. Resolving an id that already left
// the inbox is absorbed silently; two resolvers racing is expected.
func (c *Client) ApproveAudit(ctx context.Context, transactionID string) error {
	return c.resolveAudit(ctx, transactionID, gameapi.AuditActionApprove, "")
}

// RejectAudit rejects one queued review with a note for the submitter.
func (c *Client) RejectAudit(ctx context.Context, transactionID, note string) error {
	return c.resolveAudit(ctx, transactionID, gameapi.AuditActionReject, note)
}

func (c *Client) resolveAudit(ctx context.Context, transactionID string, action gameapi.AuditAction, note string) error {
	session, ok := c.stores.Session.Get()
	if !ok {
		return errors.New("no active session")
	}

	queued := false
	for _, a := range c.stores.Audit.Inbox() {
		if a.TransactionID == transactionID {
			queued = true
			break
		}
	}
	if !queued {
		return nil
	}

	err := c.api.AuditTransaction(ctx, session.RoomCode, transactionID, gameapi.AuditTransactionRequest{
		AuditorID: session.CurrentPlayerID,
		Action:    action,
		Note:      note,
	})
	if errors.Is(err, gameapi.ErrTransactionNotFound) {
		// The server resolved it first from another resolver. Same outcome.
		c.stores.Audit.RemoveRequest(transactionID)
		return nil
	}
	if err != nil {
		// A missing room is a real failure, not a resolution race.
		return fmt.Errorf("audit transaction %s: %w", transactionID, err)
	}
	c.stores.Audit.RemoveRequest(transactionID)
	return nil
}

// Renotify restarts the renotify delay. This is client-local only; no server
// endpoint exists for it.
func (c *Client) Renotify() bool {
	if !c.stores.Audit.CanRenotify() {
		return false
	}
	c.stores.Audit.ResetRenotify()
	return true
}

// Reassignment derives whether auditor reassignment is possible or required.
// A missing roster entry for a known auditor means the auditor was removed,
// so reassignment is mandatory; a disconnected entry only allows it.
func (c *Client) Reassignment() ReassignmentState {
	auditorID := c.stores.Sheet.AuditorID()
	if auditorID == "" || c.stores.Roster.Len() == 0 {
		return ReassignmentNone
	}
	entry, ok := c.stores.Roster.Get(auditorID)
	if !ok {
		return ReassignmentMandatory
	}
	switch entry.ConnectionStatus {
	case models.ConnectionStatusRemoved:
		return ReassignmentMandatory
	case models.ConnectionStatusDisconnected:
		return ReassignmentAvailable
	default:
		return ReassignmentNone
	}
}

// ReassignmentCandidates lists the roster entries eligible to become the new
// auditor: connected, not the local player, not the outgoing auditor.
func (c *Client) ReassignmentCandidates() []models.PlayerSummary {
	localID := c.stores.Session.LocalPlayerID()
	auditorID := c.stores.Sheet.AuditorID()

	var out []models.PlayerSummary
	for _, p := range c.stores.Roster.List() {
		if p.ID == localID || p.ID == auditorID || !p.Connected() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ReassignAuditor points the local player at a replacement auditor. Reviews
// already queued to the old auditor are not transferred; they stay with it
// until it reconnects.
func (c *Client) ReassignAuditor(ctx context.Context, newAuditorPlayerID string) error {
	session, ok := c.stores.Session.Get()
	if !ok {
		return errors.New("no active session")
	}
	if newAuditorPlayerID == session.CurrentPlayerID {
		return errors.New("cannot audit your own transactions")
	}
	if newAuditorPlayerID == c.stores.Sheet.AuditorID() {
		return errors.New("player is already the assigned auditor")
	}
	entry, ok := c.stores.Roster.Get(newAuditorPlayerID)
	if !ok || !entry.Connected() {
		return errors.New("replacement auditor must be a connected participant")
	}

	if err := c.api.ReassignAuditor(ctx, session.RoomCode, session.CurrentPlayerID, newAuditorPlayerID); err != nil {
		return fmt.Errorf("reassign auditor: %w", err)
	}
	c.stores.Sheet.SetAuditor(newAuditorPlayerID)
	log.Info().Str("auditor_id", newAuditorPlayerID).Msg("auditor reassigned")
	return nil
}

// RefreshRoster replaces the roster store with a fresh snapshot.
func (c *Client) RefreshRoster(ctx context.Context) error {
	session, ok := c.stores.Session.Get()
	if !ok {
		return errors.New("no active session")
	}
	players, err := c.api.FetchAllPlayers(ctx, session.RoomCode)
	if err != nil {
		return fmt.Errorf("fetch players: %w", err)
	}
	c.stores.Roster.Replace(players)
	c.stores.Session.SetPlayerCount(len(players))
	return nil
}

// RefreshSheet replaces the local sheet with a fresh fetch.
func (c *Client) RefreshSheet(ctx context.Context) error {
	session, ok := c.stores.Session.Get()
	if !ok {
		return errors.New("no active session")
	}
	sheet, err := c.api.FetchPlayer(ctx, session.RoomCode, session.CurrentPlayerID)
	if err != nil {
		return fmt.Errorf("fetch player sheet: %w", err)
	}
	c.stores.Sheet.Refresh(*sheet)
	return nil
}

// SyncInvalidated refetches whatever the effect runner invalidated since the
// last call.
func (c *Client) SyncInvalidated(ctx context.Context) error {
	c.genMu.Lock()
	rosterGen := c.runner.RosterGeneration()
	playerGen := c.runner.PlayerGeneration()
	rosterStale := rosterGen != c.seenRosterGen
	playerStale := playerGen != c.seenPlayerGen
	c.seenRosterGen = rosterGen
	c.seenPlayerGen = playerGen
	c.genMu.Unlock()

	if rosterStale {
		if err := c.RefreshRoster(ctx); err != nil {
			return err
		}
	}
	if playerStale {
		if err := c.RefreshSheet(ctx); err != nil {
			return err
		}
	}
	return nil
}
