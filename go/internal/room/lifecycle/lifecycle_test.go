package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/ratrace/go/clients/gameapi"
	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/channel"
	"github.com/mcdev12/ratrace/go/internal/room/events"
	"github.com/mcdev12/ratrace/go/internal/room/state"
)

type fakeChannel struct {
	connectErr error
	joinErr    error

	connected    bool
	joinedRoom   string
	joinedPlayer string
	left         bool
	closed       bool

	subs         map[events.Type]int
	subOrder     []string // "sub:<kind>" and markers recorded around Connect
	onDisconnect func(err error)
	onReconnect  func()
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{subs: make(map[events.Type]int)}
}

func (f *fakeChannel) Connect(ctx context.Context) error {
	f.subOrder = append(f.subOrder, "connect")
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeChannel) JoinRoom(roomCode, playerID string) error {
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joinedRoom = roomCode
	f.joinedPlayer = playerID
	return nil
}

func (f *fakeChannel) LeaveRoom() error {
	f.left = true
	return nil
}

func (f *fakeChannel) Subscribe(kind events.Type, h channel.Handler) uint64 {
	f.subs[kind]++
	f.subOrder = append(f.subOrder, "sub:"+string(kind))
	return uint64(len(f.subOrder))
}

func (f *fakeChannel) UnsubscribeAll(kind events.Type) {
	delete(f.subs, kind)
}

func (f *fakeChannel) OnDisconnect(fn func(err error)) { f.onDisconnect = fn }
func (f *fakeChannel) OnReconnect(fn func())           { f.onReconnect = fn }
func (f *fakeChannel) Close() error                    { f.closed = true; return nil }

type fakeAPI struct {
	session      *models.GameSession
	sessionErr   error
	reconnect    *gameapi.ReconnectResponse
	reconnectErr error
}

func (f *fakeAPI) FetchSession(ctx context.Context, roomCode string) (*models.GameSession, error) {
	return f.session, f.sessionErr
}

func (f *fakeAPI) ReconnectPlayer(ctx context.Context, roomCode, playerID string) (*gameapi.ReconnectResponse, error) {
	return f.reconnect, f.reconnectErr
}

type fixture struct {
	manager    *Manager
	ch         *fakeChannel
	api        *fakeAPI
	stores     *state.Stores
	ids        IdentityStore
	clock      *clockwork.FakeClock
	dispatched []events.Envelope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ch:    newFakeChannel(),
		api:   &fakeAPI{},
		clock: clockwork.NewFakeClock(),
		ids:   NewMemoryIdentityStore(),
	}
	f.stores = state.NewStores(f.clock)
	f.manager = NewManager(f.ch, f.api, f.stores, f.ids, f.clock, func(env events.Envelope) {
		f.dispatched = append(f.dispatched, env)
	})
	return f
}

func TestManager_Enter_SubscribesBeforeConnect(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Enter(context.Background(), "ABCD", "p1"))

	assert.Equal(t, StateJoined, f.manager.State())
	assert.Equal(t, "ABCD", f.ch.joinedRoom)
	assert.Equal(t, "p1", f.ch.joinedPlayer)

	// Every event kind has a handler, all registered before the dial.
	assert.Len(t, f.ch.subs, len(events.Types()))
	require.NotEmpty(t, f.ch.subOrder)
	assert.Equal(t, "connect", f.ch.subOrder[len(f.ch.subOrder)-1],
		"all subscriptions precede the connect")
}

func TestManager_Enter_ConnectFailure(t *testing.T) {
	f := newFixture(t)
	f.ch.connectErr = errors.New("dial refused")

	err := f.manager.Enter(context.Background(), "ABCD", "p1")
	require.Error(t, err)

	assert.Equal(t, StateIdle, f.manager.State())
	assert.Empty(t, f.ch.subs, "failed entry unwinds the subscriptions")
	require.Len(t, f.stores.Notifications.List(), 1)
	assert.Equal(t, models.SeverityError, f.stores.Notifications.List()[0].Severity)
}

func TestManager_Enter_JoinFailure(t *testing.T) {
	f := newFixture(t)
	f.ch.joinErr = errors.New("room full")

	err := f.manager.Enter(context.Background(), "ABCD", "p1")
	require.Error(t, err)
	assert.Equal(t, StateIdle, f.manager.State())
	assert.Empty(t, f.ch.subs)
}

func TestManager_Leave(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Enter(context.Background(), "ABCD", "p1"))
	f.manager.StartCountdown(5)

	f.manager.Leave()

	assert.Equal(t, StateIdle, f.manager.State())
	assert.True(t, f.ch.left)
	assert.Empty(t, f.ch.subs, "handlers removed before the leave frame")
	assert.False(t, f.manager.Countdown().Active)
	assert.Empty(t, f.stores.Notifications.List(), "queued notifications cleared on teardown")

	// The queue survives teardown; the next room's events still notify.
	assert.NotEmpty(t, f.stores.Notifications.Enqueue(models.Notification{Message: "next room"}))
}

func TestManager_TransportDownUp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.manager.Enter(context.Background(), "ABCD", "p1"))

	f.stores.Roster.Add("p1", "Avery")
	f.ch.onDisconnect(errors.New("broken pipe"))
	assert.Equal(t, StateDisconnected, f.manager.State())
	assert.Equal(t, 1, f.stores.Roster.Len(), "stores untouched while disconnected")

	f.ch.onReconnect()
	assert.Equal(t, StateJoined, f.manager.State())

	// A reconnect callback without a preceding drop changes nothing.
	f.ch.onReconnect()
	assert.Equal(t, StateJoined, f.manager.State())
}

func TestManager_AttemptReconnect_NoIdentity(t *testing.T) {
	f := newFixture(t)

	err := f.manager.AttemptReconnect(context.Background())
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestManager_AttemptReconnect_CatchUp(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	f.api.session = &models.GameSession{RoomCode: "ABCD", Status: models.SessionStatusActive}
	f.api.reconnect = &gameapi.ReconnectResponse{
		MissedEvents: []events.Envelope{
			{ID: "e1", Type: events.TypePlayerJoined},
			{ID: "e2", Type: events.TypePaydayCollected},
		},
	}

	require.NoError(t, f.manager.AttemptReconnect(context.Background()))

	assert.Equal(t, StateReconnected, f.manager.State())
	require.Len(t, f.dispatched, 2)
	assert.Equal(t, "e1", f.dispatched[0].ID, "missed events replay in order")
	assert.Equal(t, "e2", f.dispatched[1].ID)
}

// A fresh process holds nothing but persisted identity. Reconnecting must
// rebuild everything resuming needs: the session store, the handler
// subscriptions, and the room join on the push channel.
func TestManager_AttemptReconnect_FreshProcess(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	f.api.session = &models.GameSession{
		RoomCode:     "ABCD",
		Status:       models.SessionStatusActive,
		HostPlayerID: "host",
		PlayerCount:  3,
	}
	f.api.reconnect = &gameapi.ReconnectResponse{}

	require.NoError(t, f.manager.AttemptReconnect(context.Background()))

	assert.Equal(t, StateReconnected, f.manager.State())

	session, ok := f.stores.Session.Get()
	require.True(t, ok, "session store seeded from the server")
	assert.Equal(t, "ABCD", session.RoomCode)
	assert.Equal(t, "p1", session.CurrentPlayerID, "local identity restored onto the session")

	assert.Equal(t, "ABCD", f.ch.joinedRoom, "push channel re-joined the room")
	assert.Equal(t, "p1", f.ch.joinedPlayer)
	assert.Len(t, f.ch.subs, len(events.Types()), "live events have handlers again")
}

func TestManager_AttemptReconnect_SessionFetchFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	f.api.reconnect = &gameapi.ReconnectResponse{}
	f.api.sessionErr = errors.New("backend down")

	err := f.manager.AttemptReconnect(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateDisconnected, f.manager.State())
	id, _ := f.ids.Load()
	assert.True(t, id.Valid(), "identity kept so the user can retry")
}

func TestManager_AttemptReconnect_JoinFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	f.api.session = &models.GameSession{RoomCode: "ABCD", Status: models.SessionStatusActive}
	f.api.reconnect = &gameapi.ReconnectResponse{}
	f.ch.joinErr = errors.New("room full")

	err := f.manager.AttemptReconnect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateDisconnected, f.manager.State())
	assert.Empty(t, f.ch.subs, "failed re-join unwinds the subscriptions")
}

func TestManager_AttemptReconnect_SessionExpired(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	f.api.reconnectErr = gameapi.ErrSessionExpired

	err := f.manager.AttemptReconnect(context.Background())
	assert.ErrorIs(t, err, gameapi.ErrSessionExpired)

	assert.Equal(t, StateExpired, f.manager.State())
	assert.Equal(t, models.SessionStatusExpired, f.stores.Session.Status())

	id, loadErr := f.ids.Load()
	require.NoError(t, loadErr)
	assert.False(t, id.Valid(), "expired identity cleared, no further retries")
	require.Len(t, f.stores.Notifications.List(), 1)
}

func TestManager_AttemptReconnect_OtherFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	f.api.reconnectErr = errors.New("backend down")

	err := f.manager.AttemptReconnect(context.Background())
	require.Error(t, err)

	assert.Equal(t, StateDisconnected, f.manager.State())
	id, _ := f.ids.Load()
	assert.True(t, id.Valid(), "identity kept so the user can retry")
}

func TestManager_Countdown(t *testing.T) {
	f := newFixture(t)

	assert.Zero(t, f.manager.CountdownRemaining())

	f.manager.StartCountdown(5)
	assert.True(t, f.manager.Countdown().Active)
	assert.Equal(t, 5*time.Minute, f.manager.CountdownRemaining())

	f.clock.Advance(2 * time.Minute)
	assert.Equal(t, 3*time.Minute, f.manager.CountdownRemaining())

	// Running out does not evict; only the expiry event does.
	f.clock.Advance(10 * time.Minute)
	assert.Zero(t, f.manager.CountdownRemaining())
	assert.True(t, f.manager.Countdown().Active)
	assert.NotEqual(t, StateExpired, f.manager.State())
}

func TestManager_HandleExpired_And_ConfirmExpiry(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ids.Save(Identity{RoomCode: "ABCD", PlayerID: "p1"}))
	require.NoError(t, f.manager.Enter(context.Background(), "ABCD", "p1"))
	f.manager.StartCountdown(5)
	f.stores.Roster.Add("p1", "Avery")

	f.manager.HandleExpired()
	assert.Equal(t, StateExpired, f.manager.State())
	assert.False(t, f.manager.Countdown().Active)

	require.NoError(t, f.manager.ConfirmExpiry())
	assert.Equal(t, StateIdle, f.manager.State())
	assert.Equal(t, 0, f.stores.Roster.Len(), "stores reset on confirmation")

	id, _ := f.ids.Load()
	assert.False(t, id.Valid())
}

func TestManager_ValidateRoom(t *testing.T) {
	f := newFixture(t)
	f.api.session = &models.GameSession{RoomCode: "ABCD", Status: models.SessionStatusWaiting}

	session, err := f.manager.ValidateRoom(context.Background(), "ABCD")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", session.RoomCode)

	f.api.session = nil
	f.api.sessionErr = gameapi.ErrRoomNotFound
	_, err = f.manager.ValidateRoom(context.Background(), "NOPE")
	assert.ErrorIs(t, err, gameapi.ErrRoomNotFound)
}

func TestFileIdentityStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.json")
	store := NewFileIdentityStore(path)

	id, err := store.Load()
	require.NoError(t, err)
	assert.False(t, id.Valid(), "missing file yields zero identity")

	want := Identity{RoomCode: "ABCD", PlayerID: "p1", PlayerName: "Avery"}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "second clear is a no-op")

	got, err = store.Load()
	require.NoError(t, err)
	assert.False(t, got.Valid())
}
