package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/ratrace/go/internal/room/channel"
	"github.com/mcdev12/ratrace/go/internal/room/events"
)

func startRelay(t *testing.T) (*Relay, *httptest.Server) {
	t.Helper()
	r := New(DefaultConfig().Connection)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Start(ctx)

	handler := NewHandler(r)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return r, server
}

func dialRelay(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/room"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func joinRelayRoom(t *testing.T, conn *websocket.Conn, roomCode, playerID string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(channel.ClientMessage{
		Action:   "join",
		RoomCode: roomCode,
		PlayerID: playerID,
	}))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) events.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env events.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func waitForConnections(t *testing.T, r *Relay, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.Stats()["total_connections"] == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_BroadcastToJoinedRoom(t *testing.T) {
	r, server := startRelay(t)

	conn := dialRelay(t, server)
	joinRelayRoom(t, conn, "abcd", "p1")
	waitForConnections(t, r, 1)

	r.Emit("ABCD", events.TypeGameStarted, nil)

	env := readEnvelope(t, conn)
	assert.Equal(t, events.TypeGameStarted, env.Type)
	assert.Equal(t, "ABCD", env.RoomCode, "room codes are uppercased")
	assert.NotEmpty(t, env.ID)
}

func TestRelay_BroadcastScopedToRoom(t *testing.T) {
	r, server := startRelay(t)

	inRoom := dialRelay(t, server)
	joinRelayRoom(t, inRoom, "ABCD", "p1")
	other := dialRelay(t, server)
	joinRelayRoom(t, other, "WXYZ", "p2")
	waitForConnections(t, r, 2)

	r.Emit("ABCD", events.TypeGameStarted, nil)

	env := readEnvelope(t, inRoom)
	assert.Equal(t, "ABCD", env.RoomCode)

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray events.Envelope
	err := other.ReadJSON(&stray)
	assert.Error(t, err, "other rooms receive nothing")
}

func TestRelay_TargetedBroadcast(t *testing.T) {
	r, server := startRelay(t)

	target := dialRelay(t, server)
	joinRelayRoom(t, target, "ABCD", "p1")
	bystander := dialRelay(t, server)
	joinRelayRoom(t, bystander, "ABCD", "p2")
	waitForConnections(t, r, 2)

	r.Broadcast(Broadcast{
		RoomCode: "ABCD",
		PlayerID: "p1",
		Envelope: events.Envelope{ID: "e1", RoomCode: "ABCD", Type: events.TypeAuditRequested},
	})

	env := readEnvelope(t, target)
	assert.Equal(t, "e1", env.ID)

	bystander.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray events.Envelope
	assert.Error(t, bystander.ReadJSON(&stray), "per-player broadcast skips other connections")
}

// A connection that stops reading gets evicted once its send buffer fills.
// The eviction and the read pump's own deferred cleanup both drop the same
// connection; the relay must survive the double drop and keep serving.
func TestRelay_SlowClientEvicted(t *testing.T) {
	r, server := startRelay(t)

	slow := dialRelay(t, server)
	joinRelayRoom(t, slow, "ABCD", "p1")
	waitForConnections(t, r, 1)

	// The slow client never reads; flood until its buffers overflow.
	payload, err := json.Marshal(strings.Repeat("x", 64*1024))
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		r.Emit("ABCD", events.TypePaydayCollected, payload)
	}
	waitForConnections(t, r, 0)

	// New connections still get served after the eviction.
	next := dialRelay(t, server)
	joinRelayRoom(t, next, "ABCD", "p2")
	waitForConnections(t, r, 1)

	r.Emit("ABCD", events.TypeGameStarted, nil)
	env := readEnvelope(t, next)
	assert.Equal(t, events.TypeGameStarted, env.Type)
}

func TestRelay_DropConnection_Twice(t *testing.T) {
	r := New(DefaultConfig().Connection)
	conn := &Connection{ID: "c1", Send: make(chan []byte, 1), relay: r}
	r.joinRoom(conn, "ABCD", "p1")

	require.NotPanics(t, func() {
		r.dropConnection(conn)
		r.dropConnection(conn)
	})
	assert.Equal(t, 0, r.Stats()["total_connections"])
}

func TestRelay_JoinSecondRoomLeavesFirst(t *testing.T) {
	r, server := startRelay(t)

	conn := dialRelay(t, server)
	joinRelayRoom(t, conn, "ABCD", "p1")
	waitForConnections(t, r, 1)
	joinRelayRoom(t, conn, "WXYZ", "p1")

	require.Eventually(t, func() bool {
		rooms, ok := r.Stats()["room_connections"].(map[string]int)
		return ok && rooms["WXYZ"] == 1 && rooms["ABCD"] == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRelay_EmitControlFrame(t *testing.T) {
	r, server := startRelay(t)

	sender := dialRelay(t, server)
	joinRelayRoom(t, sender, "ABCD", "p1")
	receiver := dialRelay(t, server)
	joinRelayRoom(t, receiver, "ABCD", "p2")
	waitForConnections(t, r, 2)

	payload, _ := json.Marshal(events.PlayerJoined{PlayerID: "p1", PlayerName: "Avery"})
	require.NoError(t, sender.WriteJSON(channel.ClientMessage{
		Action:    "emit",
		EventType: events.TypePlayerJoined,
		Payload:   payload,
	}))

	env := readEnvelope(t, receiver)
	assert.Equal(t, events.TypePlayerJoined, env.Type)

	ev, err := events.Decode(env)
	require.NoError(t, err)
	assert.Equal(t, "Avery", ev.(events.PlayerJoined).PlayerName)
}

func TestHandler_InjectEvent(t *testing.T) {
	r, server := startRelay(t)

	conn := dialRelay(t, server)
	joinRelayRoom(t, conn, "ABCD", "p1")
	waitForConnections(t, r, 1)

	body := strings.NewReader(`{"eventType":"payday:collected","payload":{"playerId":"p1","amount":4200}}`)
	resp, err := http.Post(server.URL+"/api/rooms/ABCD/events", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	env := readEnvelope(t, conn)
	assert.Equal(t, events.TypePaydayCollected, env.Type)

	ev, err := events.Decode(env)
	require.NoError(t, err)
	assert.Equal(t, 4200.0, ev.(events.PaydayCollected).Amount)
}

func TestHandler_InjectEvent_Validation(t *testing.T) {
	_, server := startRelay(t)

	resp, err := http.Post(server.URL+"/api/rooms/ABCD/events", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "eventType is required")
}
