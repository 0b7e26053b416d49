package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/ratrace/go/internal/room/channel"
	"github.com/mcdev12/ratrace/go/internal/room/events"
)

// Relay fans room events out to websocket clients. Connections join and
// leave rooms with control frames; events arrive from JetStream or the
// inject endpoint and are broadcast to the room's pool.
type Relay struct {
	roomConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan Broadcast
}

// Connection is one websocket client attached to the relay.
type Connection struct {
	ID       string
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte

	relay *Relay

	roomMu   sync.Mutex
	roomCode string
	closed   bool

	ConnectedAt time.Time
}

// Broadcast is one event aimed at a room, optionally narrowed to one player.
type Broadcast struct {
	RoomCode string
	Envelope events.Envelope
	PlayerID string
}

// New creates a relay.
func New(config ConnectionConfig) *Relay {
	return &Relay{
		roomConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan Broadcast, 1000),
	}
}

// Start processes broadcasts until the context ends.
func (r *Relay) Start(ctx context.Context) {
	log.Info().Msg("relay started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("relay shutting down")
			return
		case b := <-r.broadcastCh:
			r.handleBroadcast(b)
		}
	}
}

// Upgrade turns an HTTP request into a relay connection.
func (r *Relay) Upgrade(w http.ResponseWriter, req *http.Request) error {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 256),
		relay:       r,
		ConnectedAt: time.Now(),
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().Str("connection_id", connection.ID).Msg("websocket connection established")
	return nil
}

// Broadcast queues one event for fanout. A full queue drops the event
// rather than blocking the producer.
func (r *Relay) Broadcast(b Broadcast) {
	select {
	case r.broadcastCh <- b:
	default:
		log.Warn().Str("room_code", b.RoomCode).Msg("broadcast channel full, dropping event")
	}
}

// Emit wraps a payload in an envelope and broadcasts it to a room.
func (r *Relay) Emit(roomCode string, kind events.Type, payload json.RawMessage) {
	r.Broadcast(Broadcast{
		RoomCode: roomCode,
		Envelope: events.Envelope{
			ID:        uuid.New().String(),
			RoomCode:  roomCode,
			Type:      kind,
			Timestamp: time.Now().UTC(),
			Payload:   payload,
		},
	})
}

// Stats reports active rooms and connection counts.
func (r *Relay) Stats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	roomCounts := make(map[string]int)
	for code, conns := range r.roomConnections {
		total += len(conns)
		roomCounts[code] = len(conns)
	}
	return map[string]any{
		"total_connections": total,
		"active_rooms":      len(r.roomConnections),
		"room_connections":  roomCounts,
	}
}

func (r *Relay) joinRoom(conn *Connection, roomCode, playerID string) {
	roomCode = strings.ToUpper(roomCode)

	conn.roomMu.Lock()
	previous := conn.roomCode
	conn.roomCode = roomCode
	conn.PlayerID = playerID
	conn.roomMu.Unlock()

	r.mu.Lock()
	if previous != "" && previous != roomCode {
		r.detachLocked(previous, conn)
	}
	if r.roomConnections[roomCode] == nil {
		r.roomConnections[roomCode] = make(map[*Connection]bool)
	}
	r.roomConnections[roomCode][conn] = true
	count := len(r.roomConnections[roomCode])
	r.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("player_id", playerID).
		Str("room_code", roomCode).
		Int("room_connections", count).
		Msg("connection joined room")
}

func (r *Relay) leaveRoom(conn *Connection) {
	conn.roomMu.Lock()
	roomCode := conn.roomCode
	conn.roomCode = ""
	conn.roomMu.Unlock()

	if roomCode == "" {
		return
	}

	r.mu.Lock()
	r.detachLocked(roomCode, conn)
	r.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("room_code", roomCode).
		Msg("connection left room")
}

// detachLocked removes a connection from one room pool. Caller holds r.mu.
func (r *Relay) detachLocked(roomCode string, conn *Connection) {
	if conns, exists := r.roomConnections[roomCode]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.roomConnections, roomCode)
		}
	}
}

// dropConnection detaches a connection and closes its send channel. It is
// reached both from the slow-client eviction path and from readPump's
// cleanup, so the close is guarded against running twice.
func (r *Relay) dropConnection(conn *Connection) {
	r.leaveRoom(conn)

	conn.roomMu.Lock()
	alreadyClosed := conn.closed
	conn.closed = true
	conn.roomMu.Unlock()

	if !alreadyClosed {
		close(conn.Send)
	}
}

func (r *Relay) handleBroadcast(b Broadcast) {
	r.mu.RLock()
	conns, exists := r.roomConnections[strings.ToUpper(b.RoomCode)]
	if !exists {
		r.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(conns))
	for conn := range conns {
		if b.PlayerID != "" && conn.PlayerID != b.PlayerID {
			continue
		}
		targets = append(targets, conn)
	}
	r.mu.RUnlock()

	data, err := json.Marshal(b.Envelope)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal envelope for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			// Slow client; drop it rather than stalling the room.
			log.Warn().
				Str("connection_id", conn.ID).
				Str("player_id", conn.PlayerID).
				Msg("send buffer full, closing connection")
			r.dropConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(b.Envelope.Type)).
		Str("room_code", b.RoomCode).
		Int("connections", len(targets)).
		Msg("event broadcast")
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.relay.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.relay.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write to websocket")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.relay.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.relay.dropConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.relay.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.relay.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.relay.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			break
		}
		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.relay.config.ReadTimeout))
	}
}

// handleClientMessage processes join, leave, and emit control frames.
func (c *Connection) handleClientMessage(message []byte) {
	var msg channel.ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("malformed client message")
		return
	}

	switch msg.Action {
	case "join":
		c.relay.joinRoom(c, msg.RoomCode, msg.PlayerID)
	case "leave":
		c.relay.leaveRoom(c)
	case "emit":
		c.roomMu.Lock()
		roomCode := c.roomCode
		c.roomMu.Unlock()
		if roomCode == "" {
			log.Warn().Str("connection_id", c.ID).Msg("emit before join, dropping")
			return
		}
		c.relay.Emit(roomCode, msg.EventType, msg.Payload)
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Str("action", msg.Action).
			Msg("unknown client action")
	}
}
