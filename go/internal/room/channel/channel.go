package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/ratrace/go/internal/room/events"
)

var (
	// ErrClosed is returned for any operation after Close.
	ErrClosed = errors.New("channel closed")
	// ErrNotConnected is returned when an outbound call has no live socket.
	ErrNotConnected = errors.New("channel not connected")
)

// Handler receives one event envelope. Handlers run on the channel's read
// goroutine; they must not block.
type Handler func(events.Envelope)

// ClientMessage is the control frame the client sends to the relay.
type ClientMessage struct {
	Action    string          `json:"action"` // join | leave | emit
	RoomCode  string          `json:"roomCode,omitempty"`
	PlayerID  string          `json:"playerId,omitempty"`
	EventType events.Type     `json:"eventType,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type subscription struct {
	id      uint64
	handler Handler
}

type joinedRoom struct {
	code     string
	playerID string
	joined   bool
}

// Channel is the duplex push-event transport for one room session. One
// channel holds at most one room membership at a time; joining a second room
// implicitly leaves the first. Connect is idempotent: concurrent callers
// share a single dial.
type Channel struct {
	config Config
	clock  clockwork.Clock
	dialer *websocket.Dialer

	mu         sync.Mutex
	conn       *websocket.Conn
	send       chan []byte
	connecting chan struct{}
	connectErr error
	closed     bool
	handlers   map[events.Type][]subscription
	nextSubID  uint64
	room       joinedRoom

	onDisconnect func(err error)
	onReconnect  func()
}

// New creates a channel. A nil clock uses the real one.
func New(config Config, clock clockwork.Clock) *Channel {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Channel{
		config: config,
		clock:  clock,
		dialer: &websocket.Dialer{
			HandshakeTimeout: config.DialTimeout,
		},
		handlers: make(map[events.Type][]subscription),
	}
}

// OnDisconnect registers the callback fired when the transport drops. Must
// be set before Connect.
func (c *Channel) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

// OnReconnect registers the callback fired after the transport recovers and
// the last room has been re-joined. Must be set before Connect.
func (c *Channel) OnReconnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReconnect = fn
}

// Subscribe registers a handler for one event kind and returns its
// subscription id. Multiple handlers per kind are allowed; all are invoked.
func (c *Channel) Subscribe(kind events.Type, h Handler) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	c.handlers[kind] = append(c.handlers[kind], subscription{id: c.nextSubID, handler: h})
	return c.nextSubID
}

// Unsubscribe removes one handler by subscription id.
func (c *Channel) Unsubscribe(kind events.Type, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	subs := c.handlers[kind]
	for i, s := range subs {
		if s.id == id {
			c.handlers[kind] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// UnsubscribeAll clears every handler for one event kind.
func (c *Channel) UnsubscribeAll(kind events.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, kind)
}

// Connect dials the relay. Calling while connected is a no-op; calling while
// a dial is outstanding awaits that dial's outcome instead of opening a
// second connection. Dial failures are retried with bounded attempts and
// increasing backoff before the error surfaces.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	if c.connecting != nil {
		wait := c.connecting
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		err := c.connectErr
		c.mu.Unlock()
		return err
	}
	inflight := make(chan struct{})
	c.connecting = inflight
	c.mu.Unlock()

	conn, err := c.dial(ctx)

	c.mu.Lock()
	c.connectErr = err
	if err == nil {
		if c.closed {
			conn.Close()
			c.connectErr = ErrClosed
			err = ErrClosed
		} else {
			c.attach(conn)
		}
	}
	c.connecting = nil
	close(inflight)
	c.mu.Unlock()
	return err
}

// JoinRoom announces membership for one room. A previous membership is left
// implicitly; the relay tracks at most one room per connection.
func (c *Channel) JoinRoom(roomCode, playerID string) error {
	c.mu.Lock()
	c.room = joinedRoom{code: roomCode, playerID: playerID, joined: true}
	c.mu.Unlock()

	return c.sendMessage(ClientMessage{
		Action:   "join",
		RoomCode: roomCode,
		PlayerID: playerID,
	})
}

// LeaveRoom announces departure from the current room.
func (c *Channel) LeaveRoom() error {
	c.mu.Lock()
	room := c.room
	c.room = joinedRoom{}
	c.mu.Unlock()

	if !room.joined {
		return nil
	}
	return c.sendMessage(ClientMessage{
		Action:   "leave",
		RoomCode: room.code,
		PlayerID: room.playerID,
	})
}

// Emit sends one event to the relay for fanout to the room.
func (c *Channel) Emit(kind events.Type, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return c.sendMessage(ClientMessage{
		Action:    "emit",
		EventType: kind,
		Payload:   data,
	})
}

// Connected reports whether a live socket is attached.
func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close tears the channel down: handlers are cleared first, then the room is
// left, then the socket closes. After Close returns no handler will fire.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.handlers = make(map[events.Type][]subscription)
	room := c.room
	c.room = joinedRoom{}
	conn := c.conn
	send := c.send
	c.conn = nil
	c.send = nil
	c.mu.Unlock()

	if conn != nil {
		if room.joined {
			msg, err := json.Marshal(ClientMessage{Action: "leave", RoomCode: room.code, PlayerID: room.playerID})
			if err == nil {
				select {
				case send <- msg:
				default:
				}
			}
		}
		// Give the write pump a moment to flush the leave frame.
		c.clock.Sleep(50 * time.Millisecond)
		conn.Close()
	}
	return nil
}

func (c *Channel) dial(ctx context.Context) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxDialAttempts; attempt++ {
		conn, _, err := c.dialer.DialContext(ctx, c.config.URL, nil)
		if err == nil {
			log.Info().Str("url", c.config.URL).Int("attempt", attempt).Msg("channel connected")
			return conn, nil
		}
		lastErr = err
		log.Warn().
			Err(err).
			Str("url", c.config.URL).
			Int("attempt", attempt).
			Int("max_attempts", c.config.MaxDialAttempts).
			Msg("channel dial failed")

		if attempt == c.config.MaxDialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(c.config.DialBackoff * time.Duration(attempt)):
		}
	}
	return nil, fmt.Errorf("dial %s after %d attempts: %w", c.config.URL, c.config.MaxDialAttempts, lastErr)
}

// attach wires a fresh socket and starts its pumps. Caller holds c.mu.
func (c *Channel) attach(conn *websocket.Conn) {
	c.conn = conn
	c.send = make(chan []byte, 64)
	go c.writePump(conn, c.send)
	go c.readPump(conn)
}

func (c *Channel) sendMessage(msg ClientMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal control message: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	send := c.send
	c.mu.Unlock()

	if send == nil {
		return ErrNotConnected
	}
	select {
	case send <- data:
		return nil
	default:
		return fmt.Errorf("send buffer full: %w", ErrNotConnected)
	}
}

// writePump owns all writes to one socket, including pings.
func (c *Channel) writePump(conn *websocket.Conn, send chan []byte) {
	ticker := c.clock.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Msg("channel write failed")
				return
			}
		case <-ticker.Chan():
			conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Msg("channel ping failed")
				return
			}
		}
	}
}

// readPump delivers inbound envelopes in arrival order until the socket
// drops, then hands off to the reconnect path.
func (c *Channel) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(c.config.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.handleReadError(conn, err)
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		c.dispatch(conn, message)
	}
}

func (c *Channel) dispatch(conn *websocket.Conn, message []byte) {
	var env events.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		log.Error().Err(err).Msg("malformed event envelope, skipping")
		return
	}

	c.mu.Lock()
	// A stale pump from a replaced connection must never fire handlers.
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	subs := make([]subscription, len(c.handlers[env.Type]))
	copy(subs, c.handlers[env.Type])
	c.mu.Unlock()

	log.Debug().
		Str("event_id", env.ID).
		Str("event_type", string(env.Type)).
		Str("room_code", env.RoomCode).
		Int("handlers", len(subs)).
		Msg("event received")

	for _, s := range subs {
		s.handler(env)
	}
}

// handleReadError runs the transport-level recovery: notify the lifecycle,
// redial with bounded attempts, then re-join the last room automatically.
func (c *Channel) handleReadError(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.send = nil
	onDisconnect := c.onDisconnect
	onReconnect := c.onReconnect
	room := c.room
	c.mu.Unlock()

	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Error().Err(err).Msg("channel disconnected unexpectedly")
	} else {
		log.Info().Err(err).Msg("channel disconnected")
	}
	if onDisconnect != nil {
		onDisconnect(err)
	}

	newConn, dialErr := c.dial(context.Background())
	if dialErr != nil {
		log.Error().Err(dialErr).Msg("channel reconnect abandoned")
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		newConn.Close()
		return
	}
	c.attach(newConn)
	c.mu.Unlock()

	if room.joined {
		if err := c.JoinRoom(room.code, room.playerID); err != nil {
			log.Error().Err(err).Str("room_code", room.code).Msg("failed to re-join room after reconnect")
			return
		}
		log.Info().Str("room_code", room.code).Msg("re-joined room after transport reconnect")
	}
	if onReconnect != nil {
		onReconnect()
	}
}
