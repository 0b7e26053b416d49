package state

import (
	"sync"

	"github.com/mcdev12/ratrace/go/internal/models"
)

// Session holds room-level metadata for the joined room.
type Session struct {
	mu      sync.RWMutex
	session models.GameSession
	joined  bool
}

// NewSession creates an empty session store.
func NewSession() *Session {
	return &Session{}
}

// Set replaces the session metadata wholesale.
func (s *Session) Set(session models.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.MaxPlayers == 0 {
		session.MaxPlayers = models.DefaultMaxPlayers
	}
	s.session = session
	s.joined = true
}

// Get returns a copy of the session metadata.
func (s *Session) Get() (models.GameSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session, s.joined
}

// SetStatus updates the session status. Expired is terminal; once reached,
// later transitions are ignored.
func (s *Session) SetStatus(status models.SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Status == models.SessionStatusExpired {
		return
	}
	s.session.Status = status
}

// Status returns the current session status.
func (s *Session) Status() models.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Status
}

// AddPlayers adjusts the player count by delta, clamped at zero.
func (s *Session) AddPlayers(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.PlayerCount += delta
	if s.session.PlayerCount < 0 {
		s.session.PlayerCount = 0
	}
}

// SetPlayerCount overwrites the player count, used after a roster replace.
func (s *Session) SetPlayerCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.PlayerCount = n
}

// LocalPlayerID returns the identity of the locally controlled player.
func (s *Session) LocalPlayerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.CurrentPlayerID
}

// Reset empties the store, used on explicit new-game and terminal expiry.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.GameSession{}
	s.joined = false
}
