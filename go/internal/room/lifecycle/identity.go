package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Identity is the client-local state that survives restarts. It exists only
// to decide whether a reconnection attempt should be made; it is cleared on
// explicit new-game, confirmed session expiry, and voluntary return home.
type Identity struct {
	RoomCode   string `json:"room_code"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// Valid reports whether the identity is usable for a reconnection attempt.
func (i Identity) Valid() bool {
	return i.RoomCode != "" && i.PlayerID != ""
}

// IdentityStore persists reconnection identity outside of any room store.
type IdentityStore interface {
	Load() (Identity, error)
	Save(Identity) error
	Clear() error
}

// FileIdentityStore keeps the identity as a JSON file on disk.
type FileIdentityStore struct {
	mu   sync.Mutex
	path string
}

// NewFileIdentityStore creates a store writing to the given path.
func NewFileIdentityStore(path string) *FileIdentityStore {
	return &FileIdentityStore{path: path}
}

// Load reads the persisted identity. A missing file yields a zero identity.
func (s *FileIdentityStore) Load() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read identity file: %w", err)
	}
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse identity file: %w", err)
	}
	return id, nil
}

// Save writes the identity to disk.
func (s *FileIdentityStore) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	return nil
}

// Clear removes the persisted identity. Clearing twice is a no-op.
func (s *FileIdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove identity file: %w", err)
	}
	return nil
}

// MemoryIdentityStore keeps the identity in memory, for tests and ephemeral
// sessions.
type MemoryIdentityStore struct {
	mu sync.Mutex
	id Identity
}

// NewMemoryIdentityStore creates an empty in-memory store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{}
}

func (s *MemoryIdentityStore) Load() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id, nil
}

func (s *MemoryIdentityStore) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *MemoryIdentityStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = Identity{}
	return nil
}
