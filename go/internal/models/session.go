package models

// SessionStatus defines the lifecycle state of a room.
type SessionStatus string

const (
	SessionStatusWaiting   SessionStatus = "WAITING"
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusExpired   SessionStatus = "EXPIRED"
)

// DefaultMaxPlayers is the room participant cap.
const DefaultMaxPlayers = 6

// GameSession holds room-level metadata as seen by this client.
type GameSession struct {
	RoomCode        string        `json:"room_code"`
	Status          SessionStatus `json:"status"`
	HostPlayerID    string        `json:"host_player_id"`
	CurrentPlayerID string        `json:"current_player_id"`
	PlayerCount     int           `json:"player_count"`
	MaxPlayers      int           `json:"max_players"`
	GameVersion     string        `json:"game_version"`
}
