package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/ratrace/go/internal/models"
)

func TestSession_Set_DefaultsMaxPlayers(t *testing.T) {
	s := NewSession()
	s.Set(models.GameSession{RoomCode: "ABCD", Status: models.SessionStatusWaiting})

	session, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, models.DefaultMaxPlayers, session.MaxPlayers)
}

func TestSession_SetStatus_ExpiredIsTerminal(t *testing.T) {
	s := NewSession()
	s.Set(models.GameSession{RoomCode: "ABCD", Status: models.SessionStatusActive})

	s.SetStatus(models.SessionStatusExpired)
	s.SetStatus(models.SessionStatusActive)

	assert.Equal(t, models.SessionStatusExpired, s.Status(), "no transition out of expired")
}

func TestSession_AddPlayers_ClampsAtZero(t *testing.T) {
	s := NewSession()
	s.Set(models.GameSession{RoomCode: "ABCD", PlayerCount: 1})

	s.AddPlayers(-1)
	s.AddPlayers(-1)

	session, _ := s.Get()
	assert.Equal(t, 0, session.PlayerCount)
}

func TestSession_Reset(t *testing.T) {
	s := NewSession()
	s.Set(models.GameSession{RoomCode: "ABCD", CurrentPlayerID: "p1"})

	s.Reset()

	_, ok := s.Get()
	assert.False(t, ok)
	assert.Empty(t, s.LocalPlayerID())
}
