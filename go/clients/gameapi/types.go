package gameapi

import (
	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/events"
)

// CreateGameRequest starts a new room.
type CreateGameRequest struct {
	GameVersion string `json:"gameVersion"`
	HostName    string `json:"hostName"`
}

// CreateGameResponse returns the room code and the host's identity.
type CreateGameResponse struct {
	RoomCode     string `json:"roomCode"`
	HostPlayerID string `json:"hostPlayerId"`
}

// JoinGameRequest joins an existing room.
type JoinGameRequest struct {
	PlayerName string `json:"playerName"`
}

// JoinGameResponse returns the assigned identity and a session summary.
type JoinGameResponse struct {
	PlayerID string             `json:"playerId"`
	Session  models.GameSession `json:"session"`
}

// SubmitTransactionRequest submits one financial action for audit.
type SubmitTransactionRequest struct {
	PlayerID string         `json:"playerId"`
	Type     string         `json:"type"`
	SubType  string         `json:"subType,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// SubmitTransactionResponse returns the server-assigned transaction id.
type SubmitTransactionResponse struct {
	TransactionID string `json:"transactionId"`
}

// AuditAction is the auditor's decision.
type AuditAction string

const (
	AuditActionApprove AuditAction = "approve"
	AuditActionReject  AuditAction = "reject"
)

// AuditTransactionRequest resolves one queued review.
type AuditTransactionRequest struct {
	AuditorID string      `json:"auditorId"`
	Action    AuditAction `json:"action"`
	Note      string      `json:"note,omitempty"`
}

// ReconnectRequest resumes a dropped session using persisted identity.
type ReconnectRequest struct {
	PlayerID string `json:"playerId"`
}

// ReconnectResponse carries the catch-up events missed while disconnected.
type ReconnectResponse struct {
	MissedEvents []events.Envelope `json:"missedEvents"`
}

// ReassignAuditorRequest points a player at a replacement auditor.
type ReassignAuditorRequest struct {
	NewAuditorPlayerID string `json:"newAuditorPlayerId"`
}
