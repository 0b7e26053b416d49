package gameapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mcdev12/ratrace/go/clients"
	"github.com/mcdev12/ratrace/go/internal/models"
)

// Client is the typed client for the game request API. Every call returns
// the backend's outcome; the sync layer only reflects it, never retries.
type Client struct {
	*clients.BaseClient
}

// NewClient creates a game API client for the given base URL.
func NewClient(baseURL string) *Client {
	client := &Client{
		BaseClient: clients.NewBaseClient(baseURL),
	}
	client.SetHeader("Content-Type", "application/json")
	return client
}

// CreateGame opens a new room and returns its code plus the host identity.
func (c *Client) CreateGame(ctx context.Context, gameVersion, hostName string) (*CreateGameResponse, error) {
	var resp CreateGameResponse
	if err := c.PostJSON(ctx, gamesEndpoint(), CreateGameRequest{GameVersion: gameVersion, HostName: hostName}, &resp); err != nil {
		return nil, mapError(err)
	}
	return &resp, nil
}

// JoinGame joins an existing room by code.
func (c *Client) JoinGame(ctx context.Context, roomCode, playerName string) (*JoinGameResponse, error) {
	var resp JoinGameResponse
	if err := c.PostJSON(ctx, joinEndpoint(roomCode), JoinGameRequest{PlayerName: playerName}, &resp); err != nil {
		return nil, mapError(err)
	}
	return &resp, nil
}

// FetchSession validates a room and returns its metadata.
func (c *Client) FetchSession(ctx context.Context, roomCode string) (*models.GameSession, error) {
	var session models.GameSession
	if err := c.GetJSON(ctx, gameEndpoint(roomCode), &session); err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

// FetchPlayer returns the full sheet for one player.
func (c *Client) FetchPlayer(ctx context.Context, roomCode, playerID string) (*models.PlayerSheet, error) {
	var sheet models.PlayerSheet
	if err := c.GetJSON(ctx, playerEndpoint(roomCode, playerID), &sheet); err != nil {
		return nil, mapError(err)
	}
	return &sheet, nil
}

// FetchAllPlayers returns the full roster snapshot.
func (c *Client) FetchAllPlayers(ctx context.Context, roomCode string) ([]models.PlayerSummary, error) {
	var players []models.PlayerSummary
	if err := c.GetJSON(ctx, playersEndpoint(roomCode), &players); err != nil {
		return nil, mapError(err)
	}
	return players, nil
}

// SubmitTransaction submits one financial action for audit and returns the
// server-assigned transaction id.
func (c *Client) SubmitTransaction(ctx context.Context, roomCode string, req SubmitTransactionRequest) (string, error) {
	var resp SubmitTransactionResponse
	if err := c.PostJSON(ctx, transactionsEndpoint(roomCode), req, &resp); err != nil {
		return "", mapError(err)
	}
	return resp.TransactionID, nil
}

// AuditTransaction resolves one queued review as approve or reject.
func (c *Client) AuditTransaction(ctx context.Context, roomCode, transactionID string, req AuditTransactionRequest) error {
	if err := c.PostJSON(ctx, auditEndpoint(roomCode, transactionID), req, nil); err != nil {
		return mapAuditError(err)
	}
	return nil
}

// ReconnectPlayer resumes a dropped session and returns catch-up events.
func (c *Client) ReconnectPlayer(ctx context.Context, roomCode, playerID string) (*ReconnectResponse, error) {
	var resp ReconnectResponse
	if err := c.PostJSON(ctx, reconnectEndpoint(roomCode), ReconnectRequest{PlayerID: playerID}, &resp); err != nil {
		return nil, mapError(err)
	}
	return &resp, nil
}

// ReassignAuditor points a player at a replacement auditor.
func (c *Client) ReassignAuditor(ctx context.Context, roomCode, playerID, newAuditorPlayerID string) error {
	if err := c.PostJSON(ctx, auditorEndpoint(roomCode, playerID), ReassignAuditorRequest{NewAuditorPlayerID: newAuditorPlayerID}, nil); err != nil {
		return mapError(err)
	}
	return nil
}

// mapAuditError splits the two 404s the audit endpoint can return: a
// transaction that already left the queue versus a missing room.
func mapAuditError(err error) error {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		if strings.Contains(strings.ToLower(apiErr.Body), "transaction") {
			return ErrTransactionNotFound
		}
		return ErrRoomNotFound
	}
	return mapError(err)
}

// mapError converts backend status codes into the protocol errors the sync
// layer distinguishes. Anything else passes through untouched.
func mapError(err error) error {
	var apiErr *clients.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.StatusCode {
	case http.StatusConflict:
		return ErrPendingTransaction
	case http.StatusNotFound:
		return ErrRoomNotFound
	case http.StatusGone:
		return ErrSessionExpired
	default:
		return err
	}
}
