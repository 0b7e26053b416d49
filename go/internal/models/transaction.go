package models

import "time"

// TransactionStatus defines the audit state of a submitted transaction.
type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusRejected TransactionStatus = "REJECTED"
)

// Transaction is one financial action submitted for audit.
type Transaction struct {
	ID          string            `json:"id"`
	PlayerID    string            `json:"player_id"`
	Type        string            `json:"type"`
	SubType     string            `json:"sub_type,omitempty"`
	Status      TransactionStatus `json:"status"`
	AuditorNote string            `json:"auditor_note,omitempty"`
	Details     map[string]any    `json:"details,omitempty"`
}

// PendingTransaction is the local player's own in-flight submission. At most
// one exists per player while its status is PENDING.
type PendingTransaction struct {
	Transaction
	SubmittedAt time.Time `json:"submitted_at"`
	CanRenotify bool      `json:"can_renotify"`
}

// Pending reports whether the submission is still awaiting audit.
func (p *PendingTransaction) Pending() bool {
	return p != nil && p.Status == TransactionStatusPending
}

// PendingAudit is one item in the local client's audit inbox.
type PendingAudit struct {
	TransactionID string         `json:"transaction_id"`
	PlayerID      string         `json:"player_id"`
	PlayerName    string         `json:"player_name"`
	Type          string         `json:"type"`
	SubType       string         `json:"sub_type,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}
