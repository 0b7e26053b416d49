package gameapi

import "errors"

// Protocol errors the sync layer distinguishes from generic failures.
var (
	// ErrPendingTransaction maps the backend's conflict response (and the
	// client-side single-flight guard): a transaction is already in flight.
	ErrPendingTransaction = errors.New("a transaction is already pending audit")

	// ErrRoomNotFound maps a missing or invalid room code.
	ErrRoomNotFound = errors.New("room not found")

	// ErrTransactionNotFound maps a 404 from the audit endpoint whose body
	// names the transaction: it already left the server's queue, usually
	// because another resolver got there first. A 404 naming the room still
	// maps to ErrRoomNotFound.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrSessionExpired maps the backend's expiry signal, distinguished from
	// transport failure so the caller clears persisted identity.
	ErrSessionExpired = errors.New("session expired")
)
