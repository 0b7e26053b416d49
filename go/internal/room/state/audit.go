package state

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/ratrace/go/internal/models"
)

// DefaultRenotifyDelay is how long after submission the re-notify action
// becomes available to the submitter.
const DefaultRenotifyDelay = 30 * time.Second

// Audit holds the client's audit inbox (reviews queued to it as auditor) and
// the local player's own single-flight pending transaction.
type Audit struct {
	mu            sync.RWMutex
	clock         clockwork.Clock
	renotifyDelay time.Duration

	inbox   map[string]models.PendingAudit
	order   []string
	pending *models.PendingTransaction
}

// NewAudit creates an audit store. A zero renotifyDelay uses the default.
func NewAudit(clock clockwork.Clock, renotifyDelay time.Duration) *Audit {
	if renotifyDelay <= 0 {
		renotifyDelay = DefaultRenotifyDelay
	}
	return &Audit{
		clock:         clock,
		renotifyDelay: renotifyDelay,
		inbox:         make(map[string]models.PendingAudit),
	}
}

// AddRequest inserts one review into the inbox. A duplicate transaction id
// is a no-op so redelivered audit requests cannot double-queue.
func (a *Audit) AddRequest(req models.PendingAudit) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.inbox[req.TransactionID]; exists {
		return false
	}
	a.inbox[req.TransactionID] = req
	a.order = append(a.order, req.TransactionID)
	return true
}

// RemoveRequest drops one review from the inbox. Removing an id that is not
// queued is a no-op, which absorbs the two-resolver race.
func (a *Audit) RemoveRequest(transactionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.inbox[transactionID]; !exists {
		return false
	}
	delete(a.inbox, transactionID)
	for i, id := range a.order {
		if id == transactionID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Inbox returns the queued reviews in arrival order.
func (a *Audit) Inbox() []models.PendingAudit {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.PendingAudit, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.inbox[id])
	}
	return out
}

// InboxLen returns the number of queued reviews.
func (a *Audit) InboxLen() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.inbox)
}

// BeginPending records the local player's own in-flight submission. Returns
// false if one is already pending; callers must treat that as a guard, not
// an error to retry.
func (a *Audit) BeginPending(tx models.Transaction) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending.Pending() {
		return false
	}
	tx.Status = models.TransactionStatusPending
	a.pending = &models.PendingTransaction{
		Transaction: tx,
		SubmittedAt: a.clock.Now(),
	}
	return true
}

// HasPending reports whether a submission is in flight. This is the
// single-flight guard for submit and payday collection.
func (a *Audit) HasPending() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pending.Pending()
}

// Pending returns a copy of the in-flight or last-resolved submission.
func (a *Audit) Pending() (models.PendingTransaction, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.pending == nil {
		return models.PendingTransaction{}, false
	}
	p := *a.pending
	p.CanRenotify = a.canRenotifyLocked()
	return p, true
}

// MarkApproved clears the in-flight submission if the id matches. Unknown
// ids are ignored.
func (a *Audit) MarkApproved(transactionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil || a.pending.ID != transactionID {
		return false
	}
	a.pending = nil
	return true
}

// MarkRejected flags the in-flight submission as rejected with the auditor's
// note. The record stays visible for re-editing, but the single-flight guard
// releases so a new submission (with a new id) can go out.
func (a *Audit) MarkRejected(transactionID, note string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil || a.pending.ID != transactionID {
		return false
	}
	a.pending.Status = models.TransactionStatusRejected
	a.pending.AuditorNote = note
	return true
}

// ClearPending drops the local submission record entirely.
func (a *Audit) ClearPending() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = nil
}

// CanRenotify reports whether the re-notify action is currently available.
func (a *Audit) CanRenotify() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.canRenotifyLocked()
}

// ResetRenotify restarts the renotify delay. Re-notify is client-local; no
// server call is made.
func (a *Audit) ResetRenotify() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending.Pending() {
		a.pending.SubmittedAt = a.clock.Now()
	}
}

// Reset empties the store, used on room teardown.
func (a *Audit) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inbox = make(map[string]models.PendingAudit)
	a.order = nil
	a.pending = nil
}

func (a *Audit) canRenotifyLocked() bool {
	return a.pending.Pending() && a.clock.Since(a.pending.SubmittedAt) >= a.renotifyDelay
}
