package state

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/ratrace/go/internal/models"
)

// Notifications is the TTL queue of user-facing alerts. Entries self-remove
// after their duration elapses; duplicates are allowed to stack.
type Notifications struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	entries []models.Notification
	timers  map[string]clockwork.Timer
	stopped bool
}

// NewNotifications creates an empty notification queue.
func NewNotifications(clock clockwork.Clock) *Notifications {
	return &Notifications{
		clock:  clock,
		timers: make(map[string]clockwork.Timer),
	}
}

// Enqueue appends a notification and arms its expiry timer. A missing id is
// assigned; a missing duration uses the default. Returns the id.
func (n *Notifications) Enqueue(notif models.Notification) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.stopped {
		return ""
	}
	if notif.ID == "" {
		notif.ID = uuid.New().String()
	}
	if notif.Duration <= 0 {
		notif.Duration = models.DefaultNotificationDuration
	}
	n.entries = append(n.entries, notif)

	id := notif.ID
	n.timers[id] = n.clock.AfterFunc(notif.Duration, func() {
		n.Dismiss(id)
	})
	return id
}

// Dismiss removes a notification early. Dismissing an id that is already
// gone is a no-op.
func (n *Notifications) Dismiss(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dismissLocked(id)
}

// Activate resolves a notification's follow-up action: it returns the
// navigation target and dismisses the entry.
func (n *Notifications) Activate(id string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, e := range n.entries {
		if e.ID == id {
			target := e.ActionTarget
			n.dismissLocked(id)
			return target, target != ""
		}
	}
	return "", false
}

// List returns the live notifications in enqueue order.
func (n *Notifications) List() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]models.Notification, len(n.entries))
	copy(out, n.entries)
	return out
}

// Clear cancels every pending expiry timer and empties the queue. The queue
// stays usable; a later Enqueue arms normally. Called on room teardown and
// new-game reset so no timer fires against a torn-down store.
func (n *Notifications) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clearLocked()
	n.stopped = false
}

// Stop clears the queue and rejects every further enqueue. Terminal; only
// process shutdown uses it.
func (n *Notifications) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopped = true
	n.clearLocked()
}

func (n *Notifications) clearLocked() {
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.entries = nil
}

func (n *Notifications) dismissLocked(id string) {
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	for i, e := range n.entries {
		if e.ID == id {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return
		}
	}
}
