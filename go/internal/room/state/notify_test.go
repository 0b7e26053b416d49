package state

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/ratrace/go/internal/models"
)

// Expiry timers fire on their own goroutine, so tests poll for the
// dismissal instead of asserting immediately after advancing the clock.
func waitForCount(t *testing.T, n *Notifications, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(n.List()) == want
	}, time.Second, 5*time.Millisecond)
}

func TestNotifications_ExpireAfterDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := NewNotifications(clock)

	n.Enqueue(models.Notification{Message: "first", Duration: 5 * time.Second})
	n.Enqueue(models.Notification{Message: "second", Duration: 10 * time.Second})
	require.Len(t, n.List(), 2)

	clock.Advance(5 * time.Second)
	waitForCount(t, n, 1)
	assert.Equal(t, "second", n.List()[0].Message)

	clock.Advance(5 * time.Second)
	waitForCount(t, n, 0)
}

func TestNotifications_DefaultDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := NewNotifications(clock)

	id := n.Enqueue(models.Notification{Message: "hello"})
	require.NotEmpty(t, id)

	clock.Advance(models.DefaultNotificationDuration - time.Millisecond)
	assert.Len(t, n.List(), 1)

	clock.Advance(time.Millisecond)
	waitForCount(t, n, 0)
}

func TestNotifications_Dismiss_Idempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := NewNotifications(clock)

	id := n.Enqueue(models.Notification{Message: "dismiss me"})
	n.Dismiss(id)
	assert.Empty(t, n.List())

	// Second dismissal and the later timer fire are both no-ops.
	n.Dismiss(id)
	clock.Advance(time.Minute)
	assert.Empty(t, n.List())
}

func TestNotifications_DuplicatesStack(t *testing.T) {
	n := NewNotifications(clockwork.NewFakeClock())

	n.Enqueue(models.Notification{Message: "payment requested"})
	n.Enqueue(models.Notification{Message: "payment requested"})

	assert.Len(t, n.List(), 2)
}

func TestNotifications_Activate(t *testing.T) {
	n := NewNotifications(clockwork.NewFakeClock())

	id := n.Enqueue(models.Notification{Message: "review waiting", ActionLabel: "Open", ActionTarget: "/audit"})

	target, ok := n.Activate(id)
	require.True(t, ok)
	assert.Equal(t, "/audit", target)
	assert.Empty(t, n.List(), "activation dismisses the entry")

	_, ok = n.Activate(id)
	assert.False(t, ok)
}

func TestNotifications_Clear_QueueStaysUsable(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := NewNotifications(clock)

	n.Enqueue(models.Notification{Message: "old room"})
	n.Clear()
	assert.Empty(t, n.List())

	// Pending timers are gone; the fire for the cleared entry is a no-op.
	clock.Advance(time.Minute)

	id := n.Enqueue(models.Notification{Message: "new room"})
	require.NotEmpty(t, id, "clear does not kill the queue")
	assert.Len(t, n.List(), 1)

	clock.Advance(models.DefaultNotificationDuration)
	waitForCount(t, n, 0)
}

func TestNotifications_Clear_RearmsAfterStop(t *testing.T) {
	n := NewNotifications(clockwork.NewFakeClock())

	n.Stop()
	assert.Empty(t, n.Enqueue(models.Notification{Message: "rejected"}))

	n.Clear()
	assert.NotEmpty(t, n.Enqueue(models.Notification{Message: "accepted"}))
}

func TestNotifications_Stop(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := NewNotifications(clock)

	n.Enqueue(models.Notification{Message: "doomed"})
	n.Stop()

	assert.Empty(t, n.List())
	assert.Empty(t, n.Enqueue(models.Notification{Message: "after stop"}), "stopped queue rejects enqueues")
	assert.Empty(t, n.List())

	// No timer fires against the torn-down store.
	clock.Advance(time.Minute)
}
