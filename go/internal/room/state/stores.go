package state

import "github.com/jonboulle/clockwork"

// Stores bundles every room store. The synchronization engine is the single
// writer; UI layers read through the same accessors.
type Stores struct {
	Roster        *Roster
	Sheet         *Sheet
	Session       *Session
	Audit         *Audit
	Notifications *Notifications
}

// NewStores creates the full store set sharing one clock.
func NewStores(clock clockwork.Clock) *Stores {
	return &Stores{
		Roster:        NewRoster(),
		Sheet:         NewSheet(),
		Session:       NewSession(),
		Audit:         NewAudit(clock, 0),
		Notifications: NewNotifications(clock),
	}
}

// Reset empties every store and cancels pending notification timers. Used on
// explicit new-game and expiry confirmation, so the same client can enter the
// next room with working notifications.
func (s *Stores) Reset() {
	s.Roster.Replace(nil)
	s.Sheet.Clear()
	s.Session.Reset()
	s.Audit.Reset()
	s.Notifications.Clear()
}
