package engine

import (
	"sync/atomic"

	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/state"
	"github.com/rs/zerolog/log"
)

// Scope names a cached fetch that an effect invalidates.
type Scope string

const (
	ScopeRoster Scope = "roster"
	ScopePlayer Scope = "player"
)

// Effect is a follow-up action the engine requests instead of performing
// inline. Keeping these out of Apply keeps the state transition itself pure
// enough to test without timers or fetch plumbing.
type Effect interface {
	effect()
}

// Notify enqueues one user-facing notification.
type Notify struct {
	Notification models.Notification
}

// Invalidate marks a cached fetch stale so the owner refetches it.
type Invalidate struct {
	Scope Scope
}

// StartCountdown seeds the session-expiry countdown.
type StartCountdown struct {
	Minutes int
}

// ExpireSession signals the authoritative eviction.
type ExpireSession struct{}

func (Notify) effect()         {}
func (Invalidate) effect()     {}
func (StartCountdown) effect() {}
func (ExpireSession) effect()  {}

// LifecycleHooks receives the effects that belong to the connection
// lifecycle manager rather than to any store.
type LifecycleHooks struct {
	OnCountdown func(minutes int)
	OnExpired   func()
}

// Runner executes effects against the notification queue and lifecycle
// hooks, and tracks invalidation generations for the fetch caches.
type Runner struct {
	stores *state.Stores
	hooks  LifecycleHooks

	rosterGen atomic.Uint64
	playerGen atomic.Uint64
}

// NewRunner creates an effect runner bound to the stores.
func NewRunner(stores *state.Stores, hooks LifecycleHooks) *Runner {
	return &Runner{stores: stores, hooks: hooks}
}

// Run executes each effect in order.
func (r *Runner) Run(effects []Effect) {
	for _, e := range effects {
		switch eff := e.(type) {
		case Notify:
			r.stores.Notifications.Enqueue(eff.Notification)
		case Invalidate:
			switch eff.Scope {
			case ScopeRoster:
				r.rosterGen.Add(1)
			case ScopePlayer:
				r.playerGen.Add(1)
			default:
				log.Warn().Str("scope", string(eff.Scope)).Msg("unknown invalidation scope")
			}
		case StartCountdown:
			if r.hooks.OnCountdown != nil {
				r.hooks.OnCountdown(eff.Minutes)
			}
		case ExpireSession:
			if r.hooks.OnExpired != nil {
				r.hooks.OnExpired()
			}
		}
	}
}

// RosterGeneration returns the roster cache generation. It moves every time
// an effect invalidates the roster fetch.
func (r *Runner) RosterGeneration() uint64 {
	return r.rosterGen.Load()
}

// PlayerGeneration returns the player-sheet cache generation.
func (r *Runner) PlayerGeneration() uint64 {
	return r.playerGen.Load()
}
