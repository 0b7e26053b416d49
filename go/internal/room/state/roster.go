package state

import (
	"sort"
	"sync"

	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/events"
)

// Roster holds the coarse summaries of every participant in the room.
// All mutation goes through the synchronization engine's action vocabulary;
// every operation is idempotent so redelivered events are harmless.
type Roster struct {
	mu      sync.RWMutex
	players map[string]models.PlayerSummary
}

// NewRoster creates an empty roster store.
func NewRoster() *Roster {
	return &Roster{
		players: make(map[string]models.PlayerSummary),
	}
}

// Add inserts a new participant with zeroed financials. Returns false if the
// id is already present, in which case the roster is left untouched.
func (r *Roster) Add(playerID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[playerID]; exists {
		return false
	}
	r.players[playerID] = models.PlayerSummary{
		ID:               playerID,
		Name:             name,
		ConnectionStatus: models.ConnectionStatusConnected,
	}
	return true
}

// Get returns the summary for one participant.
func (r *Roster) Get(playerID string) (models.PlayerSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	return p, ok
}

// Len returns the number of participants tracked.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// List returns all summaries ordered by player id for stable iteration.
func (r *Roster) List() []models.PlayerSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.PlayerSummary, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Patch shallow-merges the fields present in the patch into the matching
// entry, last write wins. Returns false if the id is unknown.
func (r *Roster) Patch(playerID string, patch events.RosterPatch) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Profession != nil {
		p.Profession = *patch.Profession
	}
	if patch.IsReady != nil {
		p.IsReady = *patch.IsReady
	}
	if patch.CashOnHand != nil {
		p.CashOnHand = *patch.CashOnHand
	}
	if patch.Cashflow != nil {
		p.Cashflow = *patch.Cashflow
	}
	if patch.PaydayAmount != nil {
		p.PaydayAmount = *patch.PaydayAmount
	}
	if patch.PassiveIncome != nil {
		p.PassiveIncome = *patch.PassiveIncome
	}
	if patch.TotalExpenses != nil {
		p.TotalExpenses = *patch.TotalExpenses
	}
	if patch.AssetCount != nil {
		p.AssetCount = *patch.AssetCount
	}
	p.IsOnFastTrack = p.PassiveIncome >= p.TotalExpenses
	r.players[playerID] = p
	return true
}

// SetCash overwrites one participant's cash figure.
func (r *Roster) SetCash(playerID string, amount float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	p.CashOnHand = amount
	r.players[playerID] = p
	return true
}

// SetConnection updates one participant's connection status.
func (r *Roster) SetConnection(playerID string, status models.ConnectionStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	p.ConnectionStatus = status
	r.players[playerID] = p
	return true
}

// SetFastTrack marks one participant as having reached the fast track.
func (r *Roster) SetFastTrack(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok {
		return false
	}
	p.IsOnFastTrack = true
	r.players[playerID] = p
	return true
}

// Remove deletes one participant. Returns false if the id is unknown.
func (r *Roster) Remove(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.players[playerID]; !ok {
		return false
	}
	delete(r.players, playerID)
	return true
}

// Replace swaps the whole roster for a fresh snapshot. Entries absent from
// the snapshot are dropped.
func (r *Roster) Replace(players []models.PlayerSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.players = make(map[string]models.PlayerSummary, len(players))
	for _, p := range players {
		r.players[p.ID] = p
	}
}
