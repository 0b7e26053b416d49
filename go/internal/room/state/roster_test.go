package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/events"
)

func TestRoster_Add_Idempotent(t *testing.T) {
	r := NewRoster()

	require.True(t, r.Add("p1", "Avery"))
	assert.False(t, r.Add("p1", "Avery again"), "duplicate insert is a no-op")
	assert.Equal(t, 1, r.Len())

	p, ok := r.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Avery", p.Name, "original entry untouched")
	assert.Equal(t, models.ConnectionStatusConnected, p.ConnectionStatus)
	assert.Zero(t, p.CashOnHand, "new entries start with zeroed financials")
}

func TestRoster_Patch_MergesPresentFields(t *testing.T) {
	r := NewRoster()
	r.Add("p1", "Avery")

	cash := 1500.0
	passive := 900.0
	expenses := 800.0
	ok := r.Patch("p1", events.RosterPatch{
		CashOnHand:    &cash,
		PassiveIncome: &passive,
		TotalExpenses: &expenses,
	})
	require.True(t, ok)

	p, _ := r.Get("p1")
	assert.Equal(t, 1500.0, p.CashOnHand)
	assert.Equal(t, "Avery", p.Name, "absent fields left alone")
	assert.True(t, p.IsOnFastTrack, "fast track derived from patched figures")
}

func TestRoster_Patch_UnknownID(t *testing.T) {
	r := NewRoster()
	cash := 100.0
	assert.False(t, r.Patch("ghost", events.RosterPatch{CashOnHand: &cash}))
	assert.Equal(t, 0, r.Len())
}

func TestRoster_List_SortedByID(t *testing.T) {
	r := NewRoster()
	r.Add("b", "Second")
	r.Add("a", "First")
	r.Add("c", "Third")

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestRoster_Remove(t *testing.T) {
	r := NewRoster()
	r.Add("p1", "Avery")

	assert.True(t, r.Remove("p1"))
	assert.False(t, r.Remove("p1"), "second remove is a no-op")
	assert.Equal(t, 0, r.Len())
}

func TestRoster_Replace(t *testing.T) {
	r := NewRoster()
	r.Add("old", "Stale")

	r.Replace([]models.PlayerSummary{
		{ID: "p1", Name: "Avery"},
		{ID: "p2", Name: "Brook"},
	})

	assert.Equal(t, 2, r.Len())
	_, ok := r.Get("old")
	assert.False(t, ok, "entries absent from the snapshot are dropped")
}
