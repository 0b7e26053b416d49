package state

import (
	"sync"

	"github.com/mcdev12/ratrace/go/internal/models"
	"github.com/mcdev12/ratrace/go/internal/room/events"
)

// Sheet holds the local player's full financial detail. Derived fields are
// recomputed on every mutation so they can never go stale.
type Sheet struct {
	mu    sync.RWMutex
	sheet *models.PlayerSheet
}

// NewSheet creates an empty sheet store.
func NewSheet() *Sheet {
	return &Sheet{}
}

// Refresh replaces the sheet wholesale, typically after a full fetch.
func (s *Sheet) Refresh(sheet models.PlayerSheet) {
	sheet.Recompute()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheet = &sheet
}

// Get returns a copy of the current sheet.
func (s *Sheet) Get() (models.PlayerSheet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sheet == nil {
		return models.PlayerSheet{}, false
	}
	return *s.sheet, true
}

// Merge overwrites the fields present in the patch, leaving the rest alone,
// then recomputes the derived fields. A merge before the first Refresh is
// skipped; there is nothing to patch yet.
func (s *Sheet) Merge(patch events.SheetPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sheet == nil {
		return false
	}
	if patch.CashOnHand != nil {
		s.sheet.CashOnHand = *patch.CashOnHand
	}
	if patch.Salary != nil {
		s.sheet.Salary = *patch.Salary
	}
	if patch.Incomes != nil {
		s.sheet.Incomes = make([]models.IncomeItem, len(patch.Incomes))
		for i, line := range patch.Incomes {
			s.sheet.Incomes[i] = models.IncomeItem{Name: line.Name, Monthly: line.Monthly, Passive: line.Passive}
		}
	}
	if patch.Expenses != nil {
		s.sheet.Expenses = make([]models.ExpenseItem, len(patch.Expenses))
		for i, line := range patch.Expenses {
			s.sheet.Expenses[i] = models.ExpenseItem{Name: line.Name, Monthly: line.Monthly}
		}
	}
	if patch.Assets != nil {
		s.sheet.Assets = make([]models.Asset, len(patch.Assets))
		for i, line := range patch.Assets {
			s.sheet.Assets[i] = models.Asset{
				Name:          line.Name,
				Quantity:      line.Quantity,
				CostBasis:     line.CostBasis,
				MonthlyIncome: line.MonthlyIncome,
			}
		}
	}
	if patch.Liabilities != nil {
		s.sheet.Liabilities = make([]models.Liability, len(patch.Liabilities))
		for i, line := range patch.Liabilities {
			s.sheet.Liabilities[i] = models.Liability{
				Name:           line.Name,
				OriginalAmount: line.OriginalAmount,
				CurrentBalance: line.CurrentBalance,
				MonthlyPayment: line.MonthlyPayment,
			}
		}
	}
	s.sheet.Recompute()
	return true
}

// SetAuditor updates the assigned auditor id.
func (s *Sheet) SetAuditor(auditorPlayerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sheet == nil {
		return false
	}
	s.sheet.AuditorPlayerID = auditorPlayerID
	return true
}

// AuditorID returns the currently assigned auditor, if any.
func (s *Sheet) AuditorID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sheet == nil {
		return ""
	}
	return s.sheet.AuditorPlayerID
}

// Clear drops the sheet, used on room teardown and new-game reset.
func (s *Sheet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheet = nil
}
