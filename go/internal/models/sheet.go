package models

// IncomeItem is one itemized income line on a player sheet.
type IncomeItem struct {
	Name    string  `json:"name"`
	Monthly float64 `json:"monthly"`
	Passive bool    `json:"passive,omitempty"`
}

// ExpenseItem is one itemized expense line on a player sheet.
type ExpenseItem struct {
	Name    string  `json:"name"`
	Monthly float64 `json:"monthly"`
}

// Asset is one holding on a player sheet.
type Asset struct {
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	CostBasis     float64 `json:"cost_basis"`
	MonthlyIncome float64 `json:"monthly_income"`
}

// Liability is one debt on a player sheet.
type Liability struct {
	Name           string  `json:"name"`
	OriginalAmount float64 `json:"original_amount"`
	CurrentBalance float64 `json:"current_balance"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// PlayerSheet is the full financial detail of the locally controlled player.
// Derived fields (Cashflow, PaydayAmount, IsOnFastTrack) are never stored
// authoritatively; call Recompute after any mutation of the base fields.
type PlayerSheet struct {
	PlayerID        string `json:"player_id"`
	Name            string `json:"name"`
	Profession      string `json:"profession,omitempty"`
	Dream           string `json:"dream,omitempty"`
	AuditorPlayerID string `json:"auditor_player_id,omitempty"`
	IsReady         bool   `json:"is_ready"`

	CashOnHand float64 `json:"cash_on_hand"`
	Salary     float64 `json:"salary"`

	Incomes     []IncomeItem  `json:"incomes"`
	Expenses    []ExpenseItem `json:"expenses"`
	Assets      []Asset       `json:"assets"`
	Liabilities []Liability   `json:"liabilities"`

	// Derived, recomputed from the itemized lists above.
	TotalIncome   float64 `json:"total_income"`
	PassiveIncome float64 `json:"passive_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Cashflow      float64 `json:"cashflow"`
	PaydayAmount  float64 `json:"payday_amount"`
	IsOnFastTrack bool    `json:"is_on_fast_track"`
}

// Recompute rebuilds every derived field from the itemized base fields.
func (s *PlayerSheet) Recompute() {
	total := s.Salary
	passive := 0.0
	for _, inc := range s.Incomes {
		total += inc.Monthly
		if inc.Passive {
			passive += inc.Monthly
		}
	}
	for _, a := range s.Assets {
		total += a.MonthlyIncome
		passive += a.MonthlyIncome
	}

	expenses := 0.0
	for _, e := range s.Expenses {
		expenses += e.Monthly
	}
	for _, l := range s.Liabilities {
		expenses += l.MonthlyPayment
	}

	s.TotalIncome = total
	s.PassiveIncome = passive
	s.TotalExpenses = expenses
	s.Cashflow = passive - expenses
	s.PaydayAmount = total - expenses
	s.IsOnFastTrack = passive >= expenses
}
