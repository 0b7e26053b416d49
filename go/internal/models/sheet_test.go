package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerSheet_Recompute(t *testing.T) {
	sheet := PlayerSheet{
		Salary: 3000,
		Incomes: []IncomeItem{
			{Name: "Side gig", Monthly: 500},
			{Name: "Royalties", Monthly: 200, Passive: true},
		},
		Expenses: []ExpenseItem{
			{Name: "Rent", Monthly: 1200},
			{Name: "Groceries", Monthly: 400},
		},
		Assets: []Asset{
			{Name: "Duplex", Quantity: 1, CostBasis: 50000, MonthlyIncome: 600},
		},
		Liabilities: []Liability{
			{Name: "Car loan", OriginalAmount: 12000, CurrentBalance: 8000, MonthlyPayment: 300},
		},
	}

	sheet.Recompute()

	assert.Equal(t, 4300.0, sheet.TotalIncome, "salary + incomes + asset income")
	assert.Equal(t, 800.0, sheet.PassiveIncome, "passive incomes + asset income")
	assert.Equal(t, 1900.0, sheet.TotalExpenses, "expenses + liability payments")
	assert.Equal(t, -1100.0, sheet.Cashflow)
	assert.Equal(t, 2400.0, sheet.PaydayAmount)
	assert.False(t, sheet.IsOnFastTrack)
}

func TestPlayerSheet_Recompute_FastTrack(t *testing.T) {
	sheet := PlayerSheet{
		Salary: 2000,
		Assets: []Asset{
			{Name: "Apartment block", Quantity: 1, MonthlyIncome: 2500},
		},
		Expenses: []ExpenseItem{
			{Name: "Living", Monthly: 2000},
		},
	}

	sheet.Recompute()

	assert.True(t, sheet.IsOnFastTrack, "passive income covers expenses")
	assert.Equal(t, 500.0, sheet.Cashflow)
}

func TestPlayerSheet_Recompute_Empty(t *testing.T) {
	var sheet PlayerSheet
	sheet.Recompute()

	assert.Zero(t, sheet.TotalIncome)
	assert.Zero(t, sheet.TotalExpenses)
	// Zero passive income covers zero expenses.
	assert.True(t, sheet.IsOnFastTrack)
}

func TestPendingTransaction_Pending(t *testing.T) {
	var nilPending *PendingTransaction
	assert.False(t, nilPending.Pending())

	p := &PendingTransaction{Transaction: Transaction{Status: TransactionStatusPending}}
	assert.True(t, p.Pending())

	p.Status = TransactionStatusRejected
	assert.False(t, p.Pending())
}
