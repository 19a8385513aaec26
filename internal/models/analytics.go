package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals is a sum and row count over a filtered set of transactions.
type Totals struct {
	Sum   decimal.Decimal
	Count int64
}

// Average returns Sum / Count, or zero for an empty set.
func (t Totals) Average() decimal.Decimal {
	if t.Count == 0 {
		return decimal.Zero
	}
	return t.Sum.Div(decimal.NewFromInt(t.Count))
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Type       CategoryType
	Color      string
	Icon       *string
	Totals
}

// Summary is the lifetime income/expense position of a user.
type Summary struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Balance       decimal.Decimal
}

// PeriodSummary aggregates income and expenses inside one calendar bucket.
type PeriodSummary struct {
	Income   Totals
	Expenses Totals
}

// Balance is income minus expenses for the period.
func (p PeriodSummary) Balance() decimal.Decimal {
	return p.Income.Sum.Sub(p.Expenses.Sum)
}

// TransactionCount is the number of transactions of either type in the period.
func (p PeriodSummary) TransactionCount() int64 {
	return p.Income.Count + p.Expenses.Count
}

// MonthlySummary is the per-month view returned by the analytics engine.
type MonthlySummary struct {
	Year  int
	Month int
	PeriodSummary
}

// DailySummary is the per-day view, including the fuel sub-aggregate.
type DailySummary struct {
	Date time.Time
	PeriodSummary
	Fuel Totals
}

// FuelSummary aggregates spending in fuel categories.
type FuelSummary struct {
	Totals
}
