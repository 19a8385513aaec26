package dto

import (
	"time"

	"github.com/hongminglow/rideledger/internal/models"
)

// Analytics responses carry monetary values as JSON numbers; conversion from
// decimal happens only here.

type SummaryResponse struct {
	TotalIncome   float64 `json:"total_income"`
	TotalExpenses float64 `json:"total_expenses"`
	Balance       float64 `json:"balance"`
}

func NewSummaryResponse(s models.Summary) SummaryResponse {
	return SummaryResponse{
		TotalIncome:   s.TotalIncome.InexactFloat64(),
		TotalExpenses: s.TotalExpenses.InexactFloat64(),
		Balance:       s.Balance.InexactFloat64(),
	}
}

type periodFields struct {
	TotalIncome       float64 `json:"total_income"`
	IncomeCount       int64   `json:"income_count"`
	TotalExpenses     float64 `json:"total_expenses"`
	ExpenseCount      int64   `json:"expense_count"`
	Balance           float64 `json:"balance"`
	TotalTransactions int64   `json:"total_transactions"`
}

func newPeriodFields(p models.PeriodSummary) periodFields {
	return periodFields{
		TotalIncome:       p.Income.Sum.InexactFloat64(),
		IncomeCount:       p.Income.Count,
		TotalExpenses:     p.Expenses.Sum.InexactFloat64(),
		ExpenseCount:      p.Expenses.Count,
		Balance:           p.Balance().InexactFloat64(),
		TotalTransactions: p.TransactionCount(),
	}
}

type MonthlySummaryResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	periodFields
}

func NewMonthlySummaryResponse(m models.MonthlySummary) MonthlySummaryResponse {
	return MonthlySummaryResponse{Year: m.Year, Month: m.Month, periodFields: newPeriodFields(m.PeriodSummary)}
}

type fuelFields struct {
	TotalFuelExpenses    float64 `json:"total_fuel_expenses"`
	FuelTransactionCount int64   `json:"fuel_transaction_count"`
	AverageFuelExpense   float64 `json:"average_fuel_expense"`
}

func newFuelFields(t models.Totals) fuelFields {
	return fuelFields{
		TotalFuelExpenses:    t.Sum.InexactFloat64(),
		FuelTransactionCount: t.Count,
		AverageFuelExpense:   t.Average().InexactFloat64(),
	}
}

type DailySummaryResponse struct {
	Date string `json:"date"`
	periodFields
	fuelFields
}

func NewDailySummaryResponse(d models.DailySummary) DailySummaryResponse {
	return DailySummaryResponse{
		Date:         d.Date.Format(time.DateOnly),
		periodFields: newPeriodFields(d.PeriodSummary),
		fuelFields:   newFuelFields(d.Fuel),
	}
}

type FuelSummaryResponse struct {
	fuelFields
}

func NewFuelSummaryResponse(f models.FuelSummary) FuelSummaryResponse {
	return FuelSummaryResponse{fuelFields: newFuelFields(f.Totals)}
}

type CategoryBreakdownItem struct {
	CategoryID       int64               `json:"category_id"`
	CategoryName     string              `json:"category_name"`
	CategoryType     models.CategoryType `json:"category_type"`
	CategoryColor    string              `json:"category_color"`
	CategoryIcon     *string             `json:"category_icon"`
	Total            float64             `json:"total"`
	TransactionCount int64               `json:"transaction_count"`
}

func NewCategoryBreakdown(rows []models.CategoryTotal) []CategoryBreakdownItem {
	out := make([]CategoryBreakdownItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, CategoryBreakdownItem{
			CategoryID:       r.CategoryID,
			CategoryName:     r.Name,
			CategoryType:     r.Type,
			CategoryColor:    r.Color,
			CategoryIcon:     r.Icon,
			Total:            r.Sum.InexactFloat64(),
			TransactionCount: r.Count,
		})
	}
	return out
}
