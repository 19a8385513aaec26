// Package analytics computes read-only income and expense aggregates for a user.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/rideledger/internal/apperr"
	"github.com/hongminglow/rideledger/internal/logging"
	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

// FuelNameFragment identifies fuel categories by name in Fuel.
const FuelNameFragment = "combustível"

// Source is the slice of storage the engine reads from.
type Source interface {
	Totals(ctx context.Context, filter storage.AggregateFilter) (models.Totals, error)
	CategoryTotals(ctx context.Context, filter storage.AggregateFilter) ([]models.CategoryTotal, error)
	CategoryIDsMatching(ctx context.Context, match storage.CategoryMatch) ([]int64, error)
}

// Options configures an Engine.
type Options struct {
	// Location defines calendar days and months.
	Location *time.Location
	// FuelCategoryID is the category summed by the daily fuel sub-aggregate.
	FuelCategoryID int64
	Logger         *logging.Logger
	Now            func() time.Time
}

// Engine aggregates a user's transactions. All arithmetic is decimal.
type Engine struct {
	src    Source
	loc    *time.Location
	fuelID int64
	log    *logging.Logger
	now    func() time.Time
}

func New(src Source, opts Options) *Engine {
	e := &Engine{src: src, loc: opts.Location, fuelID: opts.FuelCategoryID, log: opts.Logger, now: opts.Now}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.fuelID == 0 {
		e.fuelID = 1
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	e.log = e.log.WithComponent(logging.ComponentAnalytics)
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Location is the zone calendar buckets are computed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Today is the current calendar date in the engine location.
func (e *Engine) Today() time.Time {
	y, m, d := e.now().In(e.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// Overview returns lifetime totals.
func (e *Engine) Overview(ctx context.Context, userID int64) (models.Summary, error) {
	p, err := e.period(ctx, storage.AggregateFilter{UserID: userID})
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summary{TotalIncome: p.Income.Sum, TotalExpenses: p.Expenses.Sum, Balance: p.Balance()}, nil
}

// Monthly aggregates the calendar month [first day, first day of next month).
func (e *Engine) Monthly(ctx context.Context, userID int64, year, month int) (models.MonthlySummary, error) {
	var fields apperr.Fields
	if year < 1 || year > 9999 {
		fields.Add("year", "year must be between 1 and 9999")
	}
	if month < 1 || month > 12 {
		fields.Add("month", "month must be between 1 and 12")
	}
	if err := fields.Err(); err != nil {
		return models.MonthlySummary{}, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, e.loc)
	end := start.AddDate(0, 1, 0)
	p, err := e.period(ctx, storage.AggregateFilter{UserID: userID, From: &start, Before: &end})
	if err != nil {
		return models.MonthlySummary{}, err
	}
	return models.MonthlySummary{Year: year, Month: month, PeriodSummary: p}, nil
}

// Daily aggregates one calendar day and the fuel spending of that day. Only the
// year, month and day of date are used.
func (e *Engine) Daily(ctx context.Context, userID int64, date time.Time) (models.DailySummary, error) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, e.loc)
	end := start.AddDate(0, 0, 1)

	p, err := e.period(ctx, storage.AggregateFilter{UserID: userID, From: &start, Before: &end})
	if err != nil {
		return models.DailySummary{}, err
	}

	expense := models.TransactionExpense
	fuel, err := e.src.Totals(ctx, storage.AggregateFilter{
		UserID:      userID,
		Type:        &expense,
		CategoryIDs: []int64{e.fuelID},
		From:        &start,
		Before:      &end,
	})
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("daily fuel totals: %w", err)
	}
	return models.DailySummary{Date: start, PeriodSummary: p, Fuel: fuel}, nil
}

// CategoryBreakdown groups the user's transactions by category, largest total
// first. Categories without matching transactions are omitted. from and to are
// inclusive.
func (e *Engine) CategoryBreakdown(ctx context.Context, userID int64, txType *models.TransactionType, from, to *time.Time) ([]models.CategoryTotal, error) {
	rows, err := e.src.CategoryTotals(ctx, storage.AggregateFilter{UserID: userID, Type: txType, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	return rows, nil
}

// Fuel sums the user's transactions in every expense category whose name
// contains FuelNameFragment. No such category yields a zero result.
func (e *Engine) Fuel(ctx context.Context, userID int64, from, to *time.Time) (models.FuelSummary, error) {
	ids, err := e.src.CategoryIDsMatching(ctx, storage.CategoryMatch{NameContains: FuelNameFragment, Type: models.CategoryExpense})
	if err != nil {
		return models.FuelSummary{}, fmt.Errorf("resolve fuel categories: %w", err)
	}
	if len(ids) == 0 {
		e.log.DebugContext(ctx, "no fuel categories found", logging.FieldUserID, userID)
		return models.FuelSummary{}, nil
	}
	totals, err := e.src.Totals(ctx, storage.AggregateFilter{UserID: userID, CategoryIDs: ids, From: from, To: to})
	if err != nil {
		return models.FuelSummary{}, fmt.Errorf("fuel totals: %w", err)
	}
	return models.FuelSummary{Totals: totals}, nil
}

// period computes income and expense totals independently over one filter.
func (e *Engine) period(ctx context.Context, base storage.AggregateFilter) (models.PeriodSummary, error) {
	income, expense := models.TransactionIncome, models.TransactionExpense

	f := base
	f.Type = &income
	in, err := e.src.Totals(ctx, f)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("income totals: %w", err)
	}

	f.Type = &expense
	out, err := e.src.Totals(ctx, f)
	if err != nil {
		return models.PeriodSummary{}, fmt.Errorf("expense totals: %w", err)
	}
	return models.PeriodSummary{Income: in, Expenses: out}, nil
}
