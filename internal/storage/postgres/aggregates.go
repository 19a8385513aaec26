package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

// Balance is total income minus total expenses over the user's lifetime.
func (s *Store) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	income, err := s.TotalByType(ctx, userID, models.TransactionIncome)
	if err != nil {
		return decimal.Zero, err
	}
	expenses, err := s.TotalByType(ctx, userID, models.TransactionExpense)
	if err != nil {
		return decimal.Zero, err
	}
	return income.Sub(expenses), nil
}

// TotalByType sums every transaction of one type.
func (s *Store) TotalByType(ctx context.Context, userID int64, txType models.TransactionType) (decimal.Decimal, error) {
	totals, err := s.Totals(ctx, storage.AggregateFilter{UserID: userID, Type: &txType})
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Sum, nil
}

// Totals returns the sum and count of the transactions matching f.
func (s *Store) Totals(ctx context.Context, f storage.AggregateFilter) (models.Totals, error) {
	if f.CategoryIDs != nil && len(f.CategoryIDs) == 0 {
		return models.Totals{Sum: decimal.Zero}, nil
	}
	where, args := aggregateWhere("t", f)
	query := `SELECT COALESCE(SUM(t.amount), 0)::text, COUNT(*) FROM transactions t WHERE ` + where

	var sum string
	var totals models.Totals
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&sum, &totals.Count); err != nil {
		return models.Totals{}, fmt.Errorf("aggregate transactions: %w", err)
	}
	parsed, err := decimal.NewFromString(sum)
	if err != nil {
		return models.Totals{}, fmt.Errorf("parse sum %q: %w", sum, err)
	}
	totals.Sum = parsed
	return totals, nil
}

// CategoryTotals groups the matching transactions by category. Transactions
// without a category are left out. Rows are ordered by total, largest first.
func (s *Store) CategoryTotals(ctx context.Context, f storage.AggregateFilter) ([]models.CategoryTotal, error) {
	out := []models.CategoryTotal{}
	if f.CategoryIDs != nil && len(f.CategoryIDs) == 0 {
		return out, nil
	}
	where, args := aggregateWhere("t", f)
	query := `
		SELECT c.id, c.name, c.type::text, c.color, c.icon, SUM(t.amount)::text, COUNT(t.id)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE ` + where + `
		GROUP BY c.id, c.name, c.type, c.color, c.icon
		ORDER BY SUM(t.amount) DESC, c.id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row models.CategoryTotal
		var kind, sum string
		if err := rows.Scan(&row.CategoryID, &row.Name, &kind, &row.Color, &row.Icon, &sum, &row.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		row.Type = models.CategoryType(kind)
		if row.Sum, err = decimal.NewFromString(sum); err != nil {
			return nil, fmt.Errorf("parse sum %q: %w", sum, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func aggregateWhere(alias string, f storage.AggregateFilter) (string, []any) {
	col := func(name string) string { return alias + "." + name }
	p := params{args: []any{f.UserID}}
	conds := []string{col("user_id") + " = $1"}
	if f.Type != nil {
		conds = append(conds, col("type")+" = "+p.add(string(*f.Type))+"::transaction_type")
	}
	if f.CategoryIDs != nil {
		conds = append(conds, col("category_id")+" = ANY("+p.add(f.CategoryIDs)+")")
	}
	if f.From != nil {
		conds = append(conds, col("transaction_date")+" >= "+p.add(*f.From))
	}
	if f.To != nil {
		conds = append(conds, col("transaction_date")+" <= "+p.add(*f.To))
	}
	if f.Before != nil {
		conds = append(conds, col("transaction_date")+" < "+p.add(*f.Before))
	}
	return strings.Join(conds, " AND "), p.args
}
