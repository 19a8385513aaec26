package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

const transactionColumns = `id, user_id, category_id, type::text, amount::text, description, transaction_date, created_at, updated_at`

// CreateTransaction inserts a transaction. When a category is referenced it is
// locked and checked against the owner inside the same database transaction.
func (s *Store) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	const query = `
		INSERT INTO transactions (user_id, category_id, type, amount, description, transaction_date)
		VALUES ($1, $2, $3::transaction_type, $4::numeric, $5, $6)
		RETURNING ` + transactionColumns

	var created models.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if t.CategoryID != nil {
			if err := lockVisibleCategory(ctx, tx, *t.CategoryID, t.UserID); err != nil {
				return err
			}
		}
		var err error
		created, err = scanTransaction(tx.QueryRow(ctx, query,
			t.UserID, t.CategoryID, string(t.Type), t.Amount.String(), t.Description, t.TransactionDate))
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Transaction{}, storage.ErrCategoryNotFound
		}
		return models.Transaction{}, err
	}
	return created, nil
}

// TransactionByID fetches a transaction regardless of owner.
func (s *Store) TransactionByID(ctx context.Context, id int64) (models.Transaction, error) {
	return scanTransaction(s.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// ListTransactions returns one page of the user's transactions, newest first.
func (s *Store) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]models.Transaction, error) {
	page := f.Page.Normalize(storage.DefaultLimit)
	p := params{args: []any{f.UserID}}
	conds := []string{"user_id = $1"}
	if f.Type != nil {
		conds = append(conds, "type = "+p.add(string(*f.Type))+"::transaction_type")
	}
	if f.CategoryID != nil {
		conds = append(conds, "category_id = "+p.add(*f.CategoryID))
	}
	if f.From != nil {
		conds = append(conds, "transaction_date >= "+p.add(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "transaction_date <= "+p.add(*f.To))
	}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY transaction_date DESC, id DESC OFFSET ` + p.add(page.Skip) + ` LIMIT ` + p.add(page.Limit)

	rows, err := s.pool.Query(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTransaction overwrites the supplied columns and bumps updated_at. A new
// category is checked against the transaction owner under a row lock.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, changes storage.TransactionChanges) (models.Transaction, error) {
	if changes.IsEmpty() {
		return s.TransactionByID(ctx, id)
	}

	var updated models.Transaction
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var owner int64
		if err := tx.QueryRow(ctx, `SELECT user_id FROM transactions WHERE id = $1 FOR UPDATE`, id).Scan(&owner); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return storage.ErrNotFound
			}
			return err
		}
		if changes.CategoryID.HasValue() {
			if err := lockVisibleCategory(ctx, tx, changes.CategoryID.Value, owner); err != nil {
				return err
			}
		}

		var p params
		var sets []string
		if changes.Type != nil {
			sets = append(sets, "type = "+p.add(string(*changes.Type))+"::transaction_type")
		}
		if changes.Amount != nil {
			sets = append(sets, "amount = "+p.add(changes.Amount.String())+"::numeric")
		}
		if changes.Description.Set {
			sets = append(sets, "description = "+p.add(changes.Description.Ptr()))
		}
		if changes.TransactionDate != nil {
			sets = append(sets, "transaction_date = "+p.add(*changes.TransactionDate))
		}
		if changes.CategoryID.Set {
			sets = append(sets, "category_id = "+p.add(changes.CategoryID.Ptr()))
		}
		sets = append(sets, "updated_at = NOW()")

		query := `UPDATE transactions SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + p.add(id) + ` RETURNING ` + transactionColumns
		var err error
		updated, err = scanTransaction(tx.QueryRow(ctx, query, p.args...))
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Transaction{}, storage.ErrCategoryNotFound
		}
		return models.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// lockVisibleCategory takes a key-share lock on the category so it cannot be
// deleted before the enclosing write commits, then checks it is visible to owner.
func lockVisibleCategory(ctx context.Context, tx pgx.Tx, categoryID, owner int64) error {
	var userID *int64
	var isSystem bool
	err := tx.QueryRow(ctx, `SELECT user_id, is_system FROM categories WHERE id = $1 FOR KEY SHARE`, categoryID).Scan(&userID, &isSystem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrCategoryNotFound
		}
		return fmt.Errorf("lock category: %w", err)
	}
	c := models.Category{UserID: userID, IsSystem: isSystem}
	if !c.VisibleTo(owner) {
		return storage.ErrCategoryForbidden
	}
	return nil
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	var kind, amount string
	if err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &kind, &amount, &t.Description, &t.TransactionDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	t.Type = models.TransactionType(kind)
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	t.Amount = parsed
	return t, nil
}
