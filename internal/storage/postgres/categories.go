package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/rideledger/internal/models"
	"github.com/hongminglow/rideledger/internal/storage"
)

const categoryColumns = `id, user_id, name, type::text, color, icon, is_system, created_at`

// visibleTo restricts a category query to rows the user may read.
const visibleTo = `(user_id = $1 OR is_system)`

// CreateCategory inserts a category row.
func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	const query = `
		INSERT INTO categories (user_id, name, type, color, icon, is_system)
		VALUES ($1, $2, $3::category_type, $4, $5, $6)
		RETURNING ` + categoryColumns
	created, err := scanCategory(s.pool.QueryRow(ctx, query, c.UserID, c.Name, string(c.Type), c.Color, c.Icon, c.IsSystem))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Category{}, storage.ErrAlreadyExists
		}
		return models.Category{}, err
	}
	return created, nil
}

// CategoryByID fetches a category regardless of owner.
func (s *Store) CategoryByID(ctx context.Context, id int64) (models.Category, error) {
	return scanCategory(s.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

// VisibleCategories lists the user's own categories plus the system ones.
func (s *Store) VisibleCategories(ctx context.Context, userID int64, categoryType *models.CategoryType, page storage.Page) ([]models.Category, error) {
	page = page.Normalize(storage.DefaultLimit)
	p := params{args: []any{userID}}
	where := visibleTo
	if categoryType != nil {
		where += " AND type = " + p.add(string(*categoryType)) + "::category_type"
	}
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE ` + where +
		` ORDER BY id OFFSET ` + p.add(page.Skip) + ` LIMIT ` + p.add(page.Limit)

	rows, err := s.pool.Query(ctx, query, p.args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryByName finds a visible category with the exact name and type.
func (s *Store) CategoryByName(ctx context.Context, userID int64, name string, categoryType models.CategoryType) (models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories
		WHERE ` + visibleTo + ` AND name = $2 AND type = $3::category_type
		ORDER BY is_system, id LIMIT 1`
	return scanCategory(s.pool.QueryRow(ctx, query, userID, name, string(categoryType)))
}

// UpdateCategory overwrites the supplied columns.
func (s *Store) UpdateCategory(ctx context.Context, id int64, changes storage.CategoryChanges) (models.Category, error) {
	if changes.IsEmpty() {
		return s.CategoryByID(ctx, id)
	}

	var p params
	var sets []string
	if changes.Name != nil {
		sets = append(sets, "name = "+p.add(*changes.Name))
	}
	if changes.Type != nil {
		sets = append(sets, "type = "+p.add(string(*changes.Type))+"::category_type")
	}
	if changes.Color != nil {
		sets = append(sets, "color = "+p.add(*changes.Color))
	}
	if changes.Icon.Set {
		sets = append(sets, "icon = "+p.add(changes.Icon.Ptr()))
	}

	query := `UPDATE categories SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + p.add(id) + ` RETURNING ` + categoryColumns
	updated, err := scanCategory(s.pool.QueryRow(ctx, query, p.args...))
	if err != nil {
		if isUniqueViolation(err) {
			return models.Category{}, storage.ErrAlreadyExists
		}
		return models.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes a category. Linked transactions keep existing with a null category.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CategoryIDsMatching returns the ids of every category, of any owner, whose name
// contains the fragment case-insensitively.
func (s *Store) CategoryIDsMatching(ctx context.Context, match storage.CategoryMatch) ([]int64, error) {
	const query = `
		SELECT id FROM categories
		WHERE name ILIKE '%' || $1 || '%' AND type = $2::category_type
		ORDER BY id`
	rows, err := s.pool.Query(ctx, query, escapeLike(match.NameContains), string(match.Type))
	if err != nil {
		return nil, fmt.Errorf("match categories: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("match categories: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanCategory(row pgx.Row) (models.Category, error) {
	var c models.Category
	var kind string
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &kind, &c.Color, &c.Icon, &c.IsSystem, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Category{}, storage.ErrNotFound
		}
		return models.Category{}, err
	}
	c.Type = models.CategoryType(kind)
	return c, nil
}
