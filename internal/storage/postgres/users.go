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

const userColumns = `id, email, full_name, is_active, is_superuser, hashed_password, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (email, hashed_password, full_name, is_active, is_superuser)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, user.FullName, user.IsActive, user.IsSuperuser)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// UserByID fetches a user by primary key.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserByEmail fetches a user by email address.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// ListUsers returns one page of users ordered by id.
func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]models.User, error) {
	page = page.Normalize(storage.DefaultLimit)
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser overwrites the supplied columns and bumps updated_at.
func (s *Store) UpdateUser(ctx context.Context, id int64, changes storage.UserChanges) (models.User, error) {
	if changes.IsEmpty() {
		return s.UserByID(ctx, id)
	}

	var p params
	var sets []string
	if changes.Email != nil {
		sets = append(sets, "email = "+p.add(*changes.Email))
	}
	if changes.PasswordHash != nil {
		sets = append(sets, "hashed_password = "+p.add(*changes.PasswordHash))
	}
	if changes.FullName.Set {
		sets = append(sets, "full_name = "+p.add(changes.FullName.Ptr()))
	}
	if changes.IsActive != nil {
		sets = append(sets, "is_active = "+p.add(*changes.IsActive))
	}
	if changes.IsSuperuser != nil {
		sets = append(sets, "is_superuser = "+p.add(*changes.IsSuperuser))
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + p.add(id) + ` RETURNING ` + userColumns
	updated, err := scanUser(s.pool.QueryRow(ctx, query, p.args...))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return updated, nil
}

// DeleteUser removes a user together with its categories and transactions.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.IsActive, &user.IsSuperuser, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
