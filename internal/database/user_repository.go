package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// UserRepo handles all user-related database operations.
type UserRepo struct {
	db *sql.DB
}

const userColumns = "id, email, nickname, created_at"

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.Email, &u.Nickname, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a user. A taken email returns ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, email, nickname string) (*models.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, nickname) VALUES (?, ?)", email, nickname)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}
	return r.GetByID(ctx, int(id))
}

// GetByID retrieves a user.
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, mapError(err))
	}
	return u, nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", email, mapError(err))
	}
	return u, nil
}

// UpdateUser writes the email and nickname of u. An email held by another user
// returns ErrDuplicate.
func (r *UserRepo) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET email = ?, nickname = ? WHERE id = ?", u.Email, u.Nickname, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", u.ID, mapError(err))
	}
	return requireRow(res, u.ID)
}

// DeleteUser removes a user. Owned boards and memberships go with it through
// the foreign keys.
func (r *UserRepo) DeleteUser(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, mapError(err))
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return nil
}
