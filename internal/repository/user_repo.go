package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
)

// UserRepo is a SQLite implementation of UserCache
type UserRepo struct {
	db *db.DB
}

func NewUserRepo(database *db.DB) *UserRepo {
	return &UserRepo{db: database}
}

// Save replaces the cached profile
func (r *UserRepo) Save(ctx context.Context, user *domain.User) error {
	payload, err := encode(user)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (slot, id, email, payload, fetched_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			email = excluded.email,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, user.ID, user.Email, payload, formatTime())
	if err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// Get returns the cached profile or ErrNotCached
func (r *UserRepo) Get(ctx context.Context) (*domain.User, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM users WHERE slot = 1").Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotCached
		}
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	user := &domain.User{}
	if err := decode(payload, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Clear removes the cached profile along with every cached list
func (r *UserRepo) Clear(ctx context.Context) error {
	if err := r.db.Purge(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
