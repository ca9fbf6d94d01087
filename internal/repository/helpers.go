package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/db"
)

// timeLayout is the RFC3339 format for storing times in SQLite
const timeLayout = time.RFC3339

// parseTime parses a time string in RFC3339 format
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// formatTime returns the current time formatted as RFC3339
func formatTime() string {
	return time.Now().UTC().Format(timeLayout)
}

func encode(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache payload: %w", err)
	}
	return string(data), nil
}

func decode(payload string, v any) error {
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("failed to decode cache payload: %w", err)
	}
	return nil
}

// MetaRepo is a SQLite implementation of MetaStore
type MetaRepo struct {
	db *db.DB
}

func NewMetaRepo(database *db.DB) *MetaRepo {
	return &MetaRepo{db: database}
}

// FetchedAt returns ErrNotCached when key was never recorded
func (r *MetaRepo) FetchedAt(ctx context.Context, key string) (time.Time, error) {
	var at string
	err := r.db.QueryRowContext(ctx, "SELECT fetched_at FROM cache_meta WHERE key = ?", key).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNotCached
		}
		return time.Time{}, fmt.Errorf("failed to read cache meta: %w", err)
	}
	return parseTime(at)
}

func (r *MetaRepo) Touch(ctx context.Context, key string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cache_meta (key, fetched_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET fetched_at = excluded.fetched_at
	`, key, at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to write cache meta: %w", err)
	}
	return nil
}

func touchTx(ctx context.Context, tx *sql.Tx, key string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO cache_meta (key, fetched_at) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET fetched_at = excluded.fetched_at
	`, key, formatTime())
	if err != nil {
		return fmt.Errorf("failed to write cache meta: %w", err)
	}
	return nil
}
