package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
)

// ClientRepo is a SQLite implementation of ClientCache
type ClientRepo struct {
	db *db.DB
}

// NewClientRepo creates a new ClientRepo
func NewClientRepo(database *db.DB) *ClientRepo {
	return &ClientRepo{db: database}
}

const upsertClient = `
	INSERT INTO clients (id, name, email, payload, fetched_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		payload = excluded.payload,
		fetched_at = excluded.fetched_at
`

// ReplaceAll swaps the cached list for clients and marks it fresh
func (r *ClientRepo) ReplaceAll(ctx context.Context, clients []domain.Client) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM clients"); err != nil {
		return fmt.Errorf("failed to clear clients: %w", err)
	}

	now := formatTime()
	for i := range clients {
		payload, err := encode(&clients[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upsertClient, clients[i].ID, clients[i].Name, clients[i].Email, payload, now); err != nil {
			return fmt.Errorf("failed to cache client %d: %w", clients[i].ID, err)
		}
	}

	if err := touchTx(ctx, tx, MetaClients); err != nil {
		return err
	}
	return tx.Commit()
}

// Upsert stores a single client without touching list freshness
func (r *ClientRepo) Upsert(ctx context.Context, client *domain.Client) error {
	payload, err := encode(client)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertClient, client.ID, client.Name, client.Email, payload, formatTime()); err != nil {
		return fmt.Errorf("failed to cache client: %w", err)
	}
	return nil
}

// Delete removes a client from the cache
func (r *ClientRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM clients WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cached client: %w", err)
	}
	return nil
}

// GetByID retrieves a cached client by ID
func (r *ClientRepo) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM clients WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %d: %w", id, ErrNotCached)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	client := &domain.Client{}
	if err := decode(payload, client); err != nil {
		return nil, err
	}
	return client, nil
}

// List returns cached clients ordered by name
func (r *ClientRepo) List(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT payload FROM clients ORDER BY name COLLATE NOCASE, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		var c domain.Client
		if err := decode(payload, &c); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clients: %w", err)
	}

	return clients, nil
}
