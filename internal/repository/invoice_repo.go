package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
)

// InvoiceRepo is a SQLite implementation of InvoiceCache
type InvoiceRepo struct {
	db *db.DB
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(database *db.DB) *InvoiceRepo {
	return &InvoiceRepo{db: database}
}

const upsertInvoice = `
	INSERT INTO invoices (id, number, client_id, status, due_date, payload, fetched_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		number = excluded.number,
		client_id = excluded.client_id,
		status = excluded.status,
		due_date = excluded.due_date,
		payload = excluded.payload,
		fetched_at = excluded.fetched_at
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertInvoiceWith(ctx context.Context, ex execer, inv *domain.Invoice, now string) error {
	payload, err := encode(inv)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, upsertInvoice,
		inv.ID,
		inv.Number,
		inv.ClientID,
		string(inv.Status),
		inv.DueDate.String(),
		payload,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to cache invoice %d: %w", inv.ID, err)
	}
	return nil
}

// ReplaceAll swaps the cached invoices and marks the list fresh
func (r *InvoiceRepo) ReplaceAll(ctx context.Context, invoices []domain.Invoice) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM invoices"); err != nil {
		return fmt.Errorf("failed to clear invoices: %w", err)
	}

	now := formatTime()
	for i := range invoices {
		if err := upsertInvoiceWith(ctx, tx, &invoices[i], now); err != nil {
			return err
		}
	}

	if err := touchTx(ctx, tx, MetaInvoices); err != nil {
		return err
	}
	return tx.Commit()
}

// Upsert stores a single invoice
func (r *InvoiceRepo) Upsert(ctx context.Context, invoice *domain.Invoice) error {
	return upsertInvoiceWith(ctx, r.db, invoice, formatTime())
}

// Delete removes an invoice from the cache
func (r *InvoiceRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM invoices WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cached invoice: %w", err)
	}
	return nil
}

// GetByID retrieves a cached invoice with its items
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM invoices WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotCached)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	inv := &domain.Invoice{}
	if err := decode(payload, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns cached invoices, newest first, optionally filtered
func (r *InvoiceRepo) List(ctx context.Context, clientID *int64, status *domain.InvoiceStatus) ([]domain.Invoice, error) {
	query := "SELECT payload FROM invoices"
	var conds []string
	var args []any

	if clientID != nil {
		conds = append(conds, "client_id = ?")
		args = append(args, *clientID)
	}
	if status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		var inv domain.Invoice
		if err := decode(payload, &inv); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}
