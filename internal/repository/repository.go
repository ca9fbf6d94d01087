// Package repository is the encrypted local cache of what the remote API
// last returned. It is never the source of truth and never holds drafts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andy/invoicer/internal/domain"
)

// ErrNotCached is returned when the requested record is not in the cache
var ErrNotCached = errors.New("not cached")

// Cache keys recorded in cache_meta
const (
	MetaClients  = "clients"
	MetaInvoices = "invoices"
)

// ClientCache stores the client list
type ClientCache interface {
	ReplaceAll(ctx context.Context, clients []domain.Client) error
	Upsert(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	List(ctx context.Context) ([]domain.Client, error)
}

// InvoiceCache stores invoices with their items
type InvoiceCache interface {
	ReplaceAll(ctx context.Context, invoices []domain.Invoice) error
	Upsert(ctx context.Context, invoice *domain.Invoice) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	List(ctx context.Context, clientID *int64, status *domain.InvoiceStatus) ([]domain.Invoice, error)
}

// UserCache stores the signed-in user's profile
type UserCache interface {
	Save(ctx context.Context, user *domain.User) error
	Get(ctx context.Context) (*domain.User, error)
	Clear(ctx context.Context) error
}

// MetaStore tracks when whole lists were last fetched
type MetaStore interface {
	FetchedAt(ctx context.Context, key string) (time.Time, error)
	Touch(ctx context.Context, key string, at time.Time) error
}
