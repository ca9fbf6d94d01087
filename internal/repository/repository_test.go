package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "cache.db"), "test-key")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations())
	t.Cleanup(func() { database.Close() })
	return database
}

func TestClientRepoReplaceAllAndList(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)
	repo := NewClientRepo(database)
	meta := NewMetaRepo(database)

	_, err := meta.FetchedAt(ctx, MetaClients)
	assert.ErrorIs(t, err, ErrNotCached)

	require.NoError(t, repo.ReplaceAll(ctx, []domain.Client{
		{ID: 2, Name: "zeta", Email: "z@z.test"},
		{ID: 1, Name: "Acme", Email: "a@acme.test"},
	}))

	clients, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "Acme", clients[0].Name)

	at, err := meta.FetchedAt(ctx, MetaClients)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), at, time.Minute)

	require.NoError(t, repo.ReplaceAll(ctx, []domain.Client{{ID: 3, Name: "Only"}}))
	clients, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestClientRepoUpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewClientRepo(setupDB(t))

	c := &domain.Client{ID: 9, Name: "Globex", Email: "hi@globex.test", Phone: "555"}
	require.NoError(t, repo.Upsert(ctx, c))

	c.Name = "Globex Corp"
	require.NoError(t, repo.Upsert(ctx, c))

	got, err := repo.GetByID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Globex Corp", got.Name)
	assert.Equal(t, "555", got.Phone)

	require.NoError(t, repo.Delete(ctx, 9))
	_, err = repo.GetByID(ctx, 9)
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestInvoiceRepoFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceRepo(setupDB(t))

	due, _ := domain.ParseDate("2024-02-14")
	invoices := []domain.Invoice{
		{ID: 1, Number: "INV-1", ClientID: 1, Status: domain.InvoiceStatusPaid, DueDate: due, Total: decimal.NewFromInt(100)},
		{ID: 2, Number: "INV-2", ClientID: 1, Status: domain.InvoiceStatusSent, DueDate: due},
		{ID: 3, Number: "INV-3", ClientID: 2, Status: domain.InvoiceStatusSent, DueDate: due,
			Items: []domain.InvoiceItem{{Description: "Work", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(5), Amount: decimal.NewFromInt(10)}}},
	}
	require.NoError(t, repo.ReplaceAll(ctx, invoices))

	all, err := repo.List(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)

	clientID := int64(1)
	byClient, err := repo.List(ctx, &clientID, nil)
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	sent := domain.InvoiceStatusSent
	both, err := repo.List(ctx, &clientID, &sent)
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "INV-2", both[0].Number)

	got, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Items[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "2024-02-14", got.DueDate.String())

	paid, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, paid.Total.Equal(decimal.NewFromInt(100)))
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)
	repo := NewUserRepo(database)

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNotCached)

	require.NoError(t, repo.Save(ctx, &domain.User{ID: 1, Email: "ada@example.test", FullName: "Ada"}))
	require.NoError(t, repo.Save(ctx, &domain.User{ID: 1, Email: "ada@example.test", FullName: "Ada L"}))

	u, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada L", u.FullName)

	require.NoError(t, NewClientRepo(database).Upsert(ctx, &domain.Client{ID: 1, Name: "Acme"}))
	require.NoError(t, repo.Clear(ctx))

	_, err = repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNotCached)
	clients, err := NewClientRepo(database).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, clients)
}
