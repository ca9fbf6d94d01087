package service

import (
	"context"
	"sort"

	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardStats summarizes the account
type DashboardStats struct {
	TotalClients  int
	TotalInvoices int
	Revenue       decimal.Decimal // sum of paid invoice totals
	Outstanding   decimal.Decimal // sum of sent and overdue invoice totals
	Paid          int
	Overdue       int
	Unpaid        int // draft or sent
	Recent        []domain.Invoice
	Stale         bool
}

// DashboardService provides aggregations for the dashboard
type DashboardService interface {
	// Stats loads clients and invoices concurrently. recent caps Recent.
	Stats(ctx context.Context, recent int) (*DashboardStats, error)
}

type dashboardService struct {
	clients  ClientService
	invoices InvoiceService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(clients ClientService, invoices InvoiceService) DashboardService {
	return &dashboardService{clients: clients, invoices: invoices}
}

func (s *dashboardService) Stats(ctx context.Context, recent int) (*DashboardStats, error) {
	var (
		clientList *ClientList
		invoices   []domain.Invoice
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clientList, err = s.clients.List(gctx, false)
		return err
	})
	g.Go(func() error {
		var err error
		invoices, err = s.invoices.ListAll(gctx, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := Summarize(invoices, recent)
	stats.TotalClients = len(clientList.Clients)
	stats.Stale = clientList.Stale
	return stats, nil
}

// Summarize computes invoice counts and totals
func Summarize(invoices []domain.Invoice, recent int) *DashboardStats {
	stats := &DashboardStats{
		TotalInvoices: len(invoices),
		Revenue:       decimal.Zero,
		Outstanding:   decimal.Zero,
	}

	for _, inv := range invoices {
		switch inv.Status {
		case domain.InvoiceStatusPaid:
			stats.Paid++
			stats.Revenue = stats.Revenue.Add(inv.Total)
		case domain.InvoiceStatusOverdue:
			stats.Overdue++
			stats.Outstanding = stats.Outstanding.Add(inv.Total)
		case domain.InvoiceStatusSent:
			stats.Unpaid++
			stats.Outstanding = stats.Outstanding.Add(inv.Total)
		case domain.InvoiceStatusDraft:
			stats.Unpaid++
		}
	}

	sorted := make([]domain.Invoice, len(invoices))
	copy(sorted, invoices)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt.Time) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if recent >= 0 && len(sorted) > recent {
		sorted = sorted[:recent]
	}
	stats.Recent = sorted

	return stats
}
