package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvoiceNotEditable = errors.New("only draft invoices can be edited")
	ErrInvoiceStatusSame  = errors.New("invoice already has that status")
)

// InvoiceDefaults seed every new draft
type InvoiceDefaults struct {
	DueDays  int
	TaxRate  float64
	Currency string
}

// InvoiceList is one page of invoices. Stale is set when the cached copy was
// served because the API was unreachable.
type InvoiceList struct {
	Invoices   []domain.Invoice
	NextCursor *int64
	Stale      bool
}

// InvoiceService manages invoices through the API and is the submitter of drafts
type InvoiceService interface {
	// NewDraft starts an empty draft dated today with the configured defaults
	NewDraft(clientID int64) *draft.Controller

	// DraftOptions returns the defaults NewDraft uses
	DraftOptions(clientID int64) draft.Options

	// CreateInvoice persists a validated draft submission
	CreateInvoice(ctx context.Context, sub draft.Submission) (*domain.Invoice, error)

	// List returns one page of invoices matching params
	List(ctx context.Context, params domain.InvoiceListParams) (*InvoiceList, error)

	// ListAll follows the cursor until every matching invoice is loaded
	ListAll(ctx context.Context, clientID *int64, status *domain.InvoiceStatus) ([]domain.Invoice, error)

	Get(ctx context.Context, id int64) (*domain.Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) (*domain.Invoice, error)
	UpdateNotes(ctx context.Context, id int64, notes string) (*domain.Invoice, error)
	Delete(ctx context.Context, id int64) error

	// SendReminder queues a payment reminder for an invoice
	SendReminder(ctx context.Context, id int64) (*domain.ReminderResult, error)

	// Generate creates an invoice server-side from an extraction
	Generate(ctx context.Context, req domain.GenerateInvoiceRequest) (*domain.Invoice, error)

	Defaults() InvoiceDefaults

	// SetDefaults replaces the defaults used by drafts started afterwards
	SetDefaults(d InvoiceDefaults)
}

type invoiceService struct {
	api   InvoiceAPI
	cache repository.InvoiceCache

	mu       sync.RWMutex
	defaults InvoiceDefaults

	now    func() time.Time
	newKey func() string
	logger *zap.Logger
}

var _ draft.Submitter = (*invoiceService)(nil)

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceAPI InvoiceAPI,
	cache repository.InvoiceCache,
	defaults InvoiceDefaults,
	logger *zap.Logger,
) InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &invoiceService{
		api:      invoiceAPI,
		cache:    cache,
		defaults: defaults,
		now:      time.Now,
		newKey:   uuid.NewString,
		logger:   logger,
	}
}

func (s *invoiceService) Defaults() InvoiceDefaults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

func (s *invoiceService) SetDefaults(d InvoiceDefaults) {
	s.mu.Lock()
	s.defaults = d
	s.mu.Unlock()
}

func (s *invoiceService) DraftOptions(clientID int64) draft.Options {
	d := s.Defaults()
	today := domain.NewDate(s.now())
	return draft.Options{
		ClientID: clientID,
		Issued:   today,
		Due:      today.AddDays(d.DueDays),
		TaxRate:  d.TaxRate,
	}
}

func (s *invoiceService) NewDraft(clientID int64) *draft.Controller {
	return draft.New(s.DraftOptions(clientID))
}

func (s *invoiceService) CreateInvoice(ctx context.Context, sub draft.Submission) (*domain.Invoice, error) {
	body := sub.InvoiceCreate()
	if err := body.Validate(); err != nil {
		return nil, err
	}

	key := s.newKey()
	inv, err := s.api.CreateInvoice(ctx, body, key)
	if err != nil {
		s.logger.Warn("invoice submission failed",
			zap.Int64("client_id", sub.ClientID),
			zap.String("idempotency_key", key),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.cache.Upsert(ctx, inv); err != nil {
		s.logger.Warn("failed to cache invoice", zap.Error(err))
	}
	s.logger.Info("invoice created",
		zap.Int64("invoice_id", inv.ID),
		zap.String("number", inv.Number),
		zap.Int("items", len(body.Items)),
	)
	return inv, nil
}

func (s *invoiceService) List(ctx context.Context, params domain.InvoiceListParams) (*InvoiceList, error) {
	page, err := s.api.ListInvoices(ctx, params)
	if err != nil {
		if isOffline(err) {
			cached, cerr := s.cache.List(ctx, params.ClientID, params.Status)
			if cerr == nil && len(cached) > 0 {
				s.logger.Warn("serving cached invoices", zap.Error(err))
				if params.Limit > 0 && len(cached) > params.Limit {
					cached = cached[:params.Limit]
				}
				return &InvoiceList{Invoices: cached, Stale: true}, nil
			}
		}
		return nil, err
	}

	for i := range page.Invoices {
		if err := s.cache.Upsert(ctx, &page.Invoices[i]); err != nil {
			s.logger.Warn("failed to cache invoice", zap.Error(err))
			break
		}
	}
	return &InvoiceList{Invoices: page.Invoices, NextCursor: page.NextCursor}, nil
}

func (s *invoiceService) ListAll(ctx context.Context, clientID *int64, status *domain.InvoiceStatus) ([]domain.Invoice, error) {
	params := domain.InvoiceListParams{ClientID: clientID, Status: status, Limit: api.MaxPageSize}

	var all []domain.Invoice
	for {
		page, err := s.api.ListInvoices(ctx, params)
		if err != nil {
			if isOffline(err) {
				if cached, cerr := s.cache.List(ctx, clientID, status); cerr == nil && len(cached) > 0 {
					s.logger.Warn("serving cached invoices", zap.Error(err))
					return cached, nil
				}
			}
			return nil, err
		}
		all = append(all, page.Invoices...)
		if len(page.Invoices) < api.MaxPageSize || page.NextCursor == nil {
			break
		}
		params.Cursor = page.NextCursor
	}

	if clientID == nil && status == nil {
		if err := s.cache.ReplaceAll(ctx, all); err != nil {
			s.logger.Warn("failed to cache invoices", zap.Error(err))
		}
	}
	return all, nil
}

func (s *invoiceService) Get(ctx context.Context, id int64) (*domain.Invoice, error) {
	inv, err := s.api.GetInvoice(ctx, id)
	if err != nil {
		if isOffline(err) {
			if cached, cerr := s.cache.GetByID(ctx, id); cerr == nil {
				return cached, nil
			}
		}
		return nil, err
	}
	_ = s.cache.Upsert(ctx, inv)
	return inv, nil
}

func (s *invoiceService) UpdateStatus(ctx context.Context, id int64, status domain.InvoiceStatus) (*domain.Invoice, error) {
	if _, err := domain.ParseInvoiceStatus(string(status)); err != nil {
		return nil, err
	}

	current, err := s.api.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, ErrInvoiceStatusSame
	}

	inv, err := s.api.UpdateInvoice(ctx, id, domain.InvoiceUpdate{Status: &status})
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice status: %w", err)
	}
	_ = s.cache.Upsert(ctx, inv)
	s.logger.Info("invoice status changed",
		zap.Int64("invoice_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(status)),
	)
	return inv, nil
}

func (s *invoiceService) UpdateNotes(ctx context.Context, id int64, notes string) (*domain.Invoice, error) {
	current, err := s.api.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.CanEdit() {
		return nil, ErrInvoiceNotEditable
	}

	inv, err := s.api.UpdateInvoice(ctx, id, domain.InvoiceUpdate{Notes: &notes})
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	_ = s.cache.Upsert(ctx, inv)
	return inv, nil
}

func (s *invoiceService) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeleteInvoice(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return s.cache.Delete(ctx, id)
}

func (s *invoiceService) SendReminder(ctx context.Context, id int64) (*domain.ReminderResult, error) {
	res, err := s.api.SendReminder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to send reminder: %w", err)
	}
	s.logger.Info("reminder queued", zap.Int64("invoice_id", id), zap.String("status", res.Status))
	return res, nil
}

func (s *invoiceService) Generate(ctx context.Context, req domain.GenerateInvoiceRequest) (*domain.Invoice, error) {
	if req.ClientID <= 0 {
		return nil, errors.New("client is required")
	}
	if req.Currency == "" {
		req.Currency = s.Defaults().Currency
	}

	inv, err := s.api.GenerateInvoice(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate invoice: %w", err)
	}
	_ = s.cache.Upsert(ctx, inv)
	return inv, nil
}
