package service

import (
	"context"
	"errors"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/session"
)

// The remote API as seen by each service; *api.Client satisfies all of them

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.AuthToken, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	Me(ctx context.Context) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.EmailVerification, error)
	ResendVerification(ctx context.Context, email string) (string, error)
}

type ClientAPI interface {
	ListClients(ctx context.Context, limit, offset int) ([]domain.Client, error)
	GetClient(ctx context.Context, id int64) (*domain.Client, error)
	CreateClient(ctx context.Context, in domain.ClientInput) (*domain.Client, error)
	UpdateClient(ctx context.Context, id int64, in domain.ClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, id int64) error
}

type InvoiceAPI interface {
	ListInvoices(ctx context.Context, params domain.InvoiceListParams) (*api.InvoicePage, error)
	GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error)
	CreateInvoice(ctx context.Context, in domain.InvoiceCreate, idempotencyKey string) (*domain.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, in domain.InvoiceUpdate) (*domain.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
	GenerateInvoice(ctx context.Context, in domain.GenerateInvoiceRequest) (*domain.Invoice, error)
	SendReminder(ctx context.Context, invoiceID int64) (*domain.ReminderResult, error)
}

type ExtractionAPI interface {
	ExtractJobDetails(ctx context.Context, text string, file *api.Upload) (*domain.ExtractionResponse, error)
}

type BillingAPI interface {
	CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionCheckout, error)
	VerifyPayment(ctx context.Context, reference string, provider domain.PaymentProvider) (*domain.PaymentVerification, error)
	SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error)
	PaymentHistory(ctx context.Context, limit, offset int) ([]domain.Payment, error)
}

// Sessions is the part of session.Manager the services use
type Sessions interface {
	Update(ctx context.Context, token string, user *domain.User) error
	SetUser(ctx context.Context, user *domain.User) error
	Clear(ctx context.Context) error
	Current() session.Session
}

// isOffline reports whether err came from the transport rather than the
// server, i.e. whether cached data is a reasonable substitute
func isOffline(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
