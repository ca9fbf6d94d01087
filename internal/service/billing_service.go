package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"go.uber.org/zap"
)

// BillingService manages the user's subscription
type BillingService interface {
	Status(ctx context.Context) (*domain.SubscriptionStatus, error)

	// Subscribe starts a checkout; an empty currency defaults per provider
	Subscribe(ctx context.Context, provider domain.PaymentProvider, currency, callbackURL string) (*domain.SubscriptionCheckout, error)

	// Verify confirms a checkout and refreshes the cached profile
	Verify(ctx context.Context, reference string, provider domain.PaymentProvider) (*domain.PaymentVerification, error)

	History(ctx context.Context, limit, offset int) ([]domain.Payment, error)
}

type billingService struct {
	api    BillingAPI
	auth   AuthService
	logger *zap.Logger
}

func NewBillingService(billingAPI BillingAPI, auth AuthService, logger *zap.Logger) BillingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &billingService{api: billingAPI, auth: auth, logger: logger}
}

// DefaultCurrency is NGN for Paystack and USD otherwise
func DefaultCurrency(provider domain.PaymentProvider) string {
	if provider == domain.ProviderPaystack {
		return "NGN"
	}
	return "USD"
}

func (s *billingService) Status(ctx context.Context) (*domain.SubscriptionStatus, error) {
	return s.api.SubscriptionStatus(ctx)
}

func (s *billingService) Subscribe(ctx context.Context, provider domain.PaymentProvider, currency, callbackURL string) (*domain.SubscriptionCheckout, error) {
	if _, err := domain.ParsePaymentProvider(string(provider)); err != nil {
		return nil, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency(provider)
	}

	checkout, err := s.api.CreateSubscription(ctx, domain.SubscriptionRequest{
		Provider:    provider,
		Currency:    currency,
		CallbackURL: callbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start checkout: %w", err)
	}
	s.logger.Info("checkout started", zap.String("provider", string(provider)), zap.String("reference", checkout.Reference))
	return checkout, nil
}

func (s *billingService) Verify(ctx context.Context, reference string, provider domain.PaymentProvider) (*domain.PaymentVerification, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New("payment reference is required")
	}

	res, err := s.api.VerifyPayment(ctx, reference, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	if res.IsPro && s.auth != nil {
		if _, err := s.auth.RefreshUser(ctx); err != nil {
			s.logger.Warn("profile refresh after payment failed", zap.Error(err))
		}
	}
	return res, nil
}

func (s *billingService) History(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	return s.api.PaymentHistory(ctx, limit, offset)
}
