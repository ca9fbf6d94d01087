package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type PaymentProvider string

const (
	ProviderPaystack PaymentProvider = "paystack"
	ProviderStripe   PaymentProvider = "stripe"
)

// ParsePaymentProvider validates a provider name
func ParsePaymentProvider(s string) (PaymentProvider, error) {
	switch p := PaymentProvider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderPaystack, ProviderStripe:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment provider %q (expected paystack or stripe)", s)
	}
}

type SubscriptionStatus struct {
	IsPro                 bool       `json:"is_pro"`
	SubscriptionStatus    *string    `json:"subscription_status"`
	SubscriptionProvider  *string    `json:"subscription_provider"`
	SubscriptionStartDate *Timestamp `json:"subscription_start_date"`
	SubscriptionEndDate   *Timestamp `json:"subscription_end_date"`
	DaysRemaining         *int       `json:"days_remaining"`
}

// Active reports whether the user currently holds an active pro subscription
func (s *SubscriptionStatus) Active() bool {
	return s.IsPro && s.SubscriptionStatus != nil && *s.SubscriptionStatus == "active"
}

// SubscriptionRequest is the body of POST /v1/payments/subscription/create
type SubscriptionRequest struct {
	Provider    PaymentProvider `json:"provider"`
	Currency    string          `json:"currency"`
	CallbackURL string          `json:"callback_url,omitempty"`
}

type SubscriptionCheckout struct {
	PaymentURL string `json:"payment_url"`
	Reference  string `json:"reference"`
}

type PaymentVerification struct {
	Message string `json:"message"`
	IsPro   bool   `json:"is_pro"`
}

type Payment struct {
	ID          int64           `json:"id"`
	PaymentType string          `json:"payment_type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Provider    string          `json:"provider"`
	ProviderRef string          `json:"provider_ref"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
}

type ReminderResult struct {
	Status    string `json:"status"`
	InvoiceID int64  `json:"invoice_id"`
}
