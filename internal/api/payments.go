package api

import (
	"context"
	"net/http"

	"github.com/andy/invoicer/internal/domain"
)

func (c *Client) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionCheckout, error) {
	var out domain.SubscriptionCheckout
	if err := c.send(ctx, http.MethodPost, "/payments/subscription/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, reference string, provider domain.PaymentProvider) (*domain.PaymentVerification, error) {
	in := map[string]string{"reference": reference, "provider": string(provider)}
	var out domain.PaymentVerification
	if err := c.send(ctx, http.MethodPost, "/payments/subscription/verify", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubscriptionStatus(ctx context.Context) (*domain.SubscriptionStatus, error) {
	var out domain.SubscriptionStatus
	if err := c.get(ctx, "/payments/subscription/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentHistory(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	var out []domain.Payment
	if err := c.get(ctx, "/payments/history", pageQuery(limit, offset), &out); err != nil {
		return nil, err
	}
	return out, nil
}
