package service

import (
	"context"
	"testing"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeDefaultsCurrency(t *testing.T) {
	svc := NewBillingService(&mockAPI{}, nil, nil)

	checkout, err := svc.Subscribe(context.Background(), domain.ProviderPaystack, "", "")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/NGN", checkout.PaymentURL)

	checkout, err = svc.Subscribe(context.Background(), domain.ProviderStripe, "eur", "")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.test/EUR", checkout.PaymentURL)

	_, err = svc.Subscribe(context.Background(), domain.PaymentProvider("paypal"), "", "")
	assert.Error(t, err)
}

func TestVerifyRefreshesProfile(t *testing.T) {
	m := &mockAPI{
		verification: &domain.PaymentVerification{Message: "ok", IsPro: true},
		user:         &domain.User{ID: 1, IsPro: true},
	}
	sessions := &mockSessions{current: session.Session{Token: "tok"}}
	svc := NewBillingService(m, NewAuthService(m, sessions, nil), nil)

	res, err := svc.Verify(context.Background(), "ref-1", domain.ProviderPaystack)
	require.NoError(t, err)
	assert.True(t, res.IsPro)
	require.NotNil(t, sessions.current.User)
	assert.True(t, sessions.current.User.IsPro)

	_, err = svc.Verify(context.Background(), " ", domain.ProviderPaystack)
	assert.Error(t, err)
}
