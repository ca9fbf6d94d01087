package service

import (
	"context"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestExtractionService(m *mockAPI) ExtractionService {
	clients := NewClientService(m, newMemClientCache(), newMemClientCache(), time.Minute, nil)
	invoices := newTestInvoiceService(m, newMemInvoiceCache())
	return NewExtractionService(m, clients, invoices, nil)
}

func TestExtractRequiresInput(t *testing.T) {
	svc := newTestExtractionService(&mockAPI{})
	_, err := svc.Extract(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrNothingToExtract)
}

func TestExtractAndSeed(t *testing.T) {
	amount := 1500.0
	m := &mockAPI{extraction: &domain.ExtractionResponse{
		ExtractionID: 9,
		Parsed: domain.BackendExtraction{
			Jobs:         []string{"Website Redesign", "Logo Design"},
			Deadlines:    []string{"2024-03-01"},
			PaymentTerms: strPtr("Net 30"),
			Amount:       &amount,
			ClientName:   strPtr("TechCorp"),
			ClientEmail:  strPtr("ap@techcorp.test"),
		},
	}}
	svc := newTestExtractionService(m)
	ctx := context.Background()

	data, err := svc.Extract(ctx, "Build a website and a logo for TechCorp", nil)
	require.NoError(t, err)
	require.Len(t, data.LineItems, 2)

	seeded, err := svc.Seed(ctx, *data)
	require.NoError(t, err)
	require.NotNil(t, seeded.Client)
	assert.True(t, seeded.ClientCreated)

	v := seeded.Draft.View()
	assert.Equal(t, seeded.Client.ID, v.ClientID)
	assert.Equal(t, "2024-03-01", v.Due.String())
	assert.Equal(t, "2024-01-15", v.Issued.String())
	assert.Equal(t, "Net 30", v.Notes)
	assert.InDelta(t, 3000.0, v.Totals.Subtotal, 1e-9)
}

func TestSeedWithoutClient(t *testing.T) {
	svc := newTestExtractionService(&mockAPI{})

	seeded, err := svc.Seed(context.Background(), domain.ExtractedData{})
	require.NoError(t, err)
	assert.Nil(t, seeded.Client)
	assert.Equal(t, int64(0), seeded.Draft.View().ClientID)
	assert.Len(t, seeded.Draft.Items(), 1)
}
