package draft

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/andy/invoicer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSubmitter struct {
	calls   int
	got     []Submission
	err     error
	invoice *domain.Invoice
	during  func()
}

func (m *mockSubmitter) CreateInvoice(ctx context.Context, sub Submission) (*domain.Invoice, error) {
	m.calls++
	m.got = append(m.got, sub)
	if m.during != nil {
		m.during()
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.invoice != nil {
		return m.invoice, nil
	}
	return &domain.Invoice{ID: 1, ClientID: sub.ClientID}, nil
}

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func validDraft(t *testing.T) *Controller {
	t.Helper()
	return New(Options{
		ClientID: 5,
		Issued:   mustDate(t, "2024-01-15"),
		Due:      mustDate(t, "2024-02-14"),
		TaxRate:  10,
		Items: []LineItem{
			{Description: "Design", Quantity: 2, UnitPrice: 50, Amount: 100},
			{Description: "Hosting", Quantity: 1, UnitPrice: 25, Amount: 25},
		},
	})
}

func assertTotalsConsistent(t *testing.T, c *Controller) {
	t.Helper()
	v := c.View()
	var sum float64
	for _, it := range v.Items {
		sum += it.Amount
	}
	assert.InDelta(t, sum, v.Totals.Subtotal, 1e-9)
	assert.InDelta(t, v.Totals.Subtotal+v.Totals.Subtotal*v.TaxRate/100, v.Totals.Total, 1e-9)
}

func TestControllerWorkedExample(t *testing.T) {
	c := validDraft(t)

	totals := c.Totals()
	assert.InDelta(t, 125.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 12.5, totals.TaxAmount, 1e-9)
	assert.InDelta(t, 137.5, totals.Total, 1e-9)

	removed, err := c.RemoveItem(1)
	require.NoError(t, err)
	require.True(t, removed)

	totals = c.Totals()
	assert.InDelta(t, 100.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 10.0, totals.TaxAmount, 1e-9)
	assert.InDelta(t, 110.0, totals.Total, 1e-9)

	require.NoError(t, c.SetTaxRate(0))
	totals = c.Totals()
	assert.InDelta(t, 0.0, totals.TaxAmount, 1e-9)
	assert.InDelta(t, 100.0, totals.Total, 1e-9)
}

func TestControllerTotalsConsistentAfterEveryMutation(t *testing.T) {
	c := validDraft(t)

	steps := []func() error{
		func() error { _, err := c.UpdateItem(0, FieldQuantity, "3"); return err },
		func() error { _, err := c.UpdateItem(1, FieldUnitPrice, "12.75"); return err },
		func() error { _, err := c.AddItem(); return err },
		func() error { _, err := c.UpdateItem(2, FieldUnitPrice, "9.99"); return err },
		func() error { return c.SetTaxRate(7.5) },
		func() error { _, err := c.RemoveItem(0); return err },
		func() error { _, err := c.UpdateItem(0, FieldQuantity, "garbage"); return err },
		func() error { _, err := c.RemoveItem(0); return err },
		func() error { _, err := c.RemoveItem(0); return err },
	}

	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assertTotalsConsistent(t, c)
	}
}

func TestControllerAmountDerivedAfterEdit(t *testing.T) {
	c := New(Options{Items: []LineItem{{Description: "Seeded", Quantity: 1, UnitPrice: 1500, Amount: 999}}})

	// seeded amounts are trusted until edited
	assert.InDelta(t, 999.0, c.Totals().Subtotal, 1e-9)

	_, err := c.UpdateItem(0, FieldQuantity, "2")
	require.NoError(t, err)

	item := c.Items()[0]
	assert.Equal(t, item.Quantity*item.UnitPrice, item.Amount)
	assert.Equal(t, 3000.0, item.Amount)

	_, err = c.UpdateItem(0, FieldUnitPrice, "0.1")
	require.NoError(t, err)
	item = c.Items()[0]
	assert.Equal(t, item.Quantity*item.UnitPrice, item.Amount)
}

func TestControllerDescriptionEditKeepsAmount(t *testing.T) {
	c := New(Options{Items: []LineItem{{Description: "a", Quantity: 1, UnitPrice: 10, Amount: 42}}})

	_, err := c.UpdateItem(0, FieldDescription, "b")
	require.NoError(t, err)
	assert.Equal(t, 42.0, c.Items()[0].Amount)
}

func TestControllerCoercionWarning(t *testing.T) {
	c := New(Options{})

	warn, err := c.UpdateItem(0, FieldQuantity, "two")
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, 1.0, warn.Value)
	assert.Equal(t, 1.0, c.Items()[0].Quantity)

	warn, err = c.UpdateItem(0, FieldUnitPrice, "-3")
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, 0.0, c.Items()[0].UnitPrice)
	assert.Equal(t, 0.0, c.Items()[0].Amount)
}

func TestControllerRemoveOnlyItem(t *testing.T) {
	c := New(Options{})

	removed, err := c.RemoveItem(0)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, c.Items(), 1)
}

func TestControllerSetTaxRateRejectsInvalid(t *testing.T) {
	c := validDraft(t)

	for _, rate := range []float64{-1, 100.01, 250} {
		err := c.SetTaxRate(rate)
		assert.ErrorIs(t, err, ErrInvalidTaxRate)
	}
	assert.Equal(t, 10.0, c.View().TaxRate)

	require.NoError(t, c.SetTaxRate(100))
	assert.InDelta(t, 250.0, c.Totals().Total, 1e-9)
}

func TestParseTaxRate(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"7.5", 7.5, false},
		{" 15% ", 15, false},
		{"100", 100, false},
		{"abc", 0, true},
		{"-2", 0, true},
		{"101", 0, true},
		{"NaN", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTaxRate(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTaxRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSubmissionDropsBlankItems(t *testing.T) {
	c := validDraft(t)
	i, err := c.AddItem()
	require.NoError(t, err)
	_, err = c.UpdateItem(i, FieldDescription, "   ")
	require.NoError(t, err)
	_, err = c.UpdateItem(i, FieldUnitPrice, "1000")
	require.NoError(t, err)

	sub, err := c.BuildSubmission()
	require.NoError(t, err)

	require.Len(t, sub.Items, 2)
	assert.InDelta(t, 125.0, sub.Totals.Subtotal, 1e-9)
	assert.InDelta(t, 137.5, sub.Totals.Total, 1e-9)
	assert.Equal(t, int64(5), sub.ClientID)
	assert.Equal(t, 10.0, sub.TaxRate)

	// the draft itself still shows the blank row
	assert.Len(t, c.Items(), 3)
}

func TestBuildSubmissionNoItems(t *testing.T) {
	c := New(Options{
		ClientID: 1,
		Issued:   mustDate(t, "2024-01-01"),
		Due:      mustDate(t, "2024-01-31"),
	})

	_, err := c.BuildSubmission()
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(KeyItems))
	assert.Len(t, verr, 1)
}

func TestBuildSubmissionDateOrdering(t *testing.T) {
	c := validDraft(t)

	require.NoError(t, c.SetDates(mustDate(t, "2024-02-01"), mustDate(t, "2024-01-31")))
	_, err := c.BuildSubmission()
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(KeyDueDate))

	require.NoError(t, c.SetDates(mustDate(t, "2024-02-01"), mustDate(t, "2024-02-01")))
	_, err = c.BuildSubmission()
	assert.NoError(t, err)
}

func TestBuildSubmissionMissingFields(t *testing.T) {
	c := New(Options{})

	_, err := c.BuildSubmission()
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	for _, key := range []string{KeyClientID, KeyIssuedDate, KeyDueDate, KeyItems} {
		assert.True(t, verr.Has(key), key)
	}
	assert.Equal(t, verr, c.View().Errors)
}

func TestValidationErrorsClearOnEdit(t *testing.T) {
	c := New(Options{})
	_, _ = c.BuildSubmission()

	require.NoError(t, c.SetClient(3))
	errs := c.View().Errors
	assert.False(t, errs.Has(KeyClientID))
	assert.True(t, errs.Has(KeyItems))

	_, err := c.UpdateItem(0, FieldDescription, "Work")
	require.NoError(t, err)
	assert.False(t, c.View().Errors.Has(KeyItems))
}

func TestSubmitWithoutClientNeverCallsRemote(t *testing.T) {
	c := New(Options{
		Issued: mustDate(t, "2024-01-01"),
		Due:    mustDate(t, "2024-01-31"),
		Items:  []LineItem{{Description: "Work", Quantity: 1, UnitPrice: 10, Amount: 10}},
	})
	remote := &mockSubmitter{}

	_, err := c.Submit(context.Background(), remote)

	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(KeyClientID))
	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, StateEditing, c.State())
}

func TestSubmitSuccessDiscardsDraft(t *testing.T) {
	c := validDraft(t)
	remote := &mockSubmitter{invoice: &domain.Invoice{ID: 99}}

	inv, err := c.Submit(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, int64(99), inv.ID)
	assert.Equal(t, StateDiscarded, c.State())
	require.Len(t, remote.got, 1)
	assert.Len(t, remote.got[0].Items, 2)

	assert.ErrorIs(t, c.SetNotes("late"), ErrDiscarded)
	_, err = c.AddItem()
	assert.ErrorIs(t, err, ErrDiscarded)
	_, err = c.Submit(context.Background(), remote)
	assert.ErrorIs(t, err, ErrDiscarded)
	assert.Equal(t, 1, remote.calls)
}

func TestSubmitTransportFailurePreservesDraft(t *testing.T) {
	c := validDraft(t)
	require.NoError(t, c.SetNotes("Thanks"))
	before := c.View()

	remote := &mockSubmitter{err: errors.New("500: database unavailable")}
	_, err := c.Submit(context.Background(), remote)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.EqualError(t, terr.Err, "500: database unavailable")
	assert.Equal(t, StateEditing, c.State())

	after := c.View()
	assert.Equal(t, before.Items, after.Items)
	assert.Equal(t, before.Totals, after.Totals)
	assert.Equal(t, before.Notes, after.Notes)
	assert.Equal(t, before.ClientID, after.ClientID)
	assert.Equal(t, terr, after.LastError)

	// manual resubmission
	remote.err = nil
	_, err = c.Submit(context.Background(), remote)
	require.NoError(t, err)
	assert.Equal(t, 2, remote.calls)
}

func TestSubmitRejectsReentryAndEdits(t *testing.T) {
	c := validDraft(t)

	var reentry, edit error
	remote := &mockSubmitter{during: func() {
		_, reentry = c.Submit(context.Background(), &mockSubmitter{})
		_, edit = c.UpdateItem(0, FieldQuantity, "5")
	}}

	_, err := c.Submit(context.Background(), remote)
	require.NoError(t, err)
	assert.ErrorIs(t, reentry, ErrSubmissionInFlight)
	assert.ErrorIs(t, edit, ErrSubmissionInFlight)
	assert.Equal(t, 2.0, remote.got[0].Items[0].Quantity)
}

func TestFinishSubmitWithoutBegin(t *testing.T) {
	c := validDraft(t)
	assert.ErrorIs(t, c.FinishSubmit(nil), ErrNotSubmitting)
}

func TestControllerConcurrentReads(t *testing.T) {
	c := validDraft(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = c.UpdateItem(0, FieldQuantity, fmt.Sprint(n+1))
			_ = c.Totals()
		}(i)
	}
	wg.Wait()
	assertTotalsConsistent(t, c)
}

func TestSubmissionInvoiceCreate(t *testing.T) {
	c := validDraft(t)
	require.NoError(t, c.SetNotes("  Net 30  "))
	sub, err := c.BuildSubmission()
	require.NoError(t, err)

	body := sub.InvoiceCreate()
	require.NoError(t, body.Validate())
	assert.Equal(t, "Net 30", body.Notes)
	assert.Equal(t, "137.5", body.Total.String())
	assert.Equal(t, "10", body.Tax.String())
	assert.Equal(t, "100", body.Items[0].Amount.String())
	assert.Equal(t, "2024-02-14", body.DueDate.String())
}

func TestFromExtraction(t *testing.T) {
	data := domain.ExtractedData{
		DueDate: "2024-02-15",
		Notes:   "Net 30 days",
		LineItems: []domain.ExtractedItem{
			{Description: "Website Redesign", Quantity: 1, UnitPrice: 1500, Amount: 1500},
			{Description: "Logo Design", Quantity: 1, UnitPrice: 1500, Amount: 1500},
		},
	}
	fallback := Options{
		Issued:  mustDate(t, "2024-01-15"),
		Due:     mustDate(t, "2024-02-14"),
		TaxRate: 5,
	}

	c := FromExtraction(data, fallback)
	v := c.View()

	assert.Equal(t, "2024-02-15", v.Due.String())
	assert.Equal(t, "2024-01-15", v.Issued.String())
	assert.Equal(t, "Net 30 days", v.Notes)
	assert.Equal(t, 5.0, v.TaxRate)
	require.Len(t, v.Items, 2)
	assert.InDelta(t, 3000.0, v.Totals.Subtotal, 1e-9)
}

func TestFromExtractionEmpty(t *testing.T) {
	fallback := Options{Due: mustDate(t, "2024-02-14")}
	c := FromExtraction(domain.ExtractedData{}, fallback)

	v := c.View()
	require.Len(t, v.Items, 1)
	assert.True(t, v.Items[0].IsBlank())
	assert.Equal(t, "2024-02-14", v.Due.String())
}

func TestControllerOverflowingAmountIsCoerced(t *testing.T) {
	c := New(Options{ClientID: 1, Issued: mustDate(t, "2024-01-15"), Due: mustDate(t, "2024-01-31")})
	_, err := c.UpdateItem(0, FieldDescription, "Huge")
	require.NoError(t, err)

	warn, err := c.UpdateItem(0, FieldQuantity, "1e200")
	require.NoError(t, err)
	assert.Nil(t, warn)

	warn, err = c.UpdateItem(0, FieldUnitPrice, "1e200")
	require.NoError(t, err)
	require.NotNil(t, warn)
	assert.Equal(t, FieldUnitPrice, warn.Field)
	assert.Equal(t, 0.0, warn.Value)

	item := c.Items()[0]
	assert.Equal(t, 1e200, item.Quantity)
	assert.Equal(t, 0.0, item.UnitPrice)
	assert.Equal(t, 0.0, item.Amount)
	assertTotalsConsistent(t, c)

	sub, err := c.BuildSubmission()
	require.NoError(t, err)
	assert.NotPanics(t, func() { sub.InvoiceCreate() })
}

func TestBuildSubmissionRejectsNonFiniteTotals(t *testing.T) {
	m := &mockSubmitter{}
	c := New(Options{
		ClientID: 1,
		Issued:   mustDate(t, "2024-01-15"),
		Due:      mustDate(t, "2024-01-31"),
		Items: []LineItem{
			{Description: "a", Quantity: 1, UnitPrice: math.MaxFloat64, Amount: math.MaxFloat64},
			{Description: "b", Quantity: 1, UnitPrice: math.MaxFloat64, Amount: math.MaxFloat64},
		},
	})
	require.True(t, math.IsInf(c.Totals().Subtotal, 1))

	_, err := c.Submit(context.Background(), m)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Amounts are too large", verr[KeyItems])
	assert.Zero(t, m.calls)
	assert.Equal(t, StateEditing, c.State())
}

func TestSubmitRejectedPayloadIsNotTransportError(t *testing.T) {
	rejected := fmt.Errorf("%w: tax must be between 0 and 100", domain.ErrInvalidInvoice)
	m := &mockSubmitter{err: rejected}
	c := validDraft(t)

	_, err := c.Submit(context.Background(), m)
	require.ErrorIs(t, err, domain.ErrInvalidInvoice)
	var terr *TransportError
	assert.False(t, errors.As(err, &terr))

	v := c.View()
	assert.Equal(t, StateEditing, v.State)
	assert.Equal(t, rejected, v.LastError)
	assert.Len(t, v.Items, 2)
}
