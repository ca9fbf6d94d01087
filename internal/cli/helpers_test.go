package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemFlag(t *testing.T) {
	tests := []struct {
		in               string
		desc, qty, price string
		wantErr          bool
	}{
		{in: "Design:2:50", desc: "Design", qty: "2", price: "50"},
		{in: "Call at 10:30:1:75", desc: "Call at 10:30", qty: "1", price: "75"},
		{in: " Hosting :1:", desc: "Hosting", qty: "1", price: ""},
		{in: "Design:50", wantErr: true},
		{in: ":1:2", wantErr: true},
		{in: "nothing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			desc, qty, price, err := parseItemFlag(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.desc, desc)
			assert.Equal(t, tt.qty, qty)
			assert.Equal(t, tt.price, price)
		})
	}
}

func testDraft() *draft.Controller {
	issued, _ := domain.ParseDate("2024-01-15")
	return draft.New(draft.Options{ClientID: 1, Issued: issued, Due: issued.AddDays(30), TaxRate: 5})
}

func TestApplyDraftFlags(t *testing.T) {
	d := testDraft()
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	warnings, err := applyDraftFlags(d, draftFlags{
		Items:   []string{"Design:2:50", "Hosting:abc:25"},
		Tax:     "10%",
		TaxSet:  true,
		Issued:  "2024-02-01",
		Notes:   "Net 30",
		DueDays: 14,
	}, now)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Index)
	assert.Equal(t, draft.FieldQuantity, warnings[0].Field)

	v := d.View()
	assert.Equal(t, "2024-02-01", v.Issued.String())
	assert.Equal(t, "2024-02-15", v.Due.String())
	assert.Equal(t, 10.0, v.TaxRate)
	assert.Equal(t, "Net 30", v.Notes)
	require.Len(t, v.Items, 2)
	assert.Equal(t, 100.0, v.Items[0].Amount)
	assert.Equal(t, 25.0, v.Items[1].Amount)
	assert.InDelta(t, 137.5, v.Totals.Total, 1e-9)
}

func TestApplyDraftFlagsKeepsDefaults(t *testing.T) {
	d := testDraft()

	_, err := applyDraftFlags(d, draftFlags{Due: "tomorrow"}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	v := d.View()
	assert.Equal(t, "2024-01-15", v.Issued.String())
	assert.Equal(t, "2024-01-16", v.Due.String())
	assert.Equal(t, 5.0, v.TaxRate)
}

func TestApplyDraftFlagsErrors(t *testing.T) {
	now := time.Now()

	_, err := applyDraftFlags(testDraft(), draftFlags{Tax: "150", TaxSet: true}, now)
	assert.ErrorIs(t, err, draft.ErrInvalidTaxRate)

	_, err = applyDraftFlags(testDraft(), draftFlags{Issued: "15/01/2024"}, now)
	assert.Error(t, err)

	_, err = applyDraftFlags(testDraft(), draftFlags{Items: []string{"no price"}}, now)
	assert.Error(t, err)
}

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	printValidation(&buf, draft.ValidationError{
		draft.KeyItems:    "At least one item is required",
		draft.KeyClientID: "Client is required",
	})

	out := buf.String()
	assert.Contains(t, out, "Client:")
	assert.Contains(t, out, "Client is required")
	assert.Contains(t, out, "Items:")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Client")), bytes.Index(buf.Bytes(), []byte("Items")))
}

func TestApplyItemEdits(t *testing.T) {
	d := testDraft()

	warnings, err := applyItemEdits(d, []string{"1.desc=Logo", "1.qty=3", "1.price=200"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	item := d.Items()[0]
	assert.Equal(t, "Logo", item.Description)
	assert.Equal(t, 600.0, item.Amount)

	warnings, err = applyItemEdits(d, []string{"1.quantity=lots"})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, draft.FieldQuantity, warnings[0].Field)
	assert.Equal(t, 200.0, d.Items()[0].Amount)
}

func TestApplyItemEditsErrors(t *testing.T) {
	_, err := applyItemEdits(testDraft(), []string{"2.qty=1"})
	assert.ErrorIs(t, err, draft.ErrIndexOutOfRange)

	_, err = applyItemEdits(testDraft(), []string{"1.colour=red"})
	assert.ErrorIs(t, err, draft.ErrUnknownField)

	for _, raw := range []string{"qty=3", "0.qty=1", "1.qty"} {
		_, err = applyItemEdits(testDraft(), []string{raw})
		assert.Error(t, err, raw)
	}
}
