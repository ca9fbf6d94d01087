package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name    string
		items   []LineItem
		taxRate float64
		want    Totals
	}{
		{
			name:    "two items with tax",
			items:   []LineItem{{Description: "a", Amount: 100}, {Description: "b", Amount: 25}},
			taxRate: 10,
			want:    Totals{Subtotal: 125, TaxAmount: 12.5, Total: 137.5},
		},
		{
			name:    "no tax",
			items:   []LineItem{{Description: "a", Amount: 100}},
			taxRate: 0,
			want:    Totals{Subtotal: 100, TaxAmount: 0, Total: 100},
		},
		{
			name:    "blank descriptions still count",
			items:   []LineItem{{Description: "", Amount: 40}, {Description: "b", Amount: 60}},
			taxRate: 50,
			want:    Totals{Subtotal: 100, TaxAmount: 50, Total: 150},
		},
		{
			name:  "empty",
			items: nil,
			want:  Totals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.items, tt.taxRate)
			assert.InDelta(t, tt.want.Subtotal, got.Subtotal, 1e-9)
			assert.InDelta(t, tt.want.TaxAmount, got.TaxAmount, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
		})
	}
}

func TestCalculateDoesNotRound(t *testing.T) {
	got := Calculate([]LineItem{{Amount: 0.1}, {Amount: 0.2}}, 7.5)
	assert.InDelta(t, 0.3*0.075, got.TaxAmount, 1e-12)
	assert.InDelta(t, got.Subtotal+got.TaxAmount, got.Total, 1e-12)
}
