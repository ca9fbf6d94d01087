package draft

// Totals are the derived money values of a draft. They are never stored
// on their own; rounding belongs to display formatting.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// Calculate sums every item's amount (blank descriptions included) and
// applies taxRate as a percentage.
func Calculate(items []LineItem, taxRate float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Amount
	}
	taxAmount := subtotal * taxRate / 100
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal + taxAmount,
	}
}
