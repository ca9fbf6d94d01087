package draft

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ItemField names an editable column of a line item
type ItemField string

const (
	FieldDescription ItemField = "description"
	FieldQuantity    ItemField = "quantity"
	FieldUnitPrice   ItemField = "unit_price"
)

// ParseItemField accepts the wire names plus the short aliases desc, qty and price
func ParseItemField(s string) (ItemField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "description", "desc":
		return FieldDescription, nil
	case "quantity", "qty":
		return FieldQuantity, nil
	case "unit_price", "unitprice", "price":
		return FieldUnitPrice, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Fallbacks applied when numeric input cannot be used
const (
	defaultQuantity  = 1.0
	defaultUnitPrice = 0.0
)

// LineItem is one billable row. Amount is derived from Quantity*UnitPrice
// whenever either changes; a seeded amount is kept until then.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Amount      float64
}

// NewLineItem returns the blank row appended by Add
func NewLineItem() LineItem {
	return LineItem{Quantity: defaultQuantity, UnitPrice: defaultUnitPrice}
}

// IsBlank reports whether the description is empty after trimming
func (li LineItem) IsBlank() bool {
	return strings.TrimSpace(li.Description) == ""
}

func (li *LineItem) recompute() {
	li.Amount = li.Quantity * li.UnitPrice
}

// Items is the ordered line item collection of one draft. It never becomes
// empty: removing the last remaining item is a no-op.
type Items struct {
	items []LineItem
}

// NewItems builds a collection from seed rows, or a single blank row when none are given
func NewItems(seed ...LineItem) *Items {
	c := &Items{items: make([]LineItem, 0, max(len(seed), 1))}
	c.items = append(c.items, seed...)
	if len(c.items) == 0 {
		c.items = append(c.items, NewLineItem())
	}
	return c
}

// Len returns the number of items
func (c *Items) Len() int {
	return len(c.items)
}

// At returns a copy of the item at index i
func (c *Items) At(i int) (LineItem, error) {
	if i < 0 || i >= len(c.items) {
		return LineItem{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return c.items[i], nil
}

// All returns a copy of every item in insertion order
func (c *Items) All() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Add appends a blank item and returns its index
func (c *Items) Add() int {
	c.items = append(c.items, NewLineItem())
	return len(c.items) - 1
}

// RemoveAt removes the item at index i. It reports false without changing
// anything when only one item is left.
func (c *Items) RemoveAt(i int) (bool, error) {
	if i < 0 || i >= len(c.items) {
		return false, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if len(c.items) == 1 {
		return false, nil
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true, nil
}

// UpdateField sets one field from raw user input. Numeric input that cannot
// be used is coerced and reported through the returned warning. The item's
// amount is NOT recomputed here; see Recompute.
func (c *Items) UpdateField(i int, field ItemField, value string) (*CoercionWarning, error) {
	if i < 0 || i >= len(c.items) {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	item := &c.items[i]

	switch field {
	case FieldDescription:
		item.Description = value
		return nil, nil
	case FieldQuantity:
		q, warn := parseQuantity(value)
		item.Quantity = q
		return warn.at(i), nil
	case FieldUnitPrice:
		p, warn := parseUnitPrice(value)
		item.UnitPrice = p
		return warn.at(i), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// Recompute rederives the amount of item i from its quantity and unit price
func (c *Items) Recompute(i int) error {
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	c.items[i].recompute()
	return nil
}

// resetField puts field of item i back to its fallback after input that
// parsed but produced an amount too large to represent
func (c *Items) resetField(i int, field ItemField, raw string) *CoercionWarning {
	item := &c.items[i]
	warn := &CoercionWarning{Index: i, Field: field, Input: raw}
	switch field {
	case FieldQuantity:
		item.Quantity = defaultQuantity
		warn.Value = defaultQuantity
	case FieldUnitPrice:
		item.UnitPrice = defaultUnitPrice
		warn.Value = defaultUnitPrice
	}
	item.recompute()
	return warn
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseQuantity(raw string) (float64, *CoercionWarning) {
	v, ok := parseNumber(raw)
	if !ok || v <= 0 {
		return defaultQuantity, &CoercionWarning{Field: FieldQuantity, Input: raw, Value: defaultQuantity}
	}
	return v, nil
}

func parseUnitPrice(raw string) (float64, *CoercionWarning) {
	v, ok := parseNumber(raw)
	if !ok || v < 0 {
		return defaultUnitPrice, &CoercionWarning{Field: FieldUnitPrice, Input: raw, Value: defaultUnitPrice}
	}
	return v, nil
}

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
