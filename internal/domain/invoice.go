package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceStatuses lists every status the API accepts, in lifecycle order
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
}

// ParseInvoiceStatus validates a status string
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	for _, st := range InvoiceStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown invoice status %q (expected draft, sent, paid or overdue)", s)
}

// Invoice is a persisted invoice as returned by the API.
// Tax is a percentage rate (10 = 10%), not an amount.
type Invoice struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	ClientID    int64           `json:"client_id"`
	Client      *Client         `json:"client,omitempty"`
	IssuedDate  Date            `json:"issued_date"`
	DueDate     Date            `json:"due_date"`
	Items       []InvoiceItem   `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Status      InvoiceStatus   `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	PaymentLink string          `json:"payment_link,omitempty"`
	Currency    string          `json:"currency,omitempty"`
	UserID      int64           `json:"user_id,omitempty"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
}

type InvoiceItem struct {
	ID          int64           `json:"id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// InvoiceCreate is the body of POST /v1/invoices
type InvoiceCreate struct {
	ClientID   int64           `json:"client_id"`
	IssuedDate Date            `json:"issued_date"`
	DueDate    Date            `json:"due_date"`
	Items      []InvoiceItem   `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
	Notes      string          `json:"notes,omitempty"`
}

// InvoiceUpdate is the body of PUT /v1/invoices/{id}; nil fields are left unchanged
type InvoiceUpdate struct {
	ClientID   *int64         `json:"client_id,omitempty"`
	IssuedDate *Date          `json:"issued_date,omitempty"`
	DueDate    *Date          `json:"due_date,omitempty"`
	Items      []InvoiceItem  `json:"items,omitempty"`
	Status     *InvoiceStatus `json:"status,omitempty"`
	Notes      *string        `json:"notes,omitempty"`
}

// InvoiceListParams filters GET /v1/invoices
type InvoiceListParams struct {
	Status   *InvoiceStatus
	ClientID *int64
	Limit    int
	Offset   int
	DueFrom  *Date
	DueTo    *Date
	Cursor   *int64
}

// TaxAmount returns subtotal * tax / 100
func (i *Invoice) TaxAmount() decimal.Decimal {
	return i.Subtotal.Mul(i.Tax).Div(decimal.NewFromInt(100))
}

// CanEdit returns true if the invoice can still be modified
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft
}

// IsOverdue reports whether an unpaid invoice is past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.Status == InvoiceStatusPaid || i.DueDate.IsZero() {
		return false
	}
	return NewDate(now).After(i.DueDate.Time)
}

// ClientName returns the embedded client's name or a placeholder
func (i *Invoice) ClientName() string {
	if i.Client != nil && i.Client.Name != "" {
		return i.Client.Name
	}
	return fmt.Sprintf("Client #%d", i.ClientID)
}

// ErrInvalidInvoice marks a create payload rejected before it is sent
var ErrInvalidInvoice = errors.New("invalid invoice")

// Validate checks a create payload the same way the web form did
func (c *InvoiceCreate) Validate() error {
	if c.ClientID <= 0 {
		return fmt.Errorf("%w: client is required", ErrInvalidInvoice)
	}
	if c.IssuedDate.IsZero() {
		return fmt.Errorf("%w: issued date is required", ErrInvalidInvoice)
	}
	if c.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrInvalidInvoice)
	}
	if c.DueDate.Before(c.IssuedDate) {
		return fmt.Errorf("%w: due date must be on or after issued date", ErrInvalidInvoice)
	}
	if len(c.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInvoice)
	}
	if c.Tax.IsNegative() || c.Tax.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: tax must be between 0 and 100", ErrInvalidInvoice)
	}
	return nil
}

// GenerateInvoiceRequest is the body of POST /v1/generate-invoice. Items,
// dates and totals left empty are derived server-side from the extraction.
type GenerateInvoiceRequest struct {
	ClientID          int64            `json:"client_id"`
	ExtractionID      *int64           `json:"extraction_id,omitempty"`
	Number            string           `json:"number,omitempty"`
	IssuedDate        *Date            `json:"issued_date,omitempty"`
	DueDate           *Date            `json:"due_date,omitempty"`
	Items             []InvoiceItem    `json:"items,omitempty"`
	Tax               *decimal.Decimal `json:"tax,omitempty"`
	Currency          string           `json:"currency,omitempty"`
	CreatePaymentLink bool             `json:"create_payment_link,omitempty"`
	PaymentProvider   PaymentProvider  `json:"payment_provider,omitempty"`
}
