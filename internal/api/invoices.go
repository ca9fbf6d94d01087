package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/andy/invoicer/internal/domain"
)

// InvoicePage is one page of GET /v1/invoices. NextCursor is the id to pass
// as the cursor of the following request, nil when the page was empty.
type InvoicePage struct {
	Invoices   []domain.Invoice
	NextCursor *int64
}

func invoiceQuery(p domain.InvoiceListParams) url.Values {
	q := pageQuery(p.Limit, p.Offset)
	if p.Status != nil {
		q.Set("status", string(*p.Status))
	}
	if p.ClientID != nil {
		q.Set("client_id", strconv.FormatInt(*p.ClientID, 10))
	}
	if p.DueFrom != nil && !p.DueFrom.IsZero() {
		q.Set("due_from", p.DueFrom.String())
	}
	if p.DueTo != nil && !p.DueTo.IsZero() {
		q.Set("due_to", p.DueTo.String())
	}
	if p.Cursor != nil {
		q.Set("cursor", strconv.FormatInt(*p.Cursor, 10))
	}
	return q
}

func (c *Client) ListInvoices(ctx context.Context, params domain.InvoiceListParams) (*InvoicePage, error) {
	var invoices []domain.Invoice
	header, err := c.do(ctx, request{method: http.MethodGet, path: "/invoices", query: invoiceQuery(params)}, &invoices)
	if err != nil {
		return nil, err
	}

	page := &InvoicePage{Invoices: invoices}
	if raw := header.Get("X-Next-Cursor"); raw != "" {
		if cursor, err := strconv.ParseInt(raw, 10, 64); err == nil {
			page.NextCursor = &cursor
		}
	}
	return page, nil
}

func (c *Client) GetInvoice(ctx context.Context, id int64) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := c.get(ctx, fmt.Sprintf("/invoices/%d", id), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice posts a new invoice. A non-empty idempotencyKey is sent as
// the Idempotency-Key header so a retried submission is not duplicated.
func (c *Client) CreateInvoice(ctx context.Context, in domain.InvoiceCreate, idempotencyKey string) (*domain.Invoice, error) {
	body, err := jsonBody(in)
	if err != nil {
		return nil, err
	}
	req := request{
		method: http.MethodPost,
		path:   "/invoices",
		body:   body,
		ctype:  "application/json",
	}
	if idempotencyKey != "" {
		req.headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	var inv domain.Invoice
	if _, err := c.do(ctx, req, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) UpdateInvoice(ctx context.Context, id int64, in domain.InvoiceUpdate) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := c.send(ctx, http.MethodPut, fmt.Sprintf("/invoices/%d", id), in, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) DeleteInvoice(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/invoices/%d", id), nil, nil)
}

// GenerateInvoice creates an invoice server-side from an extraction
func (c *Client) GenerateInvoice(ctx context.Context, in domain.GenerateInvoiceRequest) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := c.send(ctx, http.MethodPost, "/generate-invoice", in, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// SendReminder queues a payment reminder; drafts are marked sent
func (c *Client) SendReminder(ctx context.Context, invoiceID int64) (*domain.ReminderResult, error) {
	var out domain.ReminderResult
	q := url.Values{"invoice_id": {strconv.FormatInt(invoiceID, 10)}}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/send-reminder", query: q}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
