// Package draft holds the in-memory state of an invoice being composed:
// the line item collection, the derived totals and the controller that
// mediates every edit and the hand-off to the remote API.
package draft

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/andy/invoicer/internal/domain"
	"github.com/shopspring/decimal"
)

// State is the submission state of a draft
type State int

const (
	StateEditing State = iota
	StateSubmitting
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Submission is the validated, normalized payload handed to the remote API.
// Items never contain blank descriptions; the totals cover Items only.
type Submission struct {
	ClientID   int64
	IssuedDate domain.Date
	DueDate    domain.Date
	Items      []LineItem
	TaxRate    float64
	Notes      string
	Totals     Totals
}

// InvoiceCreate converts the submission to the API request body
func (s Submission) InvoiceCreate() domain.InvoiceCreate {
	items := make([]domain.InvoiceItem, len(s.Items))
	for i, it := range s.Items {
		items[i] = domain.InvoiceItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    decimal.NewFromFloat(it.Quantity),
			UnitPrice:   decimal.NewFromFloat(it.UnitPrice),
			Amount:      decimal.NewFromFloat(it.Amount),
		}
	}
	return domain.InvoiceCreate{
		ClientID:   s.ClientID,
		IssuedDate: s.IssuedDate,
		DueDate:    s.DueDate,
		Items:      items,
		Subtotal:   decimal.NewFromFloat(s.Totals.Subtotal),
		Tax:        decimal.NewFromFloat(s.TaxRate),
		Total:      decimal.NewFromFloat(s.Totals.Total),
		Notes:      s.Notes,
	}
}

// Submitter persists a submission. Implemented by the invoice service.
type Submitter interface {
	CreateInvoice(ctx context.Context, sub Submission) (*domain.Invoice, error)
}

// Options seed a new draft
type Options struct {
	ClientID int64
	Issued   domain.Date
	Due      domain.Date
	TaxRate  float64
	Notes    string
	Items    []LineItem
}

// View is a consistent snapshot of a draft for rendering
type View struct {
	ClientID  int64
	Issued    domain.Date
	Due       domain.Date
	TaxRate   float64
	Notes     string
	Items     []LineItem
	Totals    Totals
	State     State
	Errors    ValidationError
	LastError error
}

// Controller is the single writable owner of one invoice draft. Every
// mutation that touches quantities, prices, the tax rate or the item list
// leaves the totals recomputed.
type Controller struct {
	mu sync.Mutex

	clientID int64
	issued   domain.Date
	due      domain.Date
	items    *Items
	taxRate  float64
	notes    string

	totals  Totals
	state   State
	errs    ValidationError
	lastErr error
}

// New creates a draft from opts. An invalid tax rate in opts is replaced by 0.
func New(opts Options) *Controller {
	c := &Controller{
		clientID: opts.ClientID,
		issued:   opts.Issued,
		due:      opts.Due,
		items:    NewItems(opts.Items...),
		notes:    opts.Notes,
		state:    StateEditing,
	}
	if validTaxRate(opts.TaxRate) {
		c.taxRate = opts.TaxRate
	}
	c.recalculate()
	return c
}

// FromExtraction seeds a draft from an extraction result. Extracted amounts
// are kept as-is; fallback supplies dates, client and tax when the
// extraction has none.
func FromExtraction(data domain.ExtractedData, fallback Options) *Controller {
	opts := fallback
	opts.Items = nil
	for _, it := range data.LineItems {
		item := LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		}
		if item.Quantity <= 0 {
			item.Quantity = defaultQuantity
		}
		opts.Items = append(opts.Items, item)
	}
	if due, err := domain.ParseDate(data.DueDate); err == nil && !due.IsZero() {
		opts.Due = due
	}
	if validTaxRate(data.Tax) && data.Tax > 0 {
		opts.TaxRate = data.Tax
	}
	if data.Notes != "" {
		opts.Notes = data.Notes
	}
	return New(opts)
}

func (c *Controller) recalculate() {
	c.totals = Calculate(c.items.items, c.taxRate)
}

// editable must be called with mu held
func (c *Controller) editable() error {
	switch c.state {
	case StateSubmitting:
		return ErrSubmissionInFlight
	case StateDiscarded:
		return ErrDiscarded
	}
	return nil
}

func (c *Controller) clearError(keys ...string) {
	for _, k := range keys {
		delete(c.errs, k)
	}
}

// SetClient replaces the selected client. Validated at submission.
func (c *Controller) SetClient(clientID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.clientID = clientID
	c.clearError(KeyClientID)
	return nil
}

// SetDates replaces both dates. Ordering is only checked at submission.
func (c *Controller) SetDates(issued, due domain.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.issued = issued
	c.due = due
	c.clearError(KeyIssuedDate, KeyDueDate)
	return nil
}

// SetTaxRate stores a percentage in [0, 100]. Anything else is rejected with
// ErrInvalidTaxRate and the previous rate is kept.
func (c *Controller) SetTaxRate(rate float64) error {
	if !validTaxRate(rate) {
		return fmt.Errorf("%w: %v", ErrInvalidTaxRate, rate)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.taxRate = rate
	c.recalculate()
	return nil
}

// ParseTaxRate parses raw tax input. An empty string means 0.
func ParseTaxRate(raw string) (float64, error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if raw == "" {
		return 0, nil
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !validTaxRate(rate) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTaxRate, raw)
	}
	return rate, nil
}

func validTaxRate(rate float64) bool {
	return !math.IsNaN(rate) && rate >= 0 && rate <= 100
}

// UpdateItem sets one field of item index from raw input. Quantity and unit
// price edits rederive the item's amount from the updated values and then
// the totals. A non-nil warning means the input was coerced.
func (c *Controller) UpdateItem(index int, field ItemField, value string) (*CoercionWarning, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return nil, err
	}

	warn, err := c.items.UpdateField(index, field, value)
	if err != nil {
		return nil, err
	}
	if field == FieldQuantity || field == FieldUnitPrice {
		if err := c.items.Recompute(index); err != nil {
			return nil, err
		}
		if !finite(c.items.items[index].Amount) {
			warn = c.items.resetField(index, field, value)
		}
		c.recalculate()
	}
	c.clearError(KeyItems)
	return warn, nil
}

// AddItem appends a blank item and returns its index
func (c *Controller) AddItem() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return 0, err
	}
	i := c.items.Add()
	c.recalculate()
	return i, nil
}

// RemoveItem removes item index. Removing the only item is a no-op that
// reports false.
func (c *Controller) RemoveItem(index int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return false, err
	}
	removed, err := c.items.RemoveAt(index)
	if err != nil || !removed {
		return false, err
	}
	c.recalculate()
	return true, nil
}

// SetNotes replaces the free-text notes
func (c *Controller) SetNotes(notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	c.notes = notes
	return nil
}

// Totals returns the current derived totals
func (c *Controller) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totals
}

// Items returns a copy of the current items
func (c *Controller) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.All()
}

// State returns the submission state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot of the whole draft
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := make(ValidationError, len(c.errs))
	for k, v := range c.errs {
		errs[k] = v
	}
	return View{
		ClientID:  c.clientID,
		Issued:    c.issued,
		Due:       c.due,
		TaxRate:   c.taxRate,
		Notes:     c.notes,
		Items:     c.items.All(),
		Totals:    c.totals,
		State:     c.state,
		Errors:    errs,
		LastError: c.lastErr,
	}
}

// BuildSubmission validates the draft and returns the normalized payload.
// On failure the returned error is a ValidationError; the draft itself is
// not modified beyond remembering the errors for display.
func (c *Controller) BuildSubmission() (Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buildLocked()
}

func (c *Controller) buildLocked() (Submission, error) {
	errs := ValidationError{}

	if c.clientID <= 0 {
		errs[KeyClientID] = "Client is required"
	}
	if c.issued.IsZero() {
		errs[KeyIssuedDate] = "Issued date is required"
	}
	if c.due.IsZero() {
		errs[KeyDueDate] = "Due date is required"
	} else if !c.issued.IsZero() && c.due.Before(c.issued) {
		errs[KeyDueDate] = "Due date must be on or after issued date"
	}

	items := make([]LineItem, 0, c.items.Len())
	for _, it := range c.items.items {
		if it.IsBlank() {
			continue
		}
		it.Description = strings.TrimSpace(it.Description)
		items = append(items, it)
	}
	totals := Calculate(items, c.taxRate)
	if len(items) == 0 {
		errs[KeyItems] = "At least one item is required"
	} else if !finiteAmounts(items, totals) {
		errs[KeyItems] = "Amounts are too large"
	}

	if len(errs) > 0 {
		c.errs = errs
		return Submission{}, errs
	}
	c.errs = nil

	return Submission{
		ClientID:   c.clientID,
		IssuedDate: c.issued,
		DueDate:    c.due,
		Items:      items,
		TaxRate:    c.taxRate,
		Notes:      strings.TrimSpace(c.notes),
		Totals:     totals,
	}, nil
}

func finiteAmounts(items []LineItem, t Totals) bool {
	for _, it := range items {
		if !finite(it.Amount) {
			return false
		}
	}
	return finite(t.Subtotal) && finite(t.TaxAmount) && finite(t.Total)
}

// BeginSubmit validates the draft and moves it to submitting. Only one
// submission may be in flight; the caller must report the outcome through
// FinishSubmit.
func (c *Controller) BeginSubmit() (Submission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return Submission{}, err
	}
	sub, err := c.buildLocked()
	if err != nil {
		return Submission{}, err
	}
	c.state = StateSubmitting
	c.lastErr = nil
	return sub, nil
}

// FinishSubmit records the outcome of the in-flight submission. A non-nil
// err returns the draft to editing, unchanged. A payload rejected before
// sending (domain.ErrInvalidInvoice) is returned as is; anything else is
// wrapped in a TransportError. Success discards the draft.
func (c *Controller) FinishSubmit(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitting {
		return ErrNotSubmitting
	}
	if err != nil {
		c.state = StateEditing
		c.lastErr = err
		if !errors.Is(err, domain.ErrInvalidInvoice) {
			c.lastErr = &TransportError{Err: err}
		}
		return c.lastErr
	}
	c.state = StateDiscarded
	return nil
}

// Submit runs BeginSubmit, hands the payload to s and records the outcome.
// Validation failures never reach s.
func (c *Controller) Submit(ctx context.Context, s Submitter) (*domain.Invoice, error) {
	sub, err := c.BeginSubmit()
	if err != nil {
		return nil, err
	}
	inv, err := s.CreateInvoice(ctx, sub)
	if ferr := c.FinishSubmit(err); ferr != nil {
		return nil, ferr
	}
	return inv, nil
}
