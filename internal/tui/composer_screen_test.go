package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInvoices implements the parts of service.InvoiceService the composer uses
type fakeInvoices struct {
	service.InvoiceService
	created []draft.Submission
	fail    error
}

func (f *fakeInvoices) NewDraft(clientID int64) *draft.Controller {
	issued := domain.NewDate(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	return draft.New(draft.Options{
		ClientID: clientID,
		Issued:   issued,
		Due:      issued.AddDays(30),
		TaxRate:  10,
	})
}

func (f *fakeInvoices) CreateInvoice(ctx context.Context, sub draft.Submission) (*domain.Invoice, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created = append(f.created, sub)
	return &domain.Invoice{
		ID:       int64(len(f.created)),
		Number:   "INV-0001",
		ClientID: sub.ClientID,
		Total:    decimal.NewFromFloat(sub.Totals.Total),
	}, nil
}

func newTestComposer(t *testing.T, invoices *fakeInvoices) *ComposerModel {
	t.Helper()
	a := &app.App{
		Config:         &config.Config{Invoice: config.InvoiceConfig{Currency: "USD"}},
		InvoiceService: invoices,
	}
	m := NewComposerModel(a).(*ComposerModel)
	m.now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }
	m.Update(composerClientsMsg{clients: []domain.Client{
		{ID: 3, Name: "Acme Corp"},
		{ID: 4, Name: "Globex"},
	}})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	tab       = tea.KeyMsg{Type: tea.KeyTab}
	backspace = tea.KeyMsg{Type: tea.KeyBackspace}
	right     = tea.KeyMsg{Type: tea.KeyRight}
	left      = tea.KeyMsg{Type: tea.KeyLeft}
	ctrlS     = tea.KeyMsg{Type: tea.KeyCtrlS}
	ctrlN     = tea.KeyMsg{Type: tea.KeyCtrlN}
	ctrlD     = tea.KeyMsg{Type: tea.KeyCtrlD}
)

// press sends msgs in order and returns the command of the last one
func press(m *ComposerModel, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

// fillFirstItem selects Acme and types "Design", 2 x 150 into the first row
func fillFirstItem(m *ComposerModel) {
	press(m, right, tab, tab, tab, tab, tab)
	press(m, runes("Design"), tab, backspace, runes("2"), tab, backspace, runes("150"))
}

func TestComposerCyclesClients(t *testing.T) {
	m := newTestComposer(t, &fakeInvoices{})
	assert.False(t, m.IsCapturingInput())

	press(m, right)
	assert.Equal(t, int64(3), m.draft.View().ClientID)
	press(m, right)
	assert.Equal(t, int64(4), m.draft.View().ClientID)
	press(m, right)
	assert.Equal(t, int64(3), m.draft.View().ClientID)
	press(m, left)
	assert.Equal(t, int64(4), m.draft.View().ClientID)

	assert.Contains(t, m.View(), "Globex")
}

func TestComposerEditsItemsWithLiveTotals(t *testing.T) {
	m := newTestComposer(t, &fakeInvoices{})
	fillFirstItem(m)

	assert.True(t, m.IsCapturingInput())
	items := m.draft.Items()
	require.Len(t, items, 1)
	assert.Equal(t, draft.LineItem{Description: "Design", Quantity: 2, UnitPrice: 150, Amount: 300}, items[0])

	totals := m.draft.Totals()
	assert.InDelta(t, 300, totals.Subtotal, 1e-9)
	assert.InDelta(t, 30, totals.TaxAmount, 1e-9)
	assert.InDelta(t, 330, totals.Total, 1e-9)

	view := m.View()
	assert.Contains(t, view, "$330.00")
	assert.Contains(t, view, "Design")
}

func TestComposerCoercionWarning(t *testing.T) {
	m := newTestComposer(t, &fakeInvoices{})
	press(m, tab, tab, tab, tab, tab, tab) // quantity cell of row 1

	press(m, backspace)
	assert.Equal(t, 1.0, m.draft.Items()[0].Quantity)
	assert.Contains(t, m.warning, "quantity")

	press(m, runes("3"))
	assert.Equal(t, 3.0, m.draft.Items()[0].Quantity)
	assert.Empty(t, m.warning)
}

func TestComposerSubmitsOnce(t *testing.T) {
	invoices := &fakeInvoices{}
	m := newTestComposer(t, invoices)
	fillFirstItem(m)

	cmd := press(m, ctrlS)
	require.NotNil(t, cmd)
	assert.True(t, m.Submitting())
	assert.Contains(t, m.View(), "submitting")

	// a second ctrl+s while in flight does nothing
	assert.Nil(t, press(m, ctrlS))

	press(m, cmd())

	require.Len(t, invoices.created, 1)
	sub := invoices.created[0]
	assert.Equal(t, int64(3), sub.ClientID)
	assert.Equal(t, 10.0, sub.TaxRate)
	assert.InDelta(t, 330, sub.Totals.Total, 1e-9)

	// a fresh draft for the same client replaces the submitted one
	assert.False(t, m.Submitting())
	v := m.draft.View()
	assert.Equal(t, draft.StateEditing, v.State)
	assert.Equal(t, int64(3), v.ClientID)
	assert.True(t, v.Items[0].IsBlank())
	assert.Contains(t, m.statusMsg, "INV-0001")
}

func TestComposerKeepsDraftOnTransportError(t *testing.T) {
	invoices := &fakeInvoices{fail: errors.New("connection refused")}
	m := newTestComposer(t, invoices)
	fillFirstItem(m)

	cmd := press(m, ctrlS)
	require.NotNil(t, cmd)
	press(m, cmd())

	v := m.draft.View()
	assert.Equal(t, draft.StateEditing, v.State)
	assert.Equal(t, "Design", v.Items[0].Description)
	var terr *draft.TransportError
	require.ErrorAs(t, v.LastError, &terr)
	assert.Contains(t, m.View(), "ctrl+s to retry")

	invoices.fail = nil
	cmd = press(m, ctrlS)
	require.NotNil(t, cmd)
	press(m, cmd())
	assert.Len(t, invoices.created, 1)
}

func TestComposerShowsValidationErrors(t *testing.T) {
	invoices := &fakeInvoices{}
	m := newTestComposer(t, invoices)

	assert.Nil(t, press(m, ctrlS))
	assert.False(t, m.Submitting())
	assert.Empty(t, invoices.created)

	errs := m.draft.View().Errors
	assert.True(t, errs.Has(draft.KeyClientID))
	assert.True(t, errs.Has(draft.KeyItems))

	view := m.View()
	assert.Contains(t, view, "Client is required")
	assert.Contains(t, view, "At least one item is required")

	// choosing a client clears its error
	press(m, right)
	assert.False(t, m.draft.View().Errors.Has(draft.KeyClientID))
}

func TestComposerRejectsBadTaxAndDates(t *testing.T) {
	invoices := &fakeInvoices{}
	m := newTestComposer(t, invoices)
	fillFirstItem(m)

	// back to the tax field
	press(m, tea.KeyMsg{Type: tea.KeyEsc}, tab, tab, tab)
	press(m, runes("x"))
	assert.Equal(t, 10.0, m.draft.View().TaxRate)
	assert.Contains(t, m.View(), "Enter a percentage between 0 and 100")

	assert.Nil(t, press(m, ctrlS))
	assert.EqualError(t, m.err, "fix the highlighted fields first")

	press(m, backspace, backspace, backspace, runes("5"))
	assert.Equal(t, 5.0, m.draft.View().TaxRate)

	// a malformed issued date keeps the previous one
	press(m, tea.KeyMsg{Type: tea.KeyEsc}, tab, runes("x"))
	assert.Equal(t, "2024-01-15", m.draft.View().Issued.String())
	assert.Contains(t, m.View(), "Use YYYY-MM-DD")

	press(m, backspace)
	assert.NotNil(t, press(m, ctrlS))
}

func TestComposerAddRemoveItems(t *testing.T) {
	m := newTestComposer(t, &fakeInvoices{})

	press(m, ctrlN)
	assert.Len(t, m.draft.Items(), 2)
	assert.Equal(t, composerItems, m.focus)
	assert.Equal(t, 1, m.row)

	press(m, ctrlD)
	assert.Len(t, m.draft.Items(), 1)
	assert.Equal(t, 0, m.row)

	press(m, ctrlD)
	assert.Len(t, m.draft.Items(), 1)
	assert.Equal(t, "An invoice keeps at least one line", m.statusMsg)
}

func TestRootBlocksQuitWhileSubmitting(t *testing.T) {
	invoices := &fakeInvoices{}
	c := newTestComposer(t, invoices)
	fillFirstItem(c)
	require.NotNil(t, press(c, ctrlS))

	root := Model{app: c.app, currentScreen: ScreenComposer, composer: c}
	next, cmd := root.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Nil(t, cmd)
	assert.Contains(t, next.(Model).quitMsg, "being submitted")
}

func TestNextFilterCycles(t *testing.T) {
	var f *domain.InvoiceStatus
	var seen []string
	for i := 0; i < len(domain.InvoiceStatuses)+1; i++ {
		f = nextFilter(f)
		if f == nil {
			seen = append(seen, "all")
			continue
		}
		seen = append(seen, string(*f))
	}
	assert.Equal(t, []string{"draft", "sent", "paid", "overdue", "all"}, seen)
}

func TestLeavingComposerDiscardsDraft(t *testing.T) {
	c := newTestComposer(t, &fakeInvoices{})
	fillFirstItem(c)
	press(c, tea.KeyMsg{Type: tea.KeyEsc})

	root := Model{app: c.app, currentScreen: ScreenComposer, composer: c, dashboard: &DashboardModel{app: c.app}}
	next, _ := root.Update(runes("d"))
	assert.Equal(t, ScreenDashboard, next.(Model).currentScreen)

	v := c.draft.View()
	assert.Equal(t, int64(0), v.ClientID)
	assert.True(t, v.Items[0].IsBlank())
}

func TestNewClientFromComposerKeepsDraft(t *testing.T) {
	c := newTestComposer(t, &fakeInvoices{})
	fillFirstItem(c)
	press(c, tea.KeyMsg{Type: tea.KeyEsc})

	cmd := press(c, runes("+"))
	require.NotNil(t, cmd)
	require.IsType(t, PickNewClientMsg{}, cmd())

	root := Model{app: c.app, currentScreen: ScreenComposer, composer: c}
	next, _ := root.Update(PickNewClientMsg{})
	root = next.(Model)
	assert.Equal(t, ScreenClients, root.currentScreen)
	assert.Equal(t, "Design", c.draft.Items()[0].Description)

	next, _ = root.Update(ClientCreatedMsg{ClientID: 9})
	root = next.(Model)
	assert.Equal(t, ScreenComposer, root.currentScreen)
	v := c.draft.View()
	assert.Equal(t, int64(9), v.ClientID)
	assert.Equal(t, "Design", v.Items[0].Description)
}
