package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/format"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// composerFocus is the focused part of the composer. Everything after
// composerNotes is a cell of the item table.
type composerFocus int

const (
	composerClient composerFocus = iota
	composerIssued
	composerDue
	composerTax
	composerNotes
	composerItems
)

// item table columns, in tab order
var itemColumns = []draft.ItemField{draft.FieldDescription, draft.FieldQuantity, draft.FieldUnitPrice}

// keyTax marks a tax input that could not be applied
const keyTax = "tax"

type composerClientsMsg struct {
	clients []domain.Client
	err     error
}

// submitResultMsg carries the outcome of a draft submission
type submitResultMsg struct {
	invoice *domain.Invoice
	err     error
}

// ComposerModel edits one invoice draft. The draft controller owns every
// value; the text inputs only hold what the user is typing.
type ComposerModel struct {
	app   *app.App
	draft *draft.Controller
	now   func() time.Time

	clients []domain.Client

	focus    composerFocus
	row, col int

	issued textinput.Model
	due    textinput.Model
	tax    textinput.Model
	notes  textinput.Model
	cell   textinput.Model

	// input that could not be applied to the draft, keyed like draft.ValidationError
	inputErrs map[string]string
	warning   string
	statusMsg string
	err       error
}

// NewComposerModel creates the composer with an empty draft
func NewComposerModel(a *app.App) tea.Model {
	m := &ComposerModel{
		app:    a,
		now:    time.Now,
		issued: newComposerInput("YYYY-MM-DD", 20, 12),
		due:    newComposerInput("YYYY-MM-DD", 20, 12),
		tax:    newComposerInput("0", 6, 8),
		notes:  newComposerInput("Payment terms, bank details...", 500, 50),
		cell:   newComposerInput("", 200, 30),
	}
	m.reset(a.InvoiceService.NewDraft(0))
	return m
}

func newComposerInput(placeholder string, limit, width int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = width
	in.Prompt = ""
	return in
}

// IsCapturingInput is false only while the client selector has focus, so the
// global keys can leave the composer from there.
func (m *ComposerModel) IsCapturingInput() bool {
	return m.focus != composerClient
}

// Submitting reports whether a submission is in flight
func (m *ComposerModel) Submitting() bool {
	return m.draft.State() == draft.StateSubmitting
}

func (m *ComposerModel) Init() tea.Cmd {
	return m.loadClients(false)
}

func (m *ComposerModel) loadClients(refresh bool) tea.Cmd {
	return func() tea.Msg {
		list, err := m.app.ClientService.List(context.Background(), refresh)
		if err != nil {
			return composerClientsMsg{err: err}
		}
		return composerClientsMsg{clients: list.Clients}
	}
}

// startDraft replaces the current draft with a fresh one for clientID
func (m *ComposerModel) startDraft(clientID int64) tea.Cmd {
	if m.Submitting() {
		m.statusMsg = ""
		m.err = errors.New("wait for the current submission to finish")
		return nil
	}
	m.reset(m.app.InvoiceService.NewDraft(clientID))
	return nil
}

func (m *ComposerModel) reset(d *draft.Controller) {
	m.draft = d
	m.inputErrs = map[string]string{}
	m.warning = ""
	m.err = nil

	v := d.View()
	m.issued.SetValue(format.ISODate(v.Issued))
	m.due.SetValue(format.ISODate(v.Due))
	m.tax.SetValue(formatFloat(v.TaxRate))
	m.notes.SetValue(v.Notes)
	m.setFocus(composerClient, 0, 0)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func cellValue(item draft.LineItem, col int) string {
	switch itemColumns[col] {
	case draft.FieldQuantity:
		return formatFloat(item.Quantity)
	case draft.FieldUnitPrice:
		return formatFloat(item.UnitPrice)
	default:
		return item.Description
	}
}

// setFocus moves focus and loads the cell input when an item cell is focused
func (m *ComposerModel) setFocus(f composerFocus, row, col int) tea.Cmd {
	for _, in := range []*textinput.Model{&m.issued, &m.due, &m.tax, &m.notes, &m.cell} {
		in.Blur()
	}
	m.focus, m.row, m.col = f, row, col

	switch f {
	case composerIssued:
		return m.issued.Focus()
	case composerDue:
		return m.due.Focus()
	case composerTax:
		return m.tax.Focus()
	case composerNotes:
		return m.notes.Focus()
	case composerItems:
		items := m.draft.Items()
		if m.row >= len(items) {
			m.row = len(items) - 1
		}
		m.cell.SetValue(cellValue(items[m.row], m.col))
		m.cell.CursorEnd()
		return m.cell.Focus()
	}
	return nil
}

func (m *ComposerModel) next() tea.Cmd {
	switch {
	case m.focus < composerNotes:
		return m.setFocus(m.focus+1, 0, 0)
	case m.focus == composerNotes:
		return m.setFocus(composerItems, 0, 0)
	}
	row, col := m.row, m.col+1
	if col == len(itemColumns) {
		row, col = row+1, 0
	}
	if row >= len(m.draft.Items()) {
		return m.setFocus(composerClient, 0, 0)
	}
	return m.setFocus(composerItems, row, col)
}

func (m *ComposerModel) prev() tea.Cmd {
	switch {
	case m.focus == composerClient:
		last := len(m.draft.Items()) - 1
		return m.setFocus(composerItems, last, len(itemColumns)-1)
	case m.focus < composerItems:
		return m.setFocus(m.focus-1, 0, 0)
	}
	row, col := m.row, m.col-1
	if col < 0 {
		row, col = row-1, len(itemColumns)-1
	}
	if row < 0 {
		return m.setFocus(composerNotes, 0, 0)
	}
	return m.setFocus(composerItems, row, col)
}

func (m *ComposerModel) clientIndex(id int64) int {
	for i := range m.clients {
		if m.clients[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *ComposerModel) cycleClient(step int) {
	if len(m.clients) == 0 {
		return
	}
	i := m.clientIndex(m.draft.View().ClientID)
	switch {
	case i < 0:
		i = 0
	default:
		i = (i + step + len(m.clients)) % len(m.clients)
	}
	if err := m.draft.SetClient(m.clients[i].ID); err != nil {
		m.err = err
	}
}

// selectClient puts a client created from the picker into the draft
func (m *ComposerModel) selectClient(id int64) tea.Cmd {
	if err := m.draft.SetClient(id); err != nil {
		m.err = err
	}
	m.setFocus(composerClient, 0, 0)
	return m.loadClients(true)
}

func (m *ComposerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		return m, m.loadClients(false)

	case composerClientsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.clients = msg.clients
		return m, nil

	case submitResultMsg:
		return m, m.finishSubmit(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *ComposerModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	if m.err != nil && !m.Submitting() {
		m.err = nil
	}

	switch msg.String() {
	case "ctrl+s":
		return m, m.submit()
	case "tab":
		return m, m.next()
	case "shift+tab":
		return m, m.prev()
	case "esc":
		return m, m.setFocus(composerClient, 0, 0)
	case "ctrl+n":
		return m, m.addItem()
	case "ctrl+d":
		if m.focus == composerItems {
			return m, m.removeItem()
		}
	}

	if m.Submitting() {
		return m, nil
	}

	switch m.focus {
	case composerClient:
		return m, m.updateClientField(msg)
	case composerItems:
		switch msg.String() {
		case "up":
			if m.row > 0 {
				return m, m.setFocus(composerItems, m.row-1, m.col)
			}
			return m, nil
		case "down":
			if m.row < len(m.draft.Items())-1 {
				return m, m.setFocus(composerItems, m.row+1, m.col)
			}
			return m, nil
		case "enter":
			// enter on the last cell opens a new row
			if m.row == len(m.draft.Items())-1 && m.col == len(itemColumns)-1 {
				return m, m.addItem()
			}
			return m, m.next()
		}
	default:
		if msg.String() == "enter" {
			return m, m.next()
		}
	}

	return m, m.updateInput(msg)
}

func (m *ComposerModel) updateClientField(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		m.cycleClient(-1)
	case "right", "l", " ":
		m.cycleClient(1)
	case "enter", "down", "j":
		return m.next()
	case "+":
		return func() tea.Msg { return PickNewClientMsg{} }
	case "ctrl+r":
		return m.startDraft(m.draft.View().ClientID)
	}
	return nil
}

// updateInput feeds the key to the focused input and applies the result to the draft
func (m *ComposerModel) updateInput(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case composerIssued:
		m.issued, cmd = m.issued.Update(msg)
		m.applyDates()
	case composerDue:
		m.due, cmd = m.due.Update(msg)
		m.applyDates()
	case composerTax:
		m.tax, cmd = m.tax.Update(msg)
		m.applyTax()
	case composerNotes:
		m.notes, cmd = m.notes.Update(msg)
		if err := m.draft.SetNotes(m.notes.Value()); err != nil {
			m.err = err
		}
	case composerItems:
		m.cell, cmd = m.cell.Update(msg)
		m.applyCell()
	}
	return cmd
}

func (m *ComposerModel) parseDate(in textinput.Model, key string, fallback domain.Date) domain.Date {
	raw := strings.TrimSpace(in.Value())
	if raw == "" {
		delete(m.inputErrs, key)
		return domain.Date{}
	}
	d, err := format.ParseDate(raw, m.now())
	if err != nil {
		m.inputErrs[key] = "Use YYYY-MM-DD"
		return fallback
	}
	delete(m.inputErrs, key)
	return d
}

func (m *ComposerModel) applyDates() {
	v := m.draft.View()
	issued := m.parseDate(m.issued, draft.KeyIssuedDate, v.Issued)
	due := m.parseDate(m.due, draft.KeyDueDate, v.Due)
	if err := m.draft.SetDates(issued, due); err != nil {
		m.err = err
	}
}

func (m *ComposerModel) applyTax() {
	rate, err := draft.ParseTaxRate(m.tax.Value())
	if err != nil {
		m.inputErrs[keyTax] = "Enter a percentage between 0 and 100"
		return
	}
	delete(m.inputErrs, keyTax)
	if err := m.draft.SetTaxRate(rate); err != nil {
		m.err = err
	}
}

func (m *ComposerModel) applyCell() {
	warn, err := m.draft.UpdateItem(m.row, itemColumns[m.col], m.cell.Value())
	if err != nil {
		m.err = err
		return
	}
	m.warning = ""
	if warn != nil {
		m.warning = warn.Error()
	}
}

func (m *ComposerModel) addItem() tea.Cmd {
	i, err := m.draft.AddItem()
	if err != nil {
		m.err = err
		return nil
	}
	return m.setFocus(composerItems, i, 0)
}

func (m *ComposerModel) removeItem() tea.Cmd {
	removed, err := m.draft.RemoveItem(m.row)
	if err != nil {
		m.err = err
		return nil
	}
	if !removed {
		m.statusMsg = "An invoice keeps at least one line"
		return nil
	}
	m.warning = ""
	return m.setFocus(composerItems, min(m.row, len(m.draft.Items())-1), m.col)
}

// submit validates the draft and, when it passes, sends it in the background.
// The draft stays in the submitting state until the result arrives, so a
// second ctrl+s is ignored.
func (m *ComposerModel) submit() tea.Cmd {
	if m.Submitting() {
		return nil
	}
	if len(m.inputErrs) > 0 {
		m.err = errors.New("fix the highlighted fields first")
		return nil
	}

	sub, err := m.draft.BeginSubmit()
	if err != nil {
		var verr draft.ValidationError
		if errors.As(err, &verr) {
			m.err = errors.New("fix the highlighted fields first")
		} else {
			m.err = err
		}
		return nil
	}

	invoices := m.app.InvoiceService
	return func() tea.Msg {
		inv, err := invoices.CreateInvoice(context.Background(), sub)
		return submitResultMsg{invoice: inv, err: err}
	}
}

func (m *ComposerModel) finishSubmit(msg submitResultMsg) tea.Cmd {
	if err := m.draft.FinishSubmit(msg.err); err != nil {
		// The draft is untouched; LastError is rendered from the view.
		return nil
	}

	clientID := m.draft.View().ClientID
	m.reset(m.app.InvoiceService.NewDraft(clientID))
	if msg.invoice != nil {
		m.statusMsg = fmt.Sprintf("Created invoice %s (%s)", msg.invoice.Number,
			formatMoney(m.app, msg.invoice, msg.invoice.Total))
	}
	return nil
}

func (m *ComposerModel) clientLabel(id int64) string {
	if id <= 0 {
		if len(m.clients) == 0 {
			return subtitleStyle.Render("no clients yet, press + to add one")
		}
		return subtitleStyle.Render("choose with ←/→")
	}
	if i := m.clientIndex(id); i >= 0 {
		return m.clients[i].Name
	}
	return fmt.Sprintf("Client #%d", id)
}

func (m *ComposerModel) label(f composerFocus, text string) string {
	if m.focus == f {
		return "> " + focusedLabelStyle.Render(text)
	}
	return "  " + subtitleStyle.Render(text)
}

// fieldError returns the first message for keys, preferring local input problems
func (m *ComposerModel) fieldError(errs draft.ValidationError, keys ...string) string {
	for _, k := range keys {
		if msg, ok := m.inputErrs[k]; ok {
			return "  " + fieldErrorStyle.Render(msg)
		}
		if errs.Has(k) {
			return "  " + fieldErrorStyle.Render(errs[k])
		}
	}
	return ""
}

func (m *ComposerModel) View() string {
	v := m.draft.View()
	currency := m.app.Config.Invoice.Currency

	var s string
	title := titleStyle.Render("New Invoice")
	if v.State == draft.StateSubmitting {
		title += "  " + warnStyle.Render("submitting...")
	}
	s += title + "\n\n"

	client := m.clientLabel(v.ClientID)
	if m.focus == composerClient {
		client = "◀ " + client + " ▶"
	}
	s += fmt.Sprintf("%s  %s%s\n", m.label(composerClient, "Client:  "), client, m.fieldError(v.Errors, draft.KeyClientID))

	due := m.due.View()
	if rel := format.Relative(v.Due, m.now()); rel != "" && m.fieldError(v.Errors, draft.KeyDueDate) == "" {
		due += "  " + subtitleStyle.Render(rel)
	}
	s += fmt.Sprintf("%s  %s%s\n", m.label(composerIssued, "Issued:  "), m.issued.View(), m.fieldError(v.Errors, draft.KeyIssuedDate))
	s += fmt.Sprintf("%s  %s%s\n", m.label(composerDue, "Due:     "), due, m.fieldError(v.Errors, draft.KeyDueDate))
	s += fmt.Sprintf("%s  %s%s\n", m.label(composerTax, "Tax (%): "), m.tax.View(), m.fieldError(v.Errors, keyTax))
	s += fmt.Sprintf("%s  %s\n\n", m.label(composerNotes, "Notes:   "), m.notes.View())

	s += m.viewItems(v, currency)

	s += "\n"
	s += fmt.Sprintf("  %48s  %16s\n", "Subtotal:", format.MoneyFloat(v.Totals.Subtotal, currency))
	s += fmt.Sprintf("  %48s  %16s\n", fmt.Sprintf("Tax (%s%%):", formatFloat(v.TaxRate)), format.MoneyFloat(v.Totals.TaxAmount, currency))
	s += totalStyle.Render(fmt.Sprintf("  %48s  %16s", "Total:", format.MoneyFloat(v.Totals.Total, currency))) + "\n\n"

	if m.warning != "" {
		s += warnStyle.Render("  "+m.warning) + "\n\n"
	}
	s += statusLine(m.statusMsg)
	s += errorLine(m.err)
	if v.LastError != nil && v.State == draft.StateEditing {
		s += errorLine(v.LastError)
		var terr *draft.TransportError
		if errors.As(v.LastError, &terr) {
			s += subtitleStyle.Render("  Your draft is unchanged. Press ctrl+s to retry.") + "\n\n"
		}
	}

	if m.focus == composerClient {
		s += helpStyle.Render("  ←/→: client  +: new client  enter/tab: edit fields  ctrl+s: create  ctrl+r: start over")
	} else {
		s += helpStyle.Render("  tab/shift+tab: move  ctrl+n: add line  ctrl+d: remove line  ctrl+s: create  esc: back to client")
	}
	return s
}

func (m *ComposerModel) viewItems(v draft.View, currency string) string {
	s := subtitleStyle.Render(fmt.Sprintf("  %-3s %-32s %8s %14s %16s", "#", "Description", "Qty", "Unit Price", "Amount")) + "\n"

	for i, item := range v.Items {
		cells := make([]string, len(itemColumns))
		for c := range itemColumns {
			if m.focus == composerItems && m.row == i && m.col == c {
				cells[c] = m.cell.View()
				continue
			}
			cells[c] = cellValue(item, c)
			if c == 0 {
				cells[c] = format.Truncate(cells[c], 32)
			}
		}

		marker := "  "
		if m.focus == composerItems && m.row == i {
			marker = "> "
		}
		line := fmt.Sprintf("%s%-3d %-32s %8s %14s %16s",
			marker,
			i+1,
			cells[0],
			cells[1],
			cells[2],
			format.MoneyFloat(item.Amount, currency),
		)
		if m.focus == composerItems && m.row == i {
			line = focusedLabelStyle.Render(line)
		}
		s += line + "\n"
	}

	if msg := m.fieldError(v.Errors, draft.KeyItems); msg != "" {
		s += msg + "\n"
	}
	return s
}
