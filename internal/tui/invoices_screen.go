package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/render"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type invoiceViewMode int

const (
	invoiceViewList   invoiceViewMode = iota
	invoiceViewDetail                 // Viewing a single invoice
	invoiceViewConfirmDelete
)

// InvoicesModel displays invoices in list and detail views
type InvoicesModel struct {
	app       *app.App
	mode      invoiceViewMode
	invoices  []domain.Invoice
	filter    *domain.InvoiceStatus
	cursor    int
	selected  *domain.Invoice
	loading   bool
	busy      bool // an action on the selected invoice is running
	err       error
	statusMsg string
}

// IsCapturingInput returns true while a delete confirmation is pending
func (m *InvoicesModel) IsCapturingInput() bool {
	return m.mode == invoiceViewConfirmDelete
}

type invoicesDataMsg struct {
	invoices []domain.Invoice
	err      error
}

type invoiceDetailMsg struct {
	invoice *domain.Invoice
	err     error
}

// invoiceActionMsg reports the outcome of an action on the selected invoice.
// invoice is the refreshed invoice when the action changed it.
type invoiceActionMsg struct {
	invoice *domain.Invoice
	status  string
	deleted bool
	err     error
}

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	return &InvoicesModel{
		app:     a,
		mode:    invoiceViewList,
		loading: true,
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	return m.loadInvoices()
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	filter := m.filter
	return func() tea.Msg {
		invoices, err := m.app.InvoiceService.ListAll(context.Background(), nil, filter)
		return invoicesDataMsg{invoices: invoices, err: err}
	}
}

func (m *InvoicesModel) loadDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		inv, err := m.app.InvoiceService.Get(context.Background(), id)
		return invoiceDetailMsg{invoice: inv, err: err}
	}
}

func (m *InvoicesModel) setStatus(id int64, status domain.InvoiceStatus) tea.Cmd {
	return func() tea.Msg {
		inv, err := m.app.InvoiceService.UpdateStatus(context.Background(), id, status)
		if errors.Is(err, service.ErrInvoiceStatusSame) {
			return invoiceActionMsg{status: fmt.Sprintf("Already %s", status)}
		}
		if err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{invoice: inv, status: fmt.Sprintf("Marked %s", status)}
	}
}

func (m *InvoicesModel) remind(inv domain.Invoice) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.app.InvoiceService.SendReminder(context.Background(), inv.ID); err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{status: fmt.Sprintf("Reminder queued for %s", inv.ClientName())}
	}
}

func (m *InvoicesModel) export(id int64, f render.Format) tea.Cmd {
	dir := m.app.Config.Invoice.OutputDir
	return func() tea.Msg {
		doc, err := m.app.Document(context.Background(), id)
		if err != nil {
			return invoiceActionMsg{err: err}
		}
		path, err := render.Export(doc, f, dir)
		if err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{status: "Exported to " + path}
	}
}

func (m *InvoicesModel) delete(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.app.InvoiceService.Delete(context.Background(), id); err != nil {
			return invoiceActionMsg{err: err}
		}
		return invoiceActionMsg{status: "Invoice deleted", deleted: true}
	}
}

// nextFilter cycles all -> draft -> sent -> paid -> overdue -> all
func nextFilter(cur *domain.InvoiceStatus) *domain.InvoiceStatus {
	if cur == nil {
		s := domain.InvoiceStatuses[0]
		return &s
	}
	for i, st := range domain.InvoiceStatuses {
		if st == *cur && i+1 < len(domain.InvoiceStatuses) {
			next := domain.InvoiceStatuses[i+1]
			return &next
		}
	}
	return nil
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		m.mode = invoiceViewList
		return m, m.loadInvoices()

	case invoicesDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.invoices = msg.invoices
			if m.cursor >= len(m.invoices) {
				m.cursor = max(0, len(m.invoices)-1)
			}
		}
		return m, nil

	case invoiceDetailMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selected = msg.invoice
		m.mode = invoiceViewDetail
		return m, nil

	case invoiceActionMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = msg.status
		if msg.deleted {
			m.selected = nil
			m.mode = invoiceViewList
			m.loading = true
			return m, m.loadInvoices()
		}
		if msg.invoice != nil {
			m.selected = msg.invoice
			m.replace(*msg.invoice)
		}
		return m, nil

	case tea.KeyMsg:
		if m.loading || m.busy {
			return m, nil
		}
		switch m.mode {
		case invoiceViewDetail:
			return m.updateDetail(msg)
		case invoiceViewConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

// replace swaps the listed copy of inv after an update
func (m *InvoicesModel) replace(inv domain.Invoice) {
	for i := range m.invoices {
		if m.invoices[i].ID == inv.ID {
			m.invoices[i] = inv
			return
		}
	}
}

func (m *InvoicesModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	m.err = nil

	switch {
	case key.Matches(msg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
	case key.Matches(msg, DefaultKeyMap.Select):
		if m.cursor < len(m.invoices) {
			m.busy = true
			return m, m.loadDetail(m.invoices[m.cursor].ID)
		}
	case key.Matches(msg, DefaultKeyMap.Refresh):
		m.loading = true
		return m, m.loadInvoices()
	case msg.String() == "f":
		m.filter = nextFilter(m.filter)
		m.cursor = 0
		m.loading = true
		return m, m.loadInvoices()
	}
	return m, nil
}

func (m *InvoicesModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	inv := m.selected
	if inv == nil {
		m.mode = invoiceViewList
		return m, nil
	}
	m.statusMsg = ""
	m.err = nil

	switch {
	case key.Matches(msg, DefaultKeyMap.Back):
		m.mode = invoiceViewList
		return m, nil
	case msg.String() == "s":
		m.busy = true
		return m, m.setStatus(inv.ID, domain.InvoiceStatusSent)
	case msg.String() == "p":
		m.busy = true
		return m, m.setStatus(inv.ID, domain.InvoiceStatusPaid)
	case msg.String() == "o":
		m.busy = true
		return m, m.setStatus(inv.ID, domain.InvoiceStatusOverdue)
	case msg.String() == "m":
		m.busy = true
		return m, m.remind(*inv)
	case msg.String() == "e":
		m.busy = true
		return m, m.export(inv.ID, render.FormatPDF)
	case msg.String() == "t":
		m.busy = true
		return m, m.export(inv.ID, render.FormatText)
	case key.Matches(msg, DefaultKeyMap.Delete):
		m.mode = invoiceViewConfirmDelete
	}
	return m, nil
}

func (m *InvoicesModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = invoiceViewDetail
	if m.selected != nil && (msg.String() == "y" || msg.String() == "Y") {
		m.busy = true
		return m, m.delete(m.selected.ID)
	}
	return m, nil
}

func (m *InvoicesModel) View() string {
	if m.loading {
		return "Loading..."
	}

	switch m.mode {
	case invoiceViewDetail, invoiceViewConfirmDelete:
		return m.viewDetail()
	default:
		return m.viewList()
	}
}

func (m *InvoicesModel) viewList() string {
	var s string
	title := "Invoices"
	if m.filter != nil {
		title += subtitleStyle.Render(fmt.Sprintf("  (%s only)", *m.filter))
	}
	s += titleStyle.Render(title) + "\n\n"
	s += statusLine(m.statusMsg)
	s += errorLine(m.err)

	if len(m.invoices) == 0 && m.err == nil {
		s += subtitleStyle.Render("  No invoices here. Press 'w' to write one.") + "\n"
		s += "\n" + helpStyle.Render("  f: filter by status  r: refresh")
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-12s  %-22s  %-12s  %14s  %s",
		"Number", "Client", "Due", "Total", "Status",
	)) + "\n"

	for i := range m.invoices {
		inv := &m.invoices[i]
		line := fmt.Sprintf("  %-12s  %-22s  %-12s  %14s  %s",
			format.Truncate(inv.Number, 12),
			format.Truncate(inv.ClientName(), 22),
			format.Date(inv.DueDate),
			formatMoney(m.app, inv, inv.Total),
			statusBadge(inv.Status),
		)
		if i == m.cursor {
			s += selectedStyle.Render(line) + "\n"
		} else {
			s += line + "\n"
		}
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: view detail  f: filter by status  r: refresh")

	return s
}

func (m *InvoicesModel) viewDetail() string {
	inv := m.selected
	if inv == nil {
		return "No invoice selected"
	}

	var s string
	s += titleStyle.Render(fmt.Sprintf("Invoice %s", inv.Number)) + "\n\n"
	s += statusLine(m.statusMsg)
	s += errorLine(m.err)

	due := format.Date(inv.DueDate)
	if inv.IsOverdue(time.Now()) {
		due += "  " + errorStyle.Render("past due")
	}
	s += fmt.Sprintf("  Client:   %s\n", inv.ClientName())
	s += fmt.Sprintf("  Issued:   %s\n", format.Date(inv.IssuedDate))
	s += fmt.Sprintf("  Due:      %s\n", due)
	s += fmt.Sprintf("  Status:   %s\n", statusBadge(inv.Status))
	if inv.PaymentLink != "" {
		s += fmt.Sprintf("  Pay at:   %s\n", inv.PaymentLink)
	}
	s += "\n"

	if len(inv.Items) == 0 {
		s += subtitleStyle.Render("  No line items") + "\n"
	} else {
		s += subtitleStyle.Render(fmt.Sprintf(
			"  %-36s  %8s  %14s  %14s",
			"Description", "Qty", "Unit Price", "Amount",
		)) + "\n"

		for _, item := range inv.Items {
			s += fmt.Sprintf("  %-36s  %8s  %14s  %14s\n",
				format.Truncate(item.Description, 36),
				format.Number(item.Quantity),
				formatMoney(m.app, inv, item.UnitPrice),
				formatMoney(m.app, inv, item.Amount),
			)
		}
	}

	s += "\n"
	s += fmt.Sprintf("  Subtotal:      %14s\n", formatMoney(m.app, inv, inv.Subtotal))
	s += fmt.Sprintf("  Tax (%s): %14s\n", format.Percent(inv.Tax), formatMoney(m.app, inv, inv.TaxAmount()))
	s += lipgloss.NewStyle().Bold(true).Render(
		fmt.Sprintf("  Total:         %14s", formatMoney(m.app, inv, inv.Total)),
	) + "\n"

	if inv.Notes != "" {
		s += "\n" + subtitleStyle.Render("  Notes") + "\n"
		s += "  " + inv.Notes + "\n"
	}

	if m.mode == invoiceViewConfirmDelete {
		s += "\n" + warnStyle.Render(fmt.Sprintf("  Delete %s? (y/N)", inv.Number)) + "\n"
		return s
	}
	if m.busy {
		s += "\n" + subtitleStyle.Render("  Working...") + "\n"
		return s
	}

	s += "\n" + helpStyle.Render("  s: mark sent  p: mark paid  o: mark overdue  m: remind  e: export PDF  t: export text  x: delete  esc: back")

	return s
}
