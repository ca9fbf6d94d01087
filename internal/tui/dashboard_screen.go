package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

const dashboardRecent = 8

// DashboardModel represents the dashboard home screen
type DashboardModel struct {
	app *app.App

	stats   *service.DashboardStats
	loading bool
	err     error
}

type dashboardDataMsg struct {
	stats *service.DashboardStats
	err   error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(a *app.App) tea.Model {
	return &DashboardModel{
		app:     a,
		loading: true,
	}
}

func (m *DashboardModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *DashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.app.DashboardService.Stats(context.Background(), dashboardRecent)
		return dashboardDataMsg{stats: stats, err: err}
	}
}

func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.stats = msg.stats
		}
		return m, nil

	case RefreshDataMsg:
		m.loading = true
		return m, m.loadData()

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadData()
		}
	}
	return m, nil
}

func (m *DashboardModel) View() string {
	if m.loading {
		return "Loading dashboard..."
	}
	if m.err != nil {
		return errorLine(m.err) + helpStyle.Render("  r: retry")
	}
	if m.stats == nil {
		return subtitleStyle.Render("  Nothing to show yet")
	}

	st := m.stats
	currency := m.app.Config.Invoice.Currency

	var s string
	s += staleLine(st.Stale)

	summary := fmt.Sprintf(
		"  Revenue:      %-16s  Clients:   %d\n  Outstanding:  %-16s  Invoices:  %d",
		format.Money(st.Revenue, currency), st.TotalClients,
		format.Money(st.Outstanding, currency), st.TotalInvoices,
	)
	s += boxStyle.Render(summary) + "\n\n"

	s += fmt.Sprintf("  %s %d   %s %d   %s %d\n",
		statusBadge("paid"), st.Paid,
		subtitleStyle.Render("UNPAID"), st.Unpaid,
		statusBadge("overdue"), st.Overdue,
	)

	s += "\n" + m.renderRecent()
	s += "\n" + helpStyle.Render("  r: refresh  w: write a new invoice")
	return s
}

func (m *DashboardModel) renderRecent() string {
	header := "  Recent Invoices\n"
	if len(m.stats.Recent) == 0 {
		return header + subtitleStyle.Render("  No invoices yet") + "\n"
	}

	now := time.Now()
	s := header
	for i := range m.stats.Recent {
		inv := &m.stats.Recent[i]
		due := format.Date(inv.DueDate)
		if rel := format.Relative(inv.DueDate, now); rel != "" && inv.Status != "paid" {
			due += " (" + rel + ")"
		}
		s += fmt.Sprintf("  %-12s %-20s %14s  %-8s  %s\n",
			format.Truncate(inv.Number, 12),
			format.Truncate(inv.ClientName(), 20),
			formatMoney(m.app, inv, inv.Total),
			statusBadge(inv.Status),
			due,
		)
	}
	return s
}
