package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenClients
	ScreenInvoices
	ScreenComposer
	ScreenSettings
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenDashboard:
		return "Dashboard"
	case ScreenClients:
		return "Clients"
	case ScreenInvoices:
		return "Invoices"
	case ScreenComposer:
		return "New Invoice"
	case ScreenSettings:
		return "Settings"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	app           *app.App
	currentScreen Screen
	width         int
	height        int

	// Screen models (lazy initialized)
	dashboard tea.Model
	clients   tea.Model
	invoices  tea.Model
	composer  tea.Model
	settings  tea.Model

	// First-run state
	checkedFirstRun bool

	// the composer's draft waits for a client from the new client form
	pickingClient bool

	// Error state
	err     error
	quitMsg string // shown when quit is blocked
}

// New creates a new root model
func New(a *app.App) Model {
	dashboard := NewDashboardModel(a)
	return Model{
		app:           a,
		currentScreen: ScreenDashboard,
		dashboard:     dashboard,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.checkFirstRun(),
	}
	if m.dashboard != nil {
		cmds = append(cmds, m.dashboard.Init())
	}
	return tea.Batch(cmds...)
}

// checkFirstRun checks whether the account has any clients yet
func (m *Model) checkFirstRun() tea.Cmd {
	return func() tea.Msg {
		list, err := m.app.ClientService.List(context.Background(), false)
		if err != nil {
			return firstRunCheckMsg{hasClients: true} // assume yes on error
		}
		return firstRunCheckMsg{hasClients: len(list.Clients) > 0}
	}
}

// initScreen lazy-initializes a screen on first visit,
// and sends a RefreshDataMsg on subsequent visits so screens reload data.
func (m *Model) initScreen(screen Screen) tea.Cmd {
	refresh := func() tea.Msg { return RefreshDataMsg{} }
	switch screen {
	case ScreenDashboard:
		if m.dashboard == nil {
			m.dashboard = NewDashboardModel(m.app)
			return m.dashboard.Init()
		}
		return refresh
	case ScreenClients:
		if m.clients == nil {
			m.clients = NewClientsModel(m.app)
			return m.clients.Init()
		}
		return refresh
	case ScreenInvoices:
		if m.invoices == nil {
			m.invoices = NewInvoicesModel(m.app)
			return m.invoices.Init()
		}
		return refresh
	case ScreenComposer:
		if m.composer == nil {
			m.composer = NewComposerModel(m.app)
			return m.composer.Init()
		}
		return refresh
	case ScreenSettings:
		if m.settings == nil {
			m.settings = NewSettingsModel(m.app)
			return m.settings.Init()
		}
		return refresh
	}
	return nil
}

// InputCapturer is implemented by screens that capture keyboard input (e.g. text forms).
// When active, global navigation keys (D, C, I, W, Q) are suppressed.
type InputCapturer interface {
	IsCapturingInput() bool
}

func (m *Model) activeScreen() tea.Model {
	switch m.currentScreen {
	case ScreenDashboard:
		return m.dashboard
	case ScreenClients:
		return m.clients
	case ScreenInvoices:
		return m.invoices
	case ScreenComposer:
		return m.composer
	case ScreenSettings:
		return m.settings
	}
	return nil
}

// activeScreenCapturingInput returns true if the current screen is capturing text input
func (m *Model) activeScreenCapturingInput() bool {
	if ic, ok := m.activeScreen().(InputCapturer); ok {
		return ic.IsCapturingInput()
	}
	return false
}

// submitting reports whether the composer has a submission in flight
func (m *Model) submitting() bool {
	c, ok := m.composer.(*ComposerModel)
	return ok && c.Submitting()
}

func (m Model) switchTo(screen Screen) (Model, tea.Cmd) {
	// Leaving the composer discards its draft; one in flight finishes first.
	leaving := m.currentScreen == ScreenComposer || m.pickingClient
	if c, ok := m.composer.(*ComposerModel); ok && leaving && screen != ScreenComposer && !c.Submitting() {
		c.startDraft(0)
	}
	m.pickingClient = false
	m.currentScreen = screen
	m.err = nil
	return m, m.initScreen(screen)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.submitting() {
		m.quitMsg = "An invoice is being submitted. Wait for it to finish before quitting."
		return m, nil
	}
	return m, tea.Quit
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Clear quit warning on any keypress
		m.quitMsg = ""

		// ctrl+c always reaches the root, even from a form
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

		// Skip global navigation when a screen is capturing text input
		if !m.activeScreenCapturingInput() {
			switch {
			case key.Matches(msg, DefaultKeyMap.Quit):
				return m.quit()

			case key.Matches(msg, DefaultKeyMap.Dashboard):
				return m.switchTo(ScreenDashboard)

			case key.Matches(msg, DefaultKeyMap.Clients):
				return m.switchTo(ScreenClients)

			case key.Matches(msg, DefaultKeyMap.Invoices):
				return m.switchTo(ScreenInvoices)

			case key.Matches(msg, DefaultKeyMap.Compose):
				return m.switchTo(ScreenComposer)

			case key.Matches(msg, DefaultKeyMap.Settings):
				return m.switchTo(ScreenSettings)
			}
		}

	case firstRunCheckMsg:
		if !m.checkedFirstRun && !msg.hasClients {
			m.checkedFirstRun = true
			m.currentScreen = ScreenClients
			initCmd := m.initScreen(ScreenClients)
			openFormCmd := func() tea.Msg { return OpenNewClientFormMsg{} }
			return m, tea.Batch(initCmd, openFormCmd)
		}
		m.checkedFirstRun = true
		return m, nil

	case SwitchScreenMsg:
		return m.switchTo(msg.Screen)

	case PickNewClientMsg:
		m.pickingClient = true
		m.currentScreen = ScreenClients
		m.err = nil
		openFormCmd := func() tea.Msg { return OpenNewClientFormMsg{} }
		return m, tea.Batch(m.initScreen(ScreenClients), openFormCmd)

	case ClientCreatedMsg:
		c, ok := m.composer.(*ComposerModel)
		if !m.pickingClient || !ok {
			return m, nil
		}
		m.pickingClient = false
		m.currentScreen = ScreenComposer
		return m, c.selectClient(msg.ClientID)

	case ComposeForClientMsg:
		// The composer keeps one draft; a new client starts a fresh one.
		m.currentScreen = ScreenComposer
		if m.composer == nil {
			m.composer = NewComposerModel(m.app)
		}
		c := m.composer.(*ComposerModel)
		return m, tea.Batch(c.Init(), c.startDraft(msg.ClientID))

	case ErrorMsg:
		m.err = msg.Err
		return m, nil
	}

	// Route message to current screen
	var cmd tea.Cmd
	switch m.currentScreen {
	case ScreenDashboard:
		if m.dashboard != nil {
			m.dashboard, cmd = m.dashboard.Update(msg)
		}
	case ScreenClients:
		if m.clients != nil {
			m.clients, cmd = m.clients.Update(msg)
		}
	case ScreenInvoices:
		if m.invoices != nil {
			m.invoices, cmd = m.invoices.Update(msg)
		}
	case ScreenComposer:
		if m.composer != nil {
			m.composer, cmd = m.composer.Update(msg)
		}
	case ScreenSettings:
		if m.settings != nil {
			m.settings, cmd = m.settings.Update(msg)
		}
	}

	// A submission finishing after the user left the composer must still land.
	if res, ok := msg.(submitResultMsg); ok && m.currentScreen != ScreenComposer && m.composer != nil {
		var extra tea.Cmd
		m.composer, extra = m.composer.Update(res)
		cmd = tea.Batch(cmd, extra)
	}

	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("invoicer - %s", m.currentScreen.String()))
	if u := m.app.Session.Current().User; u != nil {
		header += subtitleStyle.Render("  " + u.DisplayName())
	}

	footer := footerStyle.Render("[D]ashboard  [C]lients  [I]nvoices  [W]rite invoice  [,] Settings  [Q]uit")

	content := "Loading..."
	if screen := m.activeScreen(); screen != nil {
		content = screen.View()
	}

	// Error/warning display
	errorDisplay := ""
	if m.quitMsg != "" {
		errorDisplay = warnStyle.Render(fmt.Sprintf("\n%s", m.quitMsg))
	} else if m.err != nil {
		errorDisplay = errorStyle.Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(borderColor).Render(
		strings.Repeat("─", dividerWidth),
	)

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4) // leave room for border top/bottom
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI
func Run(a *app.App) error {
	p := tea.NewProgram(New(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
