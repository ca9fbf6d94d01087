package tui

import (
	"context"
	"fmt"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// clientMode represents the current screen mode
type clientMode int

const (
	clientModeList clientMode = iota
	clientModeNew
	clientModeEdit
	clientModeConfirmDelete
)

// form field indices
const (
	fieldName = iota
	fieldEmail
	fieldPhone
	fieldAddress
	fieldCount
)

// ClientsModel displays a navigable list of clients with create/edit forms
type ClientsModel struct {
	app       *app.App
	clients   []domain.Client
	stale     bool
	cursor    int
	loading   bool
	err       error
	statusMsg string

	// Form state
	mode          clientMode
	fields        []textinput.Model
	fieldFocus    int
	editingID     int64 // 0 for new client
	autoNewClient bool  // open new client form after data loads
}

type clientsDataMsg struct {
	clients []domain.Client
	stale   bool
	err     error
}

type clientSavedMsg struct {
	id      int64
	name    string
	created bool
	err     error
}

type clientDeletedMsg struct {
	name string
	err  error
}

// NewClientsModel creates a new clients screen model
func NewClientsModel(a *app.App) tea.Model {
	return &ClientsModel{
		app:     a,
		loading: true,
	}
}

// IsCapturingInput returns true when the form or a confirmation is active
func (m *ClientsModel) IsCapturingInput() bool {
	return m.mode != clientModeList
}

func (m *ClientsModel) Init() tea.Cmd {
	return m.loadClients(false)
}

func (m *ClientsModel) loadClients(refresh bool) tea.Cmd {
	return func() tea.Msg {
		list, err := m.app.ClientService.List(context.Background(), refresh)
		if err != nil {
			return clientsDataMsg{err: err}
		}
		return clientsDataMsg{clients: list.Clients, stale: list.Stale}
	}
}

func (m *ClientsModel) selected() *domain.Client {
	if m.cursor < 0 || m.cursor >= len(m.clients) {
		return nil
	}
	return &m.clients[m.cursor]
}

func (m *ClientsModel) initForm(editing *domain.Client) {
	m.fields = make([]textinput.Model, fieldCount)

	m.fields[fieldName] = textinput.New()
	m.fields[fieldName].Placeholder = "Client name"
	m.fields[fieldName].CharLimit = 100
	m.fields[fieldName].Width = 40

	m.fields[fieldEmail] = textinput.New()
	m.fields[fieldEmail].Placeholder = "billing@example.com"
	m.fields[fieldEmail].CharLimit = 100
	m.fields[fieldEmail].Width = 40

	m.fields[fieldPhone] = textinput.New()
	m.fields[fieldPhone].Placeholder = "Optional"
	m.fields[fieldPhone].CharLimit = 30
	m.fields[fieldPhone].Width = 20

	m.fields[fieldAddress] = textinput.New()
	m.fields[fieldAddress].Placeholder = "Optional"
	m.fields[fieldAddress].CharLimit = 200
	m.fields[fieldAddress].Width = 50

	// Pre-fill for editing
	if editing != nil {
		m.fields[fieldName].SetValue(editing.Name)
		m.fields[fieldEmail].SetValue(editing.Email)
		m.fields[fieldPhone].SetValue(editing.Phone)
		m.fields[fieldAddress].SetValue(editing.Address)
		m.editingID = editing.ID
	} else {
		m.editingID = 0
	}

	m.fieldFocus = fieldName
	m.fields[fieldName].Focus()
}

func (m *ClientsModel) saveClient() tea.Cmd {
	in := domain.NewClientInput(
		m.fields[fieldName].Value(),
		m.fields[fieldEmail].Value(),
		m.fields[fieldPhone].Value(),
		m.fields[fieldAddress].Value(),
	)
	id := m.editingID

	return func() tea.Msg {
		ctx := context.Background()
		if err := in.Validate(); err != nil {
			return clientSavedMsg{err: err}
		}

		var (
			client *domain.Client
			err    error
		)
		if id > 0 {
			client, err = m.app.ClientService.Update(ctx, id, in)
		} else {
			client, err = m.app.ClientService.Create(ctx, in)
		}
		if err != nil {
			return clientSavedMsg{err: err}
		}
		return clientSavedMsg{id: client.ID, name: client.Name, created: id == 0}
	}
}

func (m *ClientsModel) deleteClient(c domain.Client) tea.Cmd {
	return func() tea.Msg {
		err := m.app.ClientService.Delete(context.Background(), c.ID)
		return clientDeletedMsg{name: c.Name, err: err}
	}
}

func (m *ClientsModel) openForm(editing *domain.Client) tea.Cmd {
	if editing != nil {
		m.mode = clientModeEdit
	} else {
		m.mode = clientModeNew
	}
	m.err = nil
	m.initForm(editing)
	return m.fields[fieldName].Focus()
}

func (m *ClientsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle OpenNewClientFormMsg at the top so it works regardless of mode
	if _, ok := msg.(OpenNewClientFormMsg); ok {
		if m.loading {
			// Data hasn't loaded yet; set flag to auto-open form when it does
			m.autoNewClient = true
			return m, nil
		}
		return m, m.openForm(nil)
	}

	switch m.mode {
	case clientModeNew, clientModeEdit:
		return m.updateForm(msg)
	case clientModeConfirmDelete:
		return m.updateConfirm(msg)
	}

	switch msg := msg.(type) {
	case RefreshDataMsg:
		m.loading = true
		return m, m.loadClients(false)

	case clientsDataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.clients = msg.clients
			m.stale = msg.stale
			if m.cursor >= len(m.clients) {
				m.cursor = max(0, len(m.clients)-1)
			}
		}
		// Auto-open new client form on first run
		if m.autoNewClient {
			m.autoNewClient = false
			return m, m.openForm(nil)
		}
		return m, nil

	case clientDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Deleted: %s", msg.name)
		m.loading = true
		return m, m.loadClients(false)

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.clients)-1 {
				m.cursor++
			}
		case key.Matches(msg, DefaultKeyMap.New):
			return m, m.openForm(nil)
		case key.Matches(msg, DefaultKeyMap.Select):
			if c := m.selected(); c != nil {
				return m, m.openForm(c)
			}
		case key.Matches(msg, DefaultKeyMap.Delete):
			if m.selected() != nil {
				m.mode = clientModeConfirmDelete
			}
		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.loadClients(true)
		case msg.String() == "v":
			// Start an invoice for the selected client
			if c := m.selected(); c != nil {
				id := c.ID
				return m, func() tea.Msg { return ComposeForClientMsg{ClientID: id} }
			}
		}
	}

	return m, nil
}

func (m *ClientsModel) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.mode = clientModeList
	c := m.selected()
	if c == nil {
		return m, nil
	}
	switch k.String() {
	case "y", "Y":
		return m, m.deleteClient(*c)
	}
	return m, nil
}

func (m *ClientsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clientSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = clientModeList
		m.statusMsg = fmt.Sprintf("Saved: %s", msg.name)
		m.loading = true
		if msg.created {
			id := msg.id
			return m, tea.Batch(m.loadClients(false), func() tea.Msg { return ClientCreatedMsg{ClientID: id} })
		}
		return m, m.loadClients(false)

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			// Cancel form
			m.mode = clientModeList
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + fieldCount) % fieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			// If on last field or explicit submit, save
			if m.fieldFocus == fieldCount-1 {
				return m, m.saveClient()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveClient()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *ClientsModel) View() string {
	if m.mode == clientModeNew || m.mode == clientModeEdit {
		return m.viewForm()
	}
	return m.viewList()
}

func (m *ClientsModel) viewForm() string {
	var s string

	if m.mode == clientModeNew {
		if len(m.clients) == 0 {
			s += titleStyle.Render("Welcome to invoicer!") + "\n"
			s += subtitleStyle.Render("  Add your first client to start invoicing.") + "\n\n"
		} else {
			s += titleStyle.Render("New Client") + "\n\n"
		}
	} else {
		s += titleStyle.Render("Edit Client") + "\n\n"
	}

	labels := []string{"Name:", "Email:", "Phone:", "Address:"}
	for i, label := range labels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == m.fieldFocus {
			indicator = "> "
			labelStyle = focusedLabelStyle
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	s += errorLine(m.err)
	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}

func (m *ClientsModel) viewList() string {
	if m.loading {
		return "Loading clients..."
	}

	var s string
	s += titleStyle.Render("Clients") + "\n\n"
	s += staleLine(m.stale)
	s += statusLine(m.statusMsg)
	s += errorLine(m.err)

	if len(m.clients) == 0 {
		s += subtitleStyle.Render("  No clients yet. Press 'n' to add one.") + "\n"
		return s
	}

	s += subtitleStyle.Render(fmt.Sprintf("  %-28s  %-30s  %s", "Name", "Email", "Phone")) + "\n"
	for i := range m.clients {
		c := m.clients[i]
		line := fmt.Sprintf("  %-28s  %-30s  %s",
			format.Truncate(c.Name, 28),
			format.Truncate(c.Email, 30),
			c.Phone,
		)
		if i == m.cursor {
			s += selectedStyle.Render(line) + "\n"
		} else {
			s += line + "\n"
		}
	}

	if m.mode == clientModeConfirmDelete {
		if c := m.selected(); c != nil {
			s += "\n" + warnStyle.Render(fmt.Sprintf("  Delete %s? (y/N)", c.Name)) + "\n"
		}
		return s
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  n: new  enter: edit  x: delete  v: invoice client  r: refresh")

	return s
}
