package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/draft"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type settingsMode int

const (
	settingsModeView settingsMode = iota
	settingsModeEdit
)

// settings form field indices
const (
	settingsFieldAPIURL = iota
	settingsFieldCurrency
	settingsFieldDueDays
	settingsFieldTaxRate
	settingsFieldOutputDir
	settingsFieldName
	settingsFieldEmail
	settingsFieldAddress
	settingsFieldCount
)

var settingsLabels = []string{
	"API URL:", "Currency:", "Default Due Days:", "Tax Rate (%):",
	"Output Directory:", "Your Name:", "Your Email:", "Your Address:",
}

type settingsSavedMsg struct {
	restart bool
	err     error
}

// SettingsModel manages the settings screen
type SettingsModel struct {
	app        *app.App
	mode       settingsMode
	fields     []textinput.Model
	fieldFocus int
	err        error
	statusMsg  string
}

// NewSettingsModel creates a new settings screen
func NewSettingsModel(a *app.App) tea.Model {
	return &SettingsModel{
		app:  a,
		mode: settingsModeView,
	}
}

// IsCapturingInput returns true when the edit form is active
func (m *SettingsModel) IsCapturingInput() bool {
	return m.mode == settingsModeEdit
}

func (m *SettingsModel) Init() tea.Cmd {
	return nil
}

func newSettingsInput(placeholder, value string, limit, width int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = width
	in.SetValue(value)
	return in
}

func (m *SettingsModel) initForm() {
	cfg := m.app.Config
	m.fields = make([]textinput.Model, settingsFieldCount)
	m.fields[settingsFieldAPIURL] = newSettingsInput("https://api.example.com", cfg.API.BaseURL, 256, 50)
	m.fields[settingsFieldCurrency] = newSettingsInput("NGN", cfg.Invoice.Currency, 3, 5)
	m.fields[settingsFieldDueDays] = newSettingsInput("30", strconv.Itoa(cfg.Invoice.DefaultDueDays), 5, 10)
	m.fields[settingsFieldTaxRate] = newSettingsInput("0", strconv.FormatFloat(cfg.Invoice.DefaultTaxRate, 'f', -1, 64), 10, 10)
	m.fields[settingsFieldOutputDir] = newSettingsInput("/path/to/invoices", cfg.Invoice.OutputDir, 256, 50)
	m.fields[settingsFieldName] = newSettingsInput("Printed in the From block", cfg.User.Name, 100, 40)
	m.fields[settingsFieldEmail] = newSettingsInput("you@example.com", cfg.User.Email, 100, 40)
	m.fields[settingsFieldAddress] = newSettingsInput("Optional", cfg.User.Address, 200, 50)

	m.fieldFocus = settingsFieldAPIURL
	m.fields[settingsFieldAPIURL].Focus()
}

func (m *SettingsModel) value(i int) string {
	return strings.TrimSpace(m.fields[i].Value())
}

func (m *SettingsModel) saveSettings() tea.Cmd {
	// Applied on the update loop: View reads the same config.
	result := m.applySettings()
	return func() tea.Msg { return result }
}

func (m *SettingsModel) applySettings() settingsSavedMsg {
	apiURL := m.value(settingsFieldAPIURL)
	currency := strings.ToUpper(m.value(settingsFieldCurrency))
	dueDaysStr := m.value(settingsFieldDueDays)
	taxRateStr := m.value(settingsFieldTaxRate)
	outputDir := m.value(settingsFieldOutputDir)
	name := m.value(settingsFieldName)
	email := m.value(settingsFieldEmail)
	address := m.value(settingsFieldAddress)

	if outputDir == "" {
		return settingsSavedMsg{err: fmt.Errorf("output directory is required")}
	}

	dueDays, err := strconv.Atoi(dueDaysStr)
	if err != nil || dueDays < 0 {
		return settingsSavedMsg{err: fmt.Errorf("due days must be zero or a positive number")}
	}

	taxRate, err := draft.ParseTaxRate(taxRateStr)
	if err != nil {
		return settingsSavedMsg{err: err}
	}

	cfg := m.app.Config
	prev := *cfg
	restart := apiURL != cfg.API.BaseURL

	cfg.API.BaseURL = apiURL
	cfg.Invoice.Currency = currency
	cfg.Invoice.DefaultDueDays = dueDays
	cfg.Invoice.DefaultTaxRate = taxRate
	cfg.Invoice.OutputDir = outputDir
	cfg.User.Name = name
	cfg.User.Email = email
	cfg.User.Address = address

	if err := m.app.SaveConfig(); err != nil {
		*cfg = prev
		return settingsSavedMsg{err: fmt.Errorf("failed to save config: %w", err)}
	}

	m.app.InvoiceService.SetDefaults(service.InvoiceDefaults{
		DueDays:  dueDays,
		TaxRate:  taxRate,
		Currency: currency,
	})
	return settingsSavedMsg{restart: restart}
}

func (m *SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.mode == settingsModeEdit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		if msg.String() == "enter" {
			m.mode = settingsModeEdit
			m.statusMsg = ""
			m.initForm()
			return m, m.fields[m.fieldFocus].Focus()
		}
	}

	return m, nil
}

func (m *SettingsModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = settingsModeView
		m.statusMsg = "Settings saved"
		if msg.restart {
			m.statusMsg += " (restart to use the new API URL)"
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = settingsModeView
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + settingsFieldCount) % settingsFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == settingsFieldCount-1 {
				return m, m.saveSettings()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveSettings()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *SettingsModel) View() string {
	if m.mode == settingsModeEdit {
		return m.viewForm()
	}
	return m.viewSettings()
}

func (m *SettingsModel) viewSettings() string {
	var s string
	s += titleStyle.Render("Settings") + "\n\n"
	s += statusLine(m.statusMsg)

	cfg := m.app.Config

	labelStyle := lipgloss.NewStyle().Bold(true).Width(22)
	valueStyle := lipgloss.NewStyle().Foreground(primaryColor)
	row := func(label, value string) string {
		if value == "" {
			value = subtitleStyle.Render("(not set)")
		} else {
			value = valueStyle.Render(value)
		}
		return fmt.Sprintf("  %s %s\n", labelStyle.Render(label), value)
	}

	s += subtitleStyle.Render("  Connection") + "\n\n"
	s += row("API URL:", cfg.API.BaseURL)
	s += row("Config File:", m.app.ConfigPath)

	s += "\n" + subtitleStyle.Render("  Invoice Defaults") + "\n\n"
	s += row("Currency:", cfg.Invoice.Currency)
	s += row("Default Due Days:", strconv.Itoa(cfg.Invoice.DefaultDueDays))
	s += row("Default Tax Rate:", strconv.FormatFloat(cfg.Invoice.DefaultTaxRate, 'f', -1, 64)+"%")
	s += row("Output Directory:", cfg.Invoice.OutputDir)

	s += "\n" + subtitleStyle.Render("  From") + "\n\n"
	s += row("Name:", cfg.User.Name)
	s += row("Email:", cfg.User.Email)
	s += row("Address:", cfg.User.Address)

	s += "\n" + helpStyle.Render("  enter: edit settings")

	return s
}

func (m *SettingsModel) viewForm() string {
	var s string
	s += titleStyle.Render("Edit Settings") + "\n\n"

	for i, label := range settingsLabels {
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
