package tui

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// OpenNewClientFormMsg tells the clients screen to open the new client form
type OpenNewClientFormMsg struct{}

// PickNewClientMsg opens the new client form on behalf of the composer's draft
type PickNewClientMsg struct{}

// ClientCreatedMsg reports a client created from the new client form
type ClientCreatedMsg struct {
	ClientID int64
}

// ComposeForClientMsg opens the composer with a fresh draft for ClientID
type ComposeForClientMsg struct {
	ClientID int64
}

// firstRunCheckMsg reports whether the account has any clients
type firstRunCheckMsg struct {
	hasClients bool
}
