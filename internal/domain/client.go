package domain

import (
	"errors"
	"net/mail"
	"strings"
)

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	UserID    int64     `json:"user_id,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// ClientInput is the payload for creating or updating a client
type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// NewClientInput trims all fields
func NewClientInput(name, email, phone, address string) ClientInput {
	return ClientInput{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Phone:   strings.TrimSpace(phone),
		Address: strings.TrimSpace(address),
	}
}

// Validate returns an error if the client input is invalid
func (c ClientInput) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return errors.New("client name is required")
	}
	if len(name) > 255 {
		return errors.New("client name must be less than 255 characters")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(c.Email)); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}

// Input returns the editable fields of the client
func (c *Client) Input() ClientInput {
	return ClientInput{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Address: c.Address,
	}
}

// Matches reports whether the client has the given email (case-insensitive)
// or, when email is empty, the given name.
func (c *Client) Matches(name, email string) bool {
	email = strings.TrimSpace(email)
	if email != "" {
		return strings.EqualFold(c.Email, email)
	}
	name = strings.TrimSpace(name)
	return name != "" && strings.EqualFold(strings.TrimSpace(c.Name), name)
}
