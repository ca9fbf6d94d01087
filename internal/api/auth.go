package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/andy/invoicer/internal/domain"
)

// Login exchanges credentials for a bearer token. The server expects an
// OAuth2 password form with the email in "username".
func (c *Client) Login(ctx context.Context, email, password string) (*domain.AuthToken, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var token domain.AuthToken
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   strings.NewReader(form.Encode()),
		ctype:  "application/x-www-form-urlencoded",
		anon:   true,
	}, &token)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Register creates an account and returns the new user
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var user domain.User
	if err := c.send(ctx, http.MethodPost, "/auth/register", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.get(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail confirms an address with the token from the verification mail
func (c *Client) VerifyEmail(ctx context.Context, token string) (*domain.EmailVerification, error) {
	var out domain.EmailVerification
	q := url.Values{"token": {token}}
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/verify-email", query: q, anon: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendVerification asks the server to send another verification mail
func (c *Client) ResendVerification(ctx context.Context, email string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.send(ctx, http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
