package service

import (
	"context"
	"testing"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresTokenAndUser(t *testing.T) {
	m := &mockAPI{user: &domain.User{ID: 3, Email: "ada@example.test"}}
	sessions := &mockSessions{}
	svc := NewAuthService(m, sessions, nil)

	user, err := svc.Login(context.Background(), " ada@example.test ", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, "tok-ada@example.test", sessions.current.Token)
	assert.Equal(t, user, sessions.current.User)
}

func TestLoginFailureClearsSession(t *testing.T) {
	sessions := &mockSessions{current: session.Session{Token: "old"}}
	m := &mockAPI{loginErr: &api.Error{StatusCode: 401, Detail: "Incorrect email or password"}}
	svc := NewAuthService(m, sessions, nil)

	_, err := svc.Login(context.Background(), "a@b.test", "bad")
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, sessions.current.Authenticated())

	m.loginErr = nil
	m.meErr = &api.Error{StatusCode: 500}
	_, err = svc.Login(context.Background(), "a@b.test", "pw")
	assert.Error(t, err)
	assert.False(t, sessions.current.Authenticated())
	assert.Equal(t, 2, sessions.cleared)
}

func TestLoginRequiresCredentials(t *testing.T) {
	svc := NewAuthService(&mockAPI{}, &mockSessions{}, nil)
	_, err := svc.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	sessions := &mockSessions{}
	svc := NewAuthService(&mockAPI{}, sessions, nil)

	user, err := svc.Register(context.Background(), domain.RegisterRequest{Email: " new@example.test ", Password: "pw", FullName: " New "})
	require.NoError(t, err)
	assert.Equal(t, "New", user.FullName)
	assert.Equal(t, "new@example.test", user.Email)
	assert.False(t, sessions.current.Authenticated())

	_, err = svc.Register(context.Background(), domain.RegisterRequest{Email: "x@example.test"})
	assert.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestLoginUnverified(t *testing.T) {
	m := &mockAPI{loginErr: &api.Error{StatusCode: 403, Detail: "Email not verified"}}
	svc := NewAuthService(m, &mockSessions{}, nil)

	_, err := svc.Login(context.Background(), "a@b.test", "pw")
	assert.ErrorIs(t, err, api.ErrForbidden)
	assert.Contains(t, err.Error(), "Email not verified")
}

func TestRefreshUserUnauthorizedSignsOut(t *testing.T) {
	sessions := &mockSessions{current: session.Session{Token: "tok"}}
	m := &mockAPI{meErr: &api.Error{StatusCode: 401}}
	svc := NewAuthService(m, sessions, nil)

	_, err := svc.RefreshUser(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, sessions.current.Authenticated())

	_, err = svc.RefreshUser(context.Background())
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}
