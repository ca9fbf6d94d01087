package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/session"
	"go.uber.org/zap"
)

var ErrCredentialsRequired = errors.New("email and password are required")

// AuthService signs users in and out and keeps the profile current
type AuthService interface {
	// Login fetches a token, then the profile; the session is cleared on any failure
	Login(ctx context.Context, email, password string) (*domain.User, error)

	// Register creates the account. The server only accepts a login once the
	// emailed verification link has been followed.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)

	Logout(ctx context.Context) error

	// RefreshUser refetches the profile; a 401 signs the user out
	RefreshUser(ctx context.Context) (*domain.User, error)

	VerifyEmail(ctx context.Context, token string) (*domain.EmailVerification, error)
	ResendVerification(ctx context.Context, email string) (string, error)
}

type authService struct {
	api      AuthAPI
	sessions Sessions
	logger   *zap.Logger
}

func NewAuthService(authAPI AuthAPI, sessions Sessions, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{api: authAPI, sessions: sessions, logger: logger}
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	token, err := s.api.Login(ctx, email, password)
	if err != nil {
		_ = s.sessions.Clear(ctx)
		return nil, fmt.Errorf("login failed: %w", err)
	}

	// Store the token first so /me is authenticated
	if err := s.sessions.Update(ctx, token.AccessToken, nil); err != nil {
		return nil, err
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		_ = s.sessions.Clear(ctx)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	if err := s.sessions.SetUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("signed in", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *authService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" {
		return nil, ErrCredentialsRequired
	}

	created, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	s.logger.Info("registered", zap.Int64("user_id", created.ID))
	return created, nil
}

func (s *authService) Logout(ctx context.Context) error {
	return s.sessions.Clear(ctx)
}

func (s *authService) RefreshUser(ctx context.Context) (*domain.User, error) {
	if !s.sessions.Current().Authenticated() {
		return nil, session.ErrNotAuthenticated
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			_ = s.sessions.Clear(ctx)
		}
		return nil, err
	}

	if err := s.sessions.SetUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*domain.EmailVerification, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("verification token is required")
	}
	return s.api.VerifyEmail(ctx, token)
}

func (s *authService) ResendVerification(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("email is required")
	}
	return s.api.ResendVerification(ctx, email)
}
