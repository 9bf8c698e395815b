package service

// AuthService turns credentials into callers:
//
//	auth.Authenticate (middleware) ─► AuthService ─► UserRepository
//	                                              ↘ TokenService / PasswordService
//
// It implements auth.Authenticator, so the middleware never touches the
// database directly.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/metrics"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository"
)

var _ auth.Authenticator = (*AuthService)(nil)

type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		metrics:   m,
		logger:    logger,
	}
}

// TokenResult is the body of GET /auth/token.
type TokenResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// AuthenticatePassword checks a username/password pair.
// An unknown user and a wrong password give the same error.
func (s *AuthService) AuthenticatePassword(ctx context.Context, username, password string) (model.Caller, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.AuthAttempt("basic", false)
			return model.Anonymous, apperror.Unauthorized("invalid username or password")
		}
		return model.Anonymous, fmt.Errorf("looking up user %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.metrics.AuthAttempt("basic", false)
		s.logger.Debug("password rejected", slog.String("username", username))
		return model.Anonymous, apperror.Unauthorized("invalid username or password")
	}

	s.metrics.AuthAttempt("basic", true)
	return user.Caller(), nil
}

// AuthenticateToken validates a bearer token and loads the user it names.
// Tokens of deleted users stop working immediately.
func (s *AuthService) AuthenticateToken(ctx context.Context, token string) (model.Caller, error) {
	userID, err := s.tokens.Validate(token)
	if err != nil {
		s.metrics.AuthAttempt("bearer", false)
		return model.Anonymous, apperror.Unauthorized(err.Error())
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.AuthAttempt("bearer", false)
			return model.Anonymous, apperror.Unauthorized("token user no longer exists")
		}
		return model.Anonymous, fmt.Errorf("loading token user %d: %w", userID, err)
	}

	s.metrics.AuthAttempt("bearer", true)
	return user.Caller(), nil
}

// IssueToken creates a bearer token for an authenticated caller.
func (s *AuthService) IssueToken(_ context.Context, caller model.Caller) (*TokenResult, error) {
	if !caller.Authenticated() {
		return nil, apperror.Unauthorized("authentication required")
	}

	token, err := s.tokens.Generate(caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %d: %w", caller.UserID, err)
	}

	s.logger.Info("token issued", slog.Int64("userID", caller.UserID))
	return &TokenResult{
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}
