package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/zacre/domain/apperr"
	"github.com/artpar/zacre/ports"
	"github.com/rs/zerolog"
)

// TokenIssuer issues session tokens.
type TokenIssuer interface {
	GenerateToken(userID, email, role string) (string, time.Time, error)
}

// SignInResult is a successful sign-in.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Session   ports.Session
}

// AuthService signs users in and manages accounts.
type AuthService struct {
	users  ports.UserStore
	hasher ports.Hasher
	tokens TokenIssuer
	ids    ports.IDGenerator
	clock  ports.Clock
	logger zerolog.Logger
}

// NewAuthService creates an auth service.
func NewAuthService(
	users ports.UserStore,
	hasher ports.Hasher,
	tokens TokenIssuer,
	ids ports.IDGenerator,
	clock ports.Clock,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		ids:    ids,
		clock:  clock,
		logger: logger.With().Str("service", "auth").Logger(),
	}
}

var errInvalidCredentials = apperr.Unauthorized("Invalid email or password")

// SignIn checks the credentials and issues a token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return SignInResult{}, apperr.Validation("Email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ports.ErrNotFound) {
		return SignInResult{}, errInvalidCredentials
	}
	if err != nil {
		return SignInResult{}, fmt.Errorf("get user: %w", err)
	}
	if !s.hasher.Compare(u.PasswordHash, password) {
		s.logger.Info().Str("user_id", u.ID).Msg("sign-in rejected")
		return SignInResult{}, errInvalidCredentials
	}

	token, expires, err := s.tokens.GenerateToken(u.ID, u.Email, u.Role)
	if err != nil {
		return SignInResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID).Msg("user signed in")
	return SignInResult{
		Token:     token,
		ExpiresAt: expires,
		Session:   ports.Session{UserID: u.ID, Email: u.Email, Role: u.Role},
	}, nil
}

// CreateUser stores a user with a hashed password. An email already in
// use is a Conflict.
func (s *AuthService) CreateUser(ctx context.Context, email, name, role, password string) (ports.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return ports.User{}, apperr.Validation("A valid email is required")
	}
	if len(password) < 4 {
		return ports.User{}, apperr.Validation("Password must be at least 4 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return ports.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := ports.User{
		ID:           s.ids.New(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return ports.User{}, apperr.Conflict("Email is already registered")
		}
		return ports.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureUser creates the user unless the email is already registered.
func (s *AuthService) EnsureUser(ctx context.Context, email, name, role, password string) (ports.User, bool, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return ports.User{}, false, fmt.Errorf("get user: %w", err)
	}
	u, err = s.CreateUser(ctx, email, name, role, password)
	if err != nil {
		return ports.User{}, false, err
	}
	return u, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
