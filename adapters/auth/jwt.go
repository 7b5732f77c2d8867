// Package auth provides stateless session tokens and the request
// authenticator built on them.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/artpar/zacre/ports"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiration is used when no session lifetime is configured.
const DefaultExpiration = 7 * 24 * time.Hour

const issuer = "zacre"

// Claims carries the session principal.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Session converts the claims to the principal seen by modules.
func (c *Claims) Session() *ports.Session {
	return &ports.Session{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenService signs and verifies HS256 session tokens.
// Safe for concurrent use.
type TokenService struct {
	secret     []byte
	expiration time.Duration
	clock      ports.Clock
}

// NewTokenService creates a token service.
// An empty secret is replaced by 32 random bytes, which invalidates
// sessions on restart.
func NewTokenService(secret string, expiration time.Duration, clock ports.Clock) *TokenService {
	secretBytes := []byte(secret)
	if secret == "" {
		secretBytes = make([]byte, 32)
		rand.Read(secretBytes)
	}
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &TokenService{secret: secretBytes, expiration: expiration, clock: clock}
}

// Expiration returns the token lifetime.
func (s *TokenService) Expiration() time.Duration {
	return s.expiration
}

// GenerateToken creates a signed token for the user.
func (s *TokenService) GenerateToken(userID, email, role string) (string, time.Time, error) {
	now := s.clock.Now().UTC()
	expiresAt := now.Add(s.expiration)

	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies the signature, issuer, and expiry.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// GenerateSecret returns a random hex secret suitable for auth.jwt_secret.
func GenerateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
