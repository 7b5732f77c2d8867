package auth

import (
	"net/http"
	"strings"

	"github.com/artpar/zacre/ports"
)

// DefaultCookieName is the cookie carrying the session token.
const DefaultCookieName = "token"

// Provider authenticates requests from a session cookie or a Bearer
// Authorization header, in that order.
type Provider struct {
	tokens     *TokenService
	cookieName string
}

// NewProvider creates a request authenticator.
func NewProvider(tokens *TokenService, cookieName string) *Provider {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Provider{tokens: tokens, cookieName: cookieName}
}

// CookieName returns the session cookie name.
func (p *Provider) CookieName() string {
	return p.cookieName
}

// Authenticate returns the session or nil for anonymous requests.
// Invalid or expired tokens are treated as anonymous.
func (p *Provider) Authenticate(r *http.Request) *ports.Session {
	raw := p.token(r)
	if raw == "" {
		return nil
	}
	claims, err := p.tokens.ValidateToken(raw)
	if err != nil {
		return nil
	}
	return claims.Session()
}

func (p *Provider) token(r *http.Request) string {
	if c, err := r.Cookie(p.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if rest, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// Ensure interface compliance.
var _ ports.AuthProvider = (*Provider)(nil)
