package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/zacre/adapters/auth"
	"github.com/artpar/zacre/adapters/clock"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := auth.NewTokenService("secret", time.Hour, clock.Real{})

	token, expiresAt, err := svc.GenerateToken("user-1", "admin@zacre.local", "admin")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a JWT", token)
	}
	if time.Until(expiresAt) > time.Hour || time.Until(expiresAt) < 59*time.Minute {
		t.Errorf("expiresAt = %v, want ~1h", expiresAt)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	s := claims.Session()
	if s.UserID != "user-1" || s.Email != "admin@zacre.local" || s.Role != "admin" {
		t.Errorf("session = %+v", s)
	}
}

func TestTokenService_DefaultExpiration(t *testing.T) {
	svc := auth.NewTokenService("secret", 0, clock.Real{})
	if svc.Expiration() != auth.DefaultExpiration {
		t.Errorf("Expiration() = %v, want %v", svc.Expiration(), auth.DefaultExpiration)
	}
}

func TestTokenService_Expired(t *testing.T) {
	clk := clock.NewFake(time.Now())
	svc := auth.NewTokenService("secret", time.Hour, clk)

	token, _, _ := svc.GenerateToken("user-1", "a@b.c", "admin")
	clk.Advance(2 * time.Hour)

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	a := auth.NewTokenService("secret-a", time.Hour, clock.Real{})
	b := auth.NewTokenService("secret-b", time.Hour, clock.Real{})

	token, _, _ := a.GenerateToken("user-1", "a@b.c", "admin")
	if _, err := b.ValidateToken(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}

func TestTokenService_RandomSecret(t *testing.T) {
	a := auth.NewTokenService("", time.Hour, clock.Real{})
	b := auth.NewTokenService("", time.Hour, clock.Real{})

	token, _, err := a.GenerateToken("user-1", "a@b.c", "")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := a.ValidateToken(token); err != nil {
		t.Errorf("own token rejected: %v", err)
	}
	if _, err := b.ValidateToken(token); err == nil {
		t.Error("random secrets should differ")
	}
}

func TestGenerateSecret(t *testing.T) {
	s := auth.GenerateSecret()
	if len(s) != 64 {
		t.Errorf("len = %d, want 64", len(s))
	}
}

func TestProvider_Authenticate(t *testing.T) {
	svc := auth.NewTokenService("secret", time.Hour, clock.Real{})
	p := auth.NewProvider(svc, "")
	token, _, _ := svc.GenerateToken("user-1", "admin@zacre.local", "admin")

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantID  string
	}{
		{"anonymous", func(r *http.Request) {}, ""},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: token})
		}, "user-1"},
		{"bearer", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}, "user-1"},
		{"garbage cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "token", Value: "nope"})
		}, ""},
		{"basic scheme ignored", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic "+token)
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin", nil)
			tt.prepare(r)

			s := p.Authenticate(r)
			switch {
			case tt.wantID == "" && s != nil:
				t.Errorf("session = %+v, want nil", s)
			case tt.wantID != "" && (s == nil || s.UserID != tt.wantID):
				t.Errorf("session = %+v, want user %s", s, tt.wantID)
			}
		})
	}
}
