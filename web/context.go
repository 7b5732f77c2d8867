package web

import (
	"context"

	"github.com/artpar/zacre/ports"
)

type ctxKey string

const sessionKey ctxKey = "session"

// WithSession adds the authenticated session to the context.
func WithSession(ctx context.Context, s *ports.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom retrieves the session from context. Nil when anonymous.
func SessionFrom(ctx context.Context) *ports.Session {
	s, ok := ctx.Value(sessionKey).(*ports.Session)
	if !ok {
		return nil
	}
	return s
}
