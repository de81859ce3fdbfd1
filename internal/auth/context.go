// Package auth carries the authenticated session and user through a request
// context.
//
// It is imported by the gate, handlers and live sessions without causing
// import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	userContextKey    contextKey = "user"
	sessionContextKey contextKey = "session"
)

// GetUser retrieves the signed-in operator's profile from the context.
//
// Returns nil if the gate did not authorize the request, or if the profile
// slot has expired while the token is still valid.
//
// Usage:
//
//	user := auth.GetUser(r.Context())
//	name := user.DisplayName() // nil-safe
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetSession retrieves the request's session, set by the auth gate.
func GetSession(ctx context.Context) *session.Session {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// FromRequest returns the session and user for r.
func FromRequest(r *http.Request) (*session.Session, *domain.User) {
	return GetSession(r.Context()), GetUser(r.Context())
}

// WithSession stores the session and user in the context.
func WithSession(ctx context.Context, sess *session.Session, user *domain.User) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, sess)
	return context.WithValue(ctx, userContextKey, user)
}
