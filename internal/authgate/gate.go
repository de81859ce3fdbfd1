// Package authgate decides whether a route may render for the current
// session.
//
// The gate reads the session token on every check; nothing is cached
// between checks, so clearing the session locks out the very next request
// or live message. Any failure while reading the token counts as no token.
package authgate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/DukeRupert/treadline/internal/auth"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/metrics"
	"github.com/DukeRupert/treadline/internal/session"
)

// DefaultSignInPath is the public sign-in route.
const DefaultSignInPath = "/login"

// State is the outcome of a check.
type State int

const (
	Unchecked State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// TokenReader is the part of a session the gate needs.
type TokenReader interface {
	Token(ctx context.Context) (string, error)
}

// Decision tells the caller what to do with a route.
type Decision struct {
	State    State
	Redirect string // non-empty when the caller must redirect instead of rendering
	Render   bool
}

// Gate checks routes against a session.
type Gate struct {
	signInPath string
	logger     *slog.Logger
}

// New creates a Gate that sends unauthorized visitors to signInPath.
func New(signInPath string, logger *slog.Logger) *Gate {
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		signInPath: signInPath,
		logger:     logger.With("component", "authgate"),
	}
}

// SignInPath returns the public sign-in route.
func (g *Gate) SignInPath() string {
	return g.signInPath
}

// IsSignInRoute reports whether route is the sign-in route, ignoring any
// query string.
func (g *Gate) IsSignInRoute(route string) bool {
	path, _, _ := strings.Cut(route, "?")
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(g.signInPath, "/")
}

// Check reads the token from reader and decides whether route renders.
//
// A non-empty token authorizes. Without one, the sign-in route still
// renders; any other route gets a redirect to the sign-in route carrying
// the original route in return_to. Errors and panics from reader fail
// closed.
func (g *Gate) Check(ctx context.Context, reader TokenReader, route string) Decision {
	token := g.readToken(ctx, reader, route)

	var d Decision
	switch {
	case token != "":
		d = Decision{State: Authorized, Render: true}
	case g.IsSignInRoute(route):
		d = Decision{State: Unauthorized, Render: true}
	default:
		d = Decision{State: Unauthorized, Redirect: g.SignInURL(route)}
	}

	metrics.AuthGateDecisionsTotal.WithLabelValues(d.State.String()).Inc()
	return d
}

// SignInURL returns the sign-in route with route as its return_to target.
func (g *Gate) SignInURL(route string) string {
	if route == "" || g.IsSignInRoute(route) {
		return g.signInPath
	}
	return g.signInPath + "?" + url.Values{"return_to": {route}}.Encode()
}

func (g *Gate) readToken(ctx context.Context, reader TokenReader, route string) (token string) {
	if reader == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Session read panicked, treating as signed out", "route", route, "panic", fmt.Sprint(r))
			token = ""
		}
	}()

	token, err := reader.Token(ctx)
	if err != nil {
		g.logger.Warn("Session read failed, treating as signed out", "route", route, "error", err)
		return ""
	}
	return token
}

// =============================================================================
// HTTP Middleware
// =============================================================================

// Middleware gates every request through Check.
//
// Unauthorized requests get exactly one response: a 303 to the sign-in
// route for browsers, an HX-Redirect for htmx requests, or a 401 JSON body
// for API clients. Authorized requests carry the session and the stored
// profile in their context (see auth.GetSession and auth.GetUser).
//
// Usage:
//
//	gated := gate.Middleware(provider)
//	mux.Handle("GET /dashboard", gated(dashboardHandler))
func (g *Gate) Middleware(provider session.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := provider.Session(w, r)
			d := g.Check(r.Context(), sess, r.URL.RequestURI())

			if !d.Render {
				g.deny(w, r, d)
				return
			}

			var user *domain.User
			if d.State == Authorized {
				user = g.readUser(r.Context(), sess)
			}
			ctx := auth.WithSession(r.Context(), sess, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// readUser loads the stored profile. The profile is display data only, so
// a failed read is logged and the request continues without it.
func (g *Gate) readUser(ctx context.Context, sess *session.Session) *domain.User {
	user, err := sess.User(ctx)
	if err != nil {
		g.logger.Warn("Failed to read user profile", "error", err)
		return nil
	}
	return user
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, d Decision) {
	switch {
	case wantsJSON(r):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":    "unauthorized",
			"message":  "Please sign in to continue.",
			"redirect": d.Redirect,
		})
	case r.Header.Get("HX-Request") == "true":
		w.Header().Set("HX-Redirect", d.Redirect)
		w.WriteHeader(http.StatusUnauthorized)
	default:
		http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
