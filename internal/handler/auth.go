// Package handler contains HTTP handlers for the treadline dashboard.
//
// This file implements the sign-in and sign-out handlers. Credentials are
// checked by the remote API; the handler only stores the returned token and
// profile in the browser's session.
package handler

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/auth"
	"github.com/DukeRupert/treadline/internal/csrf"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/metrics"
	"github.com/DukeRupert/treadline/internal/middleware"
	"github.com/DukeRupert/treadline/internal/templ/components/flash"
)

// defaultLandingPath is where a successful sign-in goes without return_to.
const defaultLandingPath = "/dashboard"

// =============================================================================
// Handler Configuration
// =============================================================================

// AuthHandler handles sign-in and sign-out.
//
// Routes handled:
// - GET  /login    -> ShowLogin
// - POST /login    -> Login
// - POST /logout   -> Logout
//
// All three run behind the auth gate, which puts the browser's session in
// the request context. The gate lets the sign-in route render for signed-out
// visitors.
type AuthHandler struct {
	backend  api.Backend
	renderer TemplateRenderer
	limiter  *middleware.LoginLimiter
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler. limiter may be nil to disable
// sign-in rate limiting.
//
// Example usage:
//
//	authHandler := handler.NewAuthHandler(backend, renderer, loginLimiter, logger)
//	authHandler.RegisterRoutes(mux, gated)
func NewAuthHandler(backend api.Backend, renderer TemplateRenderer, limiter *middleware.LoginLimiter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		backend:  backend,
		renderer: renderer,
		limiter:  limiter,
		logger:   logger.With("component", "auth"),
	}
}

// =============================================================================
// Template Data Types
// =============================================================================

// AuthPageData contains data for the sign-in page.
type AuthPageData struct {
	CurrentPath string
	CSRFToken   string
	Form        map[string]string // preserved form values, never the password
	Errors      map[string]string // field -> message
	Flash       flash.Message
	ReturnTo    string
}

// =============================================================================
// GET /login - Show Sign-in Page
// =============================================================================

// ShowLogin displays the sign-in form.
//
// A visitor who already holds a token is sent on to return_to (when safe)
// or the dashboard instead.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	returnTo := r.URL.Query().Get("return_to")

	if h.signedIn(r) {
		http.Redirect(w, r, landingURL(returnTo), http.StatusSeeOther)
		return
	}

	var msg flash.Message
	switch {
	case r.URL.Query().Get("logout") == "1":
		msg = flash.Message{Kind: flash.Success, Text: "You have been signed out."}
	case r.URL.Query().Get("expired") == "1":
		msg = flash.Message{Kind: flash.Info, Text: "Your session has expired. Please sign in again."}
	}

	h.renderLogin(w, r, http.StatusOK, AuthPageData{
		Form:     make(map[string]string),
		Errors:   make(map[string]string),
		Flash:    msg,
		ReturnTo: returnTo,
	})
}

// =============================================================================
// POST /login - Process Sign-in
// =============================================================================

// Login processes the sign-in form submission.
//
// Form Fields:
// - email (required)
// - password (required)
// - return_to (optional): URL to redirect to after a successful sign-in
//
// On success the token and profile are written to the session and the
// visitor is redirected. On failure the form is re-rendered with the email
// preserved. Wrong credentials always get the same generic message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	if sess == nil {
		ErrorResponse(w, r, h.logger, domain.Internal(nil, "auth.login", "session missing from context"))
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse form", "error", err)
		h.renderLogin(w, r, http.StatusBadRequest, AuthPageData{
			Flash: flash.Message{Kind: flash.Error, Text: "Invalid form submission. Please try again."},
		})
		return
	}

	params := domain.SignInParams{
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Password: r.FormValue("password"),
	}
	data := AuthPageData{
		Form:     map[string]string{"Email": params.Email},
		Errors:   make(map[string]string),
		ReturnTo: r.FormValue("return_to"),
	}

	if err := params.Validate(); err != nil {
		if ve, ok := err.(*domain.ValidationError); ok {
			data.Errors = ve.Fields
		}
		h.renderLogin(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	result, err := h.backend.SignIn(r.Context(), params)
	if err != nil {
		h.signInFailed(w, r, data, err)
		return
	}

	if err := sess.SetCredentials(r.Context(), result.Token, &result.User); err != nil {
		h.logger.Error("failed to store credentials", "error", err)
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		data.Flash = flash.Message{Kind: flash.Error, Text: "Sign-in failed. Please try again later."}
		h.renderLogin(w, r, http.StatusInternalServerError, data)
		return
	}

	if h.limiter != nil {
		h.limiter.Reset(r)
	}
	metrics.SignInsTotal.WithLabelValues("success").Inc()
	h.logger.Info("operator signed in", "user_id", result.User.ID, "role", result.User.Role)

	http.Redirect(w, r, landingURL(data.ReturnTo), http.StatusSeeOther)
}

// signInFailed re-renders the form for a rejected or failed sign-in.
func (h *AuthHandler) signInFailed(w http.ResponseWriter, r *http.Request, data AuthPageData, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	switch code {
	case domain.EUNAUTHORIZED, domain.EINVALID:
		// Don't reveal whether the email exists
		if h.limiter != nil {
			h.limiter.RecordFailure(r)
		}
		metrics.SignInsTotal.WithLabelValues("failure").Inc()
		h.logger.Info("sign-in rejected", "email", data.Form["Email"])
		data.Flash = flash.Message{Kind: flash.Error, Text: "Invalid email or password"}
		status = http.StatusUnauthorized
	case domain.ERATELIMIT, domain.EUNAVAILABLE:
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		h.logger.Warn("sign-in unavailable", "error", err)
		data.Flash = flash.Message{Kind: flash.Error, Text: domain.ErrorMessage(err)}
	default:
		metrics.SignInsTotal.WithLabelValues("error").Inc()
		h.logger.Error("sign-in failed", "error", err)
		data.Flash = flash.Message{Kind: flash.Error, Text: "Sign-in failed. Please try again later."}
	}

	h.renderLogin(w, r, status, data)
}

// tooManyAttempts re-renders the form for a client blocked by the limiter.
func (h *AuthHandler) tooManyAttempts(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	metrics.SignInsTotal.WithLabelValues("blocked").Inc()

	minutes := int(math.Ceil(retryAfter.Minutes()))
	text := "Too many failed sign-in attempts. Try again in a minute."
	if minutes > 1 {
		text = fmt.Sprintf("Too many failed sign-in attempts. Try again in %d minutes.", minutes)
	}

	h.renderLogin(w, r, http.StatusTooManyRequests, AuthPageData{
		Form:     map[string]string{"Email": strings.ToLower(strings.TrimSpace(r.PostFormValue("email")))},
		Flash:    flash.Message{Kind: flash.Error, Text: text},
		ReturnTo: r.PostFormValue("return_to"),
	})
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, data AuthPageData) {
	if data.Form == nil {
		data.Form = make(map[string]string)
	}
	if data.Errors == nil {
		data.Errors = make(map[string]string)
	}
	if data.ReturnTo != "" && !isSafeRedirectURL(data.ReturnTo) {
		data.ReturnTo = ""
	}
	data.CurrentPath = "/login"
	data.CSRFToken = csrf.Token(r.Context())

	h.renderer.RenderHTTP(w, status, "auth/login", data)
}

// signedIn reports whether the request's session already holds a token.
func (h *AuthHandler) signedIn(r *http.Request) bool {
	sess := auth.GetSession(r.Context())
	if sess == nil {
		return false
	}
	token, err := sess.Token(r.Context())
	return err == nil && token != ""
}

// =============================================================================
// POST /logout - Process Sign-out
// =============================================================================

// Logout signs the token out on the backend and clears the session.
//
// Notes:
// - This operation is idempotent - calling without a session is fine
// - The session is always cleared, even if the backend call fails
// - Always redirect to the sign-in page (don't show error pages)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := auth.GetSession(r.Context()); sess != nil {
		token, err := sess.Token(r.Context())
		if err == nil && token != "" {
			if err := h.backend.SignOut(r.Context(), token); err != nil {
				h.logger.Warn("backend sign-out failed", "error", err)
			}
		}
		if err := sess.Clear(r.Context()); err != nil {
			h.logger.Error("failed to clear session", "error", err)
		}
	}

	h.logger.Debug("operator signed out")
	http.Redirect(w, r, "/login?logout=1", http.StatusSeeOther)
}

// =============================================================================
// Helpers
// =============================================================================

// landingURL returns returnTo when it is a safe local path, otherwise the
// dashboard.
func landingURL(returnTo string) string {
	if returnTo != "" && isSafeRedirectURL(returnTo) {
		return returnTo
	}
	return defaultLandingPath
}

// isSafeRedirectURL checks if a URL is safe for redirecting (prevents open redirects).
//
// Examples:
// - "/dashboard"              -> true (relative URL)
// - "/products?page=2"        -> true (relative URL with query)
// - "//evil.com"              -> false (protocol-relative, could be external)
// - "https://evil.com"        -> false (absolute URL to external domain)
// - "javascript:alert(1)"     -> false (javascript URL)
func isSafeRedirectURL(rawURL string) bool {
	// Must start with /
	if !strings.HasPrefix(rawURL, "/") {
		return false
	}

	// Must not start with // or /\ (browsers treat both as protocol-relative)
	if strings.HasPrefix(rawURL, "//") || strings.HasPrefix(rawURL, `/\`) {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	// Must not have a scheme or host
	return parsed.Scheme == "" && parsed.Host == ""
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers the auth routes. gated wraps each handler with
// the auth gate; login additionally goes through the sign-in rate limiter.
//
// Routes registered:
// - GET  /login  -> ShowLogin
// - POST /login  -> Login
// - POST /logout -> Logout
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, gated func(http.Handler) http.Handler) {
	login := http.Handler(http.HandlerFunc(h.Login))
	if h.limiter != nil {
		login = h.limiter.Limit(login, h.tooManyAttempts)
	}

	mux.Handle("GET /login", gated(http.HandlerFunc(h.ShowLogin)))
	mux.Handle("POST /login", gated(login))
	mux.Handle("POST /logout", gated(http.HandlerFunc(h.Logout)))
}
