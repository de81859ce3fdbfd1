// Package csrf protects state-changing forms with the double-submit cookie
// pattern: a random token lives in a cookie and must be echoed back in the
// form body or the X-CSRF-Token header. A cross-site page can make the
// browser send the cookie but cannot read it to echo it.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "treadline_csrf"

	// FormFieldName is the name of the CSRF token form field.
	FormFieldName = "csrf_token"

	// HeaderName carries the token for htmx and fetch requests.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token (32 bytes = 256 bits).
	TokenLength = 32

	// CookieMaxAge is the lifetime of the CSRF cookie (12 hours, one working day).
	CookieMaxAge = 12 * 3600
)

type contextKey struct{}

// GenerateToken returns 32 random bytes, base64 URL-encoded.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest checks the request's submitted token against its cookie.
// The header wins over the form field.
func ValidateRequest(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(FormFieldName)
	}
	return ValidateToken(cookie.Value, submitted)
}

// Token returns the token issued for the request by Protect.
func Token(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// Protector issues tokens and rejects unsafe requests without a matching one.
type Protector struct {
	isSecure bool
	logger   *slog.Logger
}

// New creates a Protector. isSecure marks the cookie Secure.
func New(isSecure bool, logger *slog.Logger) *Protector {
	return &Protector{isSecure: isSecure, logger: logger}
}

// Protect ensures every request carries a token in its context and rejects
// POST, PUT, PATCH and DELETE requests that do not echo it.
func (p *Protector) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := p.ensure(w, r)

		if !isSafeMethod(r.Method) && !ValidateRequest(r) {
			p.logger.Warn("csrf token rejected", "path", r.URL.Path, "method", r.Method)
			reject(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, token)))
	})
}

func (p *Protector) ensure(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token, err := GenerateToken()
	if err != nil {
		// Without a token every unsafe request fails validation, which is
		// the safe outcome.
		p.logger.Error("csrf token generation failed", "error", err)
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   p.isSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func reject(w http.ResponseWriter, r *http.Request) {
	const message = "Your form has expired. Please reload the page and try again."
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "forbidden", "message": message})
		return
	}
	http.Error(w, message, http.StatusForbidden)
}
