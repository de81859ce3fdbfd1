package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Security Headers Middleware Tests
// =============================================================================

func serveWithHeaders(isSecure bool) *httptest.ResponseRecorder {
	mw := NewSecurityHeadersMiddleware(isSecure)
	wrapped := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/products", nil))
	return rec
}

func TestSecurityHeadersMiddleware_SetsAllHeaders(t *testing.T) {
	rec := serveWithHeaders(false)

	expected := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
		"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
	}
	for header, want := range expected {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected the request to pass through, got %d", rec.Code)
	}
}

func TestSecurityHeadersMiddleware_HSTSOnlyWhenSecure(t *testing.T) {
	if got := serveWithHeaders(true).Header().Get("Strict-Transport-Security"); !strings.Contains(got, "max-age=31536000") {
		t.Errorf("expected HSTS in production, got %q", got)
	}
	if got := serveWithHeaders(false).Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("expected no HSTS in development, got %q", got)
	}
}

func TestSecurityHeadersMiddleware_CSPAllowsLiveSessions(t *testing.T) {
	dev := serveWithHeaders(false).Header().Get("Content-Security-Policy")
	if !strings.Contains(dev, "connect-src 'self' ws: wss:") {
		t.Errorf("development CSP should allow ws and wss, got %q", dev)
	}

	prod := serveWithHeaders(true).Header().Get("Content-Security-Policy")
	if !strings.Contains(prod, "connect-src 'self' wss:") || strings.Contains(prod, "ws: ") {
		t.Errorf("production CSP should allow wss only, got %q", prod)
	}
}

func TestSecurityHeadersMiddleware_CSPRestrictsScripts(t *testing.T) {
	csp := serveWithHeaders(true).Header().Get("Content-Security-Policy")
	for _, want := range []string{"script-src 'self';", "frame-ancestors 'none'", "form-action 'self'"} {
		if !strings.Contains(csp, want) {
			t.Errorf("CSP should contain %q, got %q", want, csp)
		}
	}
	if strings.Contains(csp, "script-src 'self' 'unsafe-inline'") {
		t.Errorf("inline scripts should not be allowed, got %q", csp)
	}
}
