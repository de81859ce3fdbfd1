package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"github.com/DukeRupert/treadline/internal/auth"
	"github.com/DukeRupert/treadline/internal/csrf"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/templ/components/flash"
)

// TemplateRenderer is the interface for rendering HTML templates.
// This interface allows for mocking in tests.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, status int, name string, data interface{})
	RenderComponent(w http.ResponseWriter, r *http.Request, status int, c templ.Component)
}

// AppPage is the data every page in the app layout receives.
type AppPage struct {
	Title       string
	CurrentPath string
	User        *domain.User
	CSRFToken   string
	Nav         []screens.Screen
	Flash       flash.Message
}

// newAppPage fills the layout data from the request context.
func newAppPage(r *http.Request, reg *screens.Registry, title string) AppPage {
	return AppPage{
		Title:       title,
		CurrentPath: r.URL.Path,
		User:        auth.GetUser(r.Context()),
		CSRFToken:   csrf.Token(r.Context()),
		Nav:         reg.All(),
	}
}

// IsCurrent reports whether path is the page being shown, for nav highlighting.
func (p AppPage) IsCurrent(path string) bool {
	return p.CurrentPath == path
}

// signInAgain handles a token the backend no longer accepts: the session is
// cleared and the visitor is sent to sign in, coming back to returnTo.
func signInAgain(w http.ResponseWriter, r *http.Request, logger *slog.Logger, returnTo string) {
	if sess := auth.GetSession(r.Context()); sess != nil {
		if err := sess.Clear(r.Context()); err != nil {
			logger.Error("failed to clear rejected session", "error", err)
		}
	}
	logger.Info("backend rejected session token", "path", r.URL.Path)

	q := url.Values{"expired": {"1"}}
	if returnTo != "" {
		q.Set("return_to", returnTo)
	}
	target := "/login?" + q.Encode()

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
