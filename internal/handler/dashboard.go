package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/auth"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/screens"
)

// DashboardHandler renders the landing page: one tile per list screen with
// the number of rows the backend holds for it.
type DashboardHandler struct {
	backend  api.Backend
	screens  *screens.Registry
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(backend api.Backend, reg *screens.Registry, renderer TemplateRenderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		backend:  backend,
		screens:  reg,
		renderer: renderer,
		logger:   logger.With("component", "dashboard"),
	}
}

// Tile is one screen's summary on the dashboard.
type Tile struct {
	Screen screens.Screen
	Total  int
	Error  string
}

// DashboardPageData contains data for the dashboard page.
type DashboardPageData struct {
	AppPage
	Tiles []Tile
}

// Show handles GET /dashboard. Totals are fetched concurrently; a failed
// total only marks its own tile.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	token := ""
	if sess := auth.GetSession(r.Context()); sess != nil {
		token, _ = sess.Token(r.Context())
	}

	tiles, unauthorized := h.totals(r.Context(), token)
	if unauthorized {
		signInAgain(w, r, h.logger, "/dashboard")
		return
	}

	data := DashboardPageData{
		AppPage: newAppPage(r, h.screens, "Dashboard"),
		Tiles:   tiles,
	}
	h.renderer.RenderHTTP(w, http.StatusOK, "dashboard", data)
}

func (h *DashboardHandler) totals(ctx context.Context, token string) ([]Tile, bool) {
	all := h.screens.All()
	tiles := make([]Tile, len(all))
	errs := make([]error, len(all))

	var wg sync.WaitGroup
	for i, s := range all {
		tiles[i].Screen = s
		wg.Add(1)
		go func() {
			defer wg.Done()
			tiles[i].Total, errs[i] = api.Total(ctx, h.backend, token, s.Resource)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if api.IsUnauthorized(err) {
			return nil, true
		}
		h.logger.Warn("failed to load screen total", "screen", tiles[i].Screen.Name, "error", err)
		tiles[i].Error = domain.ErrorMessage(err)
	}
	return tiles, false
}

// Root handles GET / by sending the operator to the dashboard.
func (h *DashboardHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
