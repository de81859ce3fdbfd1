package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/auth"
	"github.com/DukeRupert/treadline/internal/csrf"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/listquery"
	"github.com/DukeRupert/treadline/internal/pagination"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/templ/components/flash"
	"github.com/DukeRupert/treadline/internal/templ/components/listview"
	pagenav "github.com/DukeRupert/treadline/internal/templ/components/pagination"
)

// ListHandler serves the list screens without a live session: the first
// paint, the rows fragment used for partial refreshes and the no-script
// fallback, and the delete form action.
//
// Routes handled:
// - GET  /{screen}              -> Page
// - GET  /{screen}/rows         -> Rows
// - POST /{screen}/{id}/delete  -> Delete
type ListHandler struct {
	backend  api.Backend
	screens  *screens.Registry
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewListHandler creates a new ListHandler.
func NewListHandler(backend api.Backend, reg *screens.Registry, renderer TemplateRenderer, logger *slog.Logger) *ListHandler {
	return &ListHandler{
		backend:  backend,
		screens:  reg,
		renderer: renderer,
		logger:   logger.With("component", "list"),
	}
}

// ListPageData contains data for a list screen.
type ListPageData struct {
	AppPage
	Screen  screens.Screen
	Search  string
	LiveURL string
	View    listview.View
}

// Fragment renders the results region.
func (d ListPageData) Fragment() templ.Component {
	return listview.Fragment(d.View)
}

// Mode is the screen's pagination mode, read by the live client.
func (d ListPageData) Mode() string {
	return d.Screen.Mode().String()
}

// =============================================================================
// GET /{screen} - First Paint
// =============================================================================

// Page renders a list screen with its first page of rows already loaded.
// page and search come from the query string, so URL-mode screens survive a
// reload and no-script pagination links work on every screen.
func (h *ListHandler) Page(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	state := h.load(r, screen, pagination.ParsePage(q.Get("page")), q.Get("search"))
	if state.ErrorCode == domain.EUNAUTHORIZED {
		signInAgain(w, r, h.logger, r.URL.RequestURI())
		return
	}

	view := listview.New(screen, state, csrf.Token(r.Context()))
	if q.Get("deleted") == "1" {
		view.Flash = flash.Message{Kind: flash.Success, Text: "Deleted."}
	}
	h.renderPage(w, r, http.StatusOK, screen, view)
}

// =============================================================================
// GET /{screen}/rows - Results Fragment
// =============================================================================

// Rows renders only the results region for the given page and search.
func (h *ListHandler) Rows(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	state := h.load(r, screen, pagination.ParsePage(q.Get("page")), q.Get("search"))
	if state.ErrorCode == domain.EUNAUTHORIZED {
		signInAgain(w, r, h.logger, pageURL(screen, state.CurrentPage, state.DebouncedSearch))
		return
	}

	view := listview.New(screen, state, csrf.Token(r.Context()))
	h.renderer.RenderComponent(w, r, http.StatusOK, listview.Fragment(view))
}

// =============================================================================
// POST /{screen}/{id}/delete - Delete Row
// =============================================================================

// Delete removes one row on the backend and redirects to the page the
// operator should now see. The form carries the page, its row count and
// the total page count, so deleting the only row on the last page lands on
// the page before it.
//
// A failed delete re-renders the screen at the same page with the backend's
// message in a banner.
func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screen(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")

	page := pagination.ParsePage(r.PostFormValue("page"))
	totalPages := pagination.ParsePage(r.PostFormValue("total_pages"))
	items, _ := strconv.Atoi(r.PostFormValue("items"))
	search := listquery.NormalizeSearch(r.PostFormValue("search"))

	token := ""
	if sess := auth.GetSession(r.Context()); sess != nil {
		token, _ = sess.Token(r.Context())
	}

	if err := h.backend.Delete(r.Context(), token, screen.Resource, id); err != nil {
		if api.IsUnauthorized(err) {
			signInAgain(w, r, h.logger, pageURL(screen, page, search))
			return
		}
		h.logger.Warn("delete failed", "screen", screen.Name, "id", id, "error", err)

		state := h.load(r, screen, page, search)
		view := listview.New(screen, state, csrf.Token(r.Context()))
		view.Flash = flash.Message{Kind: flash.Error, Text: domain.ErrorMessage(err)}
		h.renderPage(w, r, ErrorCodeToHTTPStatus(domain.ErrorCode(err)), screen, view)
		return
	}

	h.logger.Info("row deleted", "screen", screen.Name, "id", id)

	target := pagination.CalculatePageAfterDeletion(items, page, totalPages)
	q := listquery.Query(target, search)
	q.Set("deleted", "1")
	http.Redirect(w, r, screen.Path()+"?"+q.Encode(), http.StatusSeeOther)
}

// =============================================================================
// Helpers
// =============================================================================

// screen resolves the {screen} path value, writing a 404 when unknown.
func (h *ListHandler) screen(w http.ResponseWriter, r *http.Request) (screens.Screen, bool) {
	screen, ok := h.screens.Get(r.PathValue("screen"))
	if !ok {
		NotFoundResponse(w, r, h.logger)
		return screens.Screen{}, false
	}
	return screen, true
}

// load runs a list controller to completion for one page. The search term
// is applied without debounce. An out-of-range page is corrected to the
// last page before the state is returned.
func (h *ListHandler) load(r *http.Request, screen screens.Screen, page int, search string) listquery.State[domain.Row] {
	sess := auth.GetSession(r.Context())
	if sess == nil {
		return listquery.State[domain.Row]{
			CurrentPage: 1,
			TotalPages:  1,
			Loaded:      true,
			Error:       "Your session has expired. Please sign in again.",
			ErrorCode:   domain.EUNAUTHORIZED,
		}
	}

	ctrl := listquery.New(api.Fetcher(h.backend, sess, screen.Resource), listquery.Options[domain.Row]{
		Name:            screen.Name,
		ItemsPerPage:    screen.ItemsPerPage,
		ImmediateSearch: true,
		Mode:            listquery.ModeLocal,
		InitialPage:     page,
		InitialSearch:   search,
		Logger:          h.logger,
	})

	// A client that goes away cancels the fetch.
	stop := context.AfterFunc(r.Context(), ctrl.Close)
	defer stop()
	defer ctrl.Close()

	ctrl.Start()
	ctrl.Wait()
	return ctrl.State()
}

func (h *ListHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, screen screens.Screen, view listview.View) {
	data := ListPageData{
		AppPage: newAppPage(r, h.screens, screen.Title),
		Screen:  screen,
		Search:  view.State.SearchTerm,
		LiveURL: "/live/" + screen.Name,
		View:    view,
	}

	if r.Header.Get("HX-Request") == "true" {
		h.renderer.RenderComponent(w, r, status, listview.Fragment(view))
		return
	}
	h.renderer.RenderHTTP(w, status, "list", data)
}

// pageURL is the screen route for page and search.
func pageURL(screen screens.Screen, page int, search string) string {
	return pagenav.Config{BaseURL: screen.Path(), Search: search}.PageURL(page)
}

// =============================================================================
// Route Registration Helper
// =============================================================================

// RegisterRoutes registers one set of list routes per configured screen.
// Each screen gets literal routes so that fixed routes such as /dashboard
// never compete with a wildcard. pages wraps every handler; it must apply
// the auth gate and CSRF protection, since the delete action is a form post.
func (h *ListHandler) RegisterRoutes(mux *http.ServeMux, pages func(http.Handler) http.Handler) {
	for _, s := range h.screens.All() {
		path := s.Path()
		mux.Handle("GET "+path, pages(withScreen(s.Name, h.Page)))
		mux.Handle("GET "+path+"/rows", pages(withScreen(s.Name, h.Rows)))
		mux.Handle("POST "+path+"/{id}/delete", pages(withScreen(s.Name, h.Delete)))
	}
}

// withScreen sets the screen path value for handlers registered on a
// literal route.
func withScreen(name string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.SetPathValue("screen", name)
		fn(w, r)
	})
}
