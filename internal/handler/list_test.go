package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/treadline/internal/api/mock"
	"github.com/DukeRupert/treadline/internal/domain"
)

type listFixture struct {
	handler *ListHandler
	backend *mock.Backend
	token   string
	store   *testStore
}

func newListFixture(t *testing.T) *listFixture {
	t.Helper()
	backend, token := newSeededBackend()
	h := NewListHandler(backend, newTestScreens(t), newTestRenderer(t), newTestLogger())
	return &listFixture{handler: h, backend: backend, token: token, store: signedInStore(t, token)}
}

// get serves a GET for screen through fn.
func (f *listFixture) get(fn http.HandlerFunc, screen, target string, header http.Header) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		r.Header[k] = v
	}
	r.SetPathValue("screen", screen)
	rec := httptest.NewRecorder()
	fn(rec, withSession(r, f.store))
	return rec
}

func (f *listFixture) delete(screen, id string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/"+screen+"/"+id+"/delete", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.SetPathValue("screen", screen)
	r.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	f.handler.Delete(rec, withSession(r, f.store))
	return rec
}

func hx() http.Header {
	return http.Header{"Hx-Request": {"true"}}
}

// =============================================================================
// GET /{screen}
// =============================================================================

func TestListPage_FirstPaint(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "brands", "/brands", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `data-live="/live/brands"`)
	assert.Contains(t, body, `data-mode="local"`)
	assert.Contains(t, body, `data-state="data"`)
	assert.Contains(t, body, "Michelin")
	assert.Contains(t, body, `href="/brands?page=2"`)
	assert.NotContains(t, body, "Toyo")
}

func TestListPage_URLModeScreen(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "products", "/products?page=3", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-mode="url"`)
	assert.Contains(t, rec.Body.String(), `data-page="3"`)
}

func TestListPage_Search(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "brands", "/brands?search=pirel", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="pirel"`)
	assert.Contains(t, body, "Pirelli")
	assert.NotContains(t, body, "Michelin")
}

func TestListPage_SearchWithoutMatches(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "brands", "/brands?search=zzz", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-state="empty"`)
}

func TestListPage_OutOfRangePageIsCorrected(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "brands", "/brands?page=9", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-page="2"`)
	assert.Contains(t, rec.Body.String(), "Toyo")
}

func TestListPage_DeletedBanner(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "brands", "/brands?page=1&deleted=1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Deleted.")
}

func TestListPage_HXRequestGetsFragment(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "brands", "/brands", hx())

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div id="list-brands"`))
}

func TestListPage_BackendError(t *testing.T) {
	f := newListFixture(t)
	f.backend.ListError = domain.Unavailable(nil, "api.list", "The server is not responding.")

	rec := f.get(f.handler.Page, "brands", "/brands", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-state="error"`)
	assert.Contains(t, rec.Body.String(), "The server is not responding.")
}

func TestListPage_RejectedTokenSignsOut(t *testing.T) {
	f := newListFixture(t)
	f.backend.RevokeToken(f.token)

	rec := f.get(f.handler.Page, "brands", "/brands?page=2", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?expired=1&return_to=%2Fbrands%3Fpage%3D2", rec.Header().Get("Location"))
	assert.Empty(t, f.store.token(), "rejected token should be cleared")
}

func TestListPage_UnknownScreen(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Page, "nope", "/nope", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// GET /{screen}/rows
// =============================================================================

func TestListRows(t *testing.T) {
	f := newListFixture(t)

	rec := f.get(f.handler.Rows, "brands", "/brands/rows?page=2", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `<div id="list-brands"`))
	assert.Contains(t, body, `data-page="2"`)
	assert.Contains(t, body, "Vredestein")
}

func TestListRows_RejectedTokenHXRedirect(t *testing.T) {
	f := newListFixture(t)
	f.backend.RevokeToken(f.token)

	rec := f.get(f.handler.Rows, "brands", "/brands/rows?page=1&search=pirel", hx())

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login?expired=1&return_to=%2Fbrands%3Fpage%3D1%26search%3Dpirel", rec.Header().Get("HX-Redirect"))
}

// =============================================================================
// POST /{screen}/{id}/delete
// =============================================================================

func TestListDelete(t *testing.T) {
	f := newListFixture(t)

	rec := f.delete("brands", "b-01", url.Values{
		"page": {"1"}, "total_pages": {"2"}, "items": {"10"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/brands?deleted=1&page=1", rec.Header().Get("Location"))
	assert.Len(t, f.backend.Rows(domain.ResourceBrands), 11)
}

func TestListDelete_LastRowOnLastPageStepsBack(t *testing.T) {
	f := newListFixture(t)

	rec := f.delete("brands", "b-12", url.Values{
		"page": {"2"}, "total_pages": {"2"}, "items": {"1"}, "search": {"  "},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/brands?deleted=1&page=1", rec.Header().Get("Location"))
}

func TestListDelete_KeepsSearch(t *testing.T) {
	f := newListFixture(t)

	rec := f.delete("products", "p-001", url.Values{
		"page": {"1"}, "total_pages": {"1"}, "items": {"5"}, "search": {" Michelin "},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products?deleted=1&page=1&search=Michelin", rec.Header().Get("Location"))
}

func TestListDelete_Failure(t *testing.T) {
	f := newListFixture(t)

	rec := f.delete("brands", "b-missing", url.Values{
		"page": {"1"}, "total_pages": {"2"}, "items": {"10"},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-flash="error"`)
	assert.Contains(t, body, "not found")
	assert.Contains(t, body, "Michelin")
	assert.Len(t, f.backend.Rows(domain.ResourceBrands), 12)
}

func TestListDelete_RejectedToken(t *testing.T) {
	f := newListFixture(t)
	f.backend.RevokeToken(f.token)

	rec := f.delete("brands", "b-01", url.Values{"page": {"2"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?expired=1&return_to=%2Fbrands%3Fpage%3D2", rec.Header().Get("Location"))
	assert.Len(t, f.backend.Rows(domain.ResourceBrands), 12)
}

// =============================================================================
// Routes
// =============================================================================

func TestListHandler_RegisterRoutes(t *testing.T) {
	f := newListFixture(t)

	var calls []string
	pages := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, r.Method+" "+r.URL.Path)
			next.ServeHTTP(w, withSession(r, f.store))
		})
	}

	mux := http.NewServeMux()
	f.handler.RegisterRoutes(mux, pages)

	serve := func(method, target string, body url.Values) int {
		var r *http.Request
		if body != nil {
			r = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			r = httptest.NewRequest(method, target, nil)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/contacts", nil))
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/measurements/rows?page=2", nil))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, serve(http.MethodPost, "/brands/b-03/delete", url.Values{"page": {"1"}}))

	assert.Equal(t, []string{
		"GET /contacts",
		"GET /measurements/rows",
		"POST /brands/b-03/delete",
	}, calls)
	assert.Len(t, f.backend.Rows(domain.ResourceBrands), 11)
}
