// Package listview renders the results region of a list screen: the table,
// its loading, error and empty states, and the page navigation.
//
// The same fragment is served on first paint, by the rows endpoint and over
// live sessions, so the three paths cannot drift apart.
package listview

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/listquery"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/templ/components/flash"
	"github.com/DukeRupert/treadline/internal/templ/components/pagination"
)

// View is everything the fragment needs.
type View struct {
	Screen    screens.Screen
	State     listquery.State[domain.Row]
	CSRFToken string
	Flash     flash.Message
}

// New builds a view for one state snapshot.
func New(screen screens.Screen, state listquery.State[domain.Row], csrfToken string) View {
	return View{Screen: screen, State: state, CSRFToken: csrfToken}
}

// ID is the DOM id of the fragment's root element.
func (v View) ID() string {
	return "list-" + v.Screen.Name
}

// Pager returns the pagination config for the view's current search.
func (v View) Pager() pagination.Config {
	return pagination.Config{BaseURL: v.Screen.Path(), Search: v.State.DebouncedSearch}
}

// EmptyMessage is shown when a load succeeds with no rows.
func (v View) EmptyMessage() string {
	if v.State.DebouncedSearch != "" {
		return `No results for "` + v.State.DebouncedSearch + `".`
	}
	return "No " + lowerText(v.Screen.Title) + " yet."
}

// lowerText lower-cases display text. Casers keep state, so each call gets
// its own.
func lowerText(s string) string {
	return cases.Lower(language.English).String(s)
}

// Fragment renders the results region.
func Fragment(v View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		st := v.State
		busy := "false"
		if st.Loading {
			busy = "true"
		}

		r := &renderer{w: w}
		r.raw(`<div id="`, esc(v.ID()), `" class="relative" data-version="`, strconv.FormatUint(st.Version, 10),
			`" data-page="`, strconv.Itoa(st.CurrentPage), `" aria-busy="`, busy, `">`)

		if err := flash.Banner(v.Flash, "mb-4").Render(ctx, w); err != nil {
			return err
		}

		switch {
		case st.Error != "":
			r.raw(`<div class="rounded-md border border-red-200 bg-red-50 px-4 py-3 text-sm text-red-800" role="alert" data-state="error">`,
				`<p>`, esc(st.Error), `</p>`,
				`<a class="mt-2 inline-block font-medium underline" href="`, esc(v.Pager().PageURL(st.CurrentPage)), `" data-action="reload">Try again</a>`,
				`</div>`)
		case !st.Loaded:
			r.raw(`<p class="px-4 py-8 text-center text-sm text-zinc-500" data-state="loading">Loading&hellip;</p>`)
		case st.IsEmpty():
			r.raw(`<p class="px-4 py-8 text-center text-sm text-zinc-500" data-state="empty">`, esc(v.EmptyMessage()), `</p>`)
		default:
			r.table(v)
		}

		if st.Loading && st.Loaded {
			r.raw(`<div class="absolute inset-0 bg-white/60" data-state="refreshing"></div>`)
		}
		if r.err != nil {
			return r.err
		}

		if st.Error == "" {
			if err := pagination.Nav(st.Pagination(), v.Pager()).Render(ctx, w); err != nil {
				return err
			}
		}

		r.raw(`</div>`)
		return r.err
	})
}

func (r *renderer) table(v View) {
	r.raw(`<table class="min-w-full divide-y divide-zinc-200 text-sm" data-state="data"><thead><tr>`)
	for _, c := range v.Screen.Columns {
		r.raw(`<th scope="col" class="px-4 py-2 text-left font-medium text-zinc-600">`, esc(c.Label), `</th>`)
	}
	r.raw(`<th scope="col" class="px-4 py-2"><span class="sr-only">Actions</span></th></tr></thead><tbody class="divide-y divide-zinc-100">`)

	for _, row := range v.State.Items {
		id := row.RowID()
		r.raw(`<tr data-id="`, esc(id), `">`)
		for _, c := range v.Screen.Columns {
			r.raw(`<td class="px-4 py-2 text-zinc-800">`, esc(row.Cell(c.Key)), `</td>`)
		}
		r.raw(`<td class="px-4 py-2 text-right">`)
		r.deleteForm(v, id)
		r.raw(`</td></tr>`)
	}
	r.raw(`</tbody></table>`)
}

// deleteForm posts to the delete route. The hidden fields let the server
// work out the page to return to without a second fetch.
func (r *renderer) deleteForm(v View, id string) {
	st := v.State
	action := v.Screen.Path() + "/" + url.PathEscape(id) + "/delete"
	r.raw(`<form method="post" action="`, esc(action), `" data-action="delete" data-id="`, esc(id), `">`,
		`<input type="hidden" name="csrf_token" value="`, esc(v.CSRFToken), `">`,
		`<input type="hidden" name="page" value="`, strconv.Itoa(st.CurrentPage), `">`,
		`<input type="hidden" name="total_pages" value="`, strconv.Itoa(st.TotalPages), `">`,
		`<input type="hidden" name="items" value="`, strconv.Itoa(len(st.Items)), `">`,
		`<input type="hidden" name="search" value="`, esc(st.DebouncedSearch), `">`,
		`<button type="submit" class="text-red-600 hover:text-red-800">Delete<span class="sr-only"> `, esc(lowerText(v.Screen.Title)), ` `, esc(id), `</span></button>`,
		`</form>`)
}

type renderer struct {
	w   io.Writer
	err error
}

func (r *renderer) raw(parts ...string) {
	for _, p := range parts {
		if r.err != nil {
			return
		}
		_, r.err = io.WriteString(r.w, p)
	}
}

func esc(s string) string {
	return templ.EscapeString(s)
}
