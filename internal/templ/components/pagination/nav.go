// Package pagination renders the page navigation shared by list screens.
package pagination

import (
	"context"
	"io"
	"net/url"
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"

	pages "github.com/DukeRupert/treadline/internal/pagination"
)

// Config allows customization of pagination behavior.
type Config struct {
	BaseURL string // e.g., "/products"
	Search  string // carried on every page link
	Class   string // merged over the default nav classes
}

const (
	navClass      = "flex items-center justify-between border-t border-zinc-200 px-4 py-3 text-sm"
	linkClass     = "rounded-md px-3 py-1.5 text-zinc-700 hover:bg-zinc-100"
	currentClass  = "bg-zinc-900 text-white hover:bg-zinc-900"
	disabledClass = "pointer-events-none text-zinc-300"
)

// PageURL returns the link for page within cfg's list.
func (cfg Config) PageURL(page int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if cfg.Search != "" {
		q.Set("search", cfg.Search)
	}
	return cfg.BaseURL + "?" + q.Encode()
}

// Nav renders previous/next links and the page window. Links carry
// data-page so the live client can take over navigation; without it they
// are plain links. Nothing is rendered for a single page.
func Nav(data pages.Data, cfg Config) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if data.TotalPages <= 1 {
			return nil
		}
		sw := &stickyWriter{w: w}

		sw.write(`<nav class="`, templ.EscapeString(twmerge.Merge(navClass, cfg.Class)), `" aria-label="Pagination">`)
		sw.write(`<p class="text-zinc-500">Page `, strconv.Itoa(data.CurrentPage), ` of `, strconv.Itoa(data.TotalPages),
			` &middot; `, strconv.Itoa(data.Total), ` results</p><div class="flex gap-1">`)

		sw.link(cfg, data.PrevPage, "Previous", !data.HasPrevious, false)
		for _, p := range data.Pages {
			if p < 0 {
				sw.write(`<span class="px-2 py-1.5 text-zinc-400">&hellip;</span>`)
				continue
			}
			sw.link(cfg, p, strconv.Itoa(p), false, p == data.CurrentPage)
		}
		sw.link(cfg, data.NextPage, "Next", !data.HasNext, false)

		sw.write(`</div></nav>`)
		return sw.err
	})
}

func (sw *stickyWriter) link(cfg Config, page int, label string, disabled, current bool) {
	switch {
	case disabled:
		sw.write(`<span class="`, twmerge.Merge(linkClass, disabledClass), `" aria-disabled="true">`, label, `</span>`)
	case current:
		sw.write(`<span class="`, twmerge.Merge(linkClass, currentClass), `" aria-current="page">`, label, `</span>`)
	default:
		sw.write(`<a class="`, linkClass, `" href="`, templ.EscapeString(cfg.PageURL(page)),
			`" data-page="`, strconv.Itoa(page), `">`, label, `</a>`)
	}
}

// stickyWriter keeps the first write error so rendering code can stay linear.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (sw *stickyWriter) write(parts ...string) {
	for _, p := range parts {
		if sw.err != nil {
			return
		}
		_, sw.err = io.WriteString(sw.w, p)
	}
}
