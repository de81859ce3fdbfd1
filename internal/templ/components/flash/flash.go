// Package flash renders one-line status banners.
package flash

import (
	"context"
	"io"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
)

// Kind selects the banner colour.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Info    Kind = "info"
)

// Message is a banner to show above a page's content.
type Message struct {
	Kind Kind
	Text string
}

const baseClass = "rounded-md border px-4 py-3 text-sm"

var kindClass = map[Kind]string{
	Success: "border-green-200 bg-green-50 text-green-800",
	Error:   "border-red-200 bg-red-50 text-red-800",
	Info:    "border-zinc-200 bg-zinc-50 text-zinc-700",
}

// Banner renders msg. An empty message renders nothing. extra classes are
// merged over the defaults, so callers can override spacing or colour.
func Banner(msg Message, extra ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if msg.Text == "" {
			return nil
		}
		kind := msg.Kind
		if _, ok := kindClass[kind]; !ok {
			kind = Info
		}
		role := "status"
		if kind == Error {
			role = "alert"
		}
		class := twmerge.Merge(append([]string{baseClass, kindClass[kind]}, extra...)...)
		_, err := io.WriteString(w, `<div class="`+templ.EscapeString(class)+`" role="`+role+`" data-flash="`+string(kind)+`">`+
			templ.EscapeString(msg.Text)+`</div>`)
		return err
	})
}
