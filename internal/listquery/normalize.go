package listquery

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxSearchLen caps the search term sent to the API, in runes.
const maxSearchLen = 100

// NormalizeSearch prepares raw search input for the API: NFC composition,
// control characters removed, whitespace collapsed and trimmed, length capped.
// Case is preserved; matching is the backend's concern.
func NormalizeSearch(raw string) string {
	s := norm.NFC.String(raw)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	n := 0
	for _, r := range s {
		if n >= maxSearchLen {
			break
		}
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			if n+2 > maxSearchLen {
				break
			}
			b.WriteByte(' ')
			n++
			space = false
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}
