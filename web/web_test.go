package web

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_ServesLiveClient(t *testing.T) {
	raw, err := fs.ReadFile(Static(), "live.js")
	require.NoError(t, err)
	src := string(raw)

	// The HTTP fallback aborts the previous request and paints only the
	// response for the latest one, so a slow earlier search cannot
	// overwrite a later one.
	assert.Contains(t, src, "var seq = ++fallbackSeq;")
	assert.Contains(t, src, "fallbackAbort.abort();")
	assert.Equal(t, 2, strings.Count(src, "seq === fallbackSeq")+strings.Count(src, "seq !== fallbackSeq"))
}

func TestTemplates_HasLayouts(t *testing.T) {
	entries, err := fs.ReadDir(Templates(), ".")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
