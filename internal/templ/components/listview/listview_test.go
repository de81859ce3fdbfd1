package listview

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/listquery"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/templ/components/flash"
)

func brandsScreen(t *testing.T) screens.Screen {
	t.Helper()
	reg, err := screens.Default()
	require.NoError(t, err)
	s, ok := reg.Get("brands")
	require.True(t, ok)
	return s
}

func render(t *testing.T, v View) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Fragment(v).Render(context.Background(), &buf))
	return buf.String()
}

func loadedState(items ...domain.Row) listquery.State[domain.Row] {
	return listquery.State[domain.Row]{
		CurrentPage:  1,
		TotalPages:   1,
		ItemsPerPage: 10,
		TotalItems:   len(items),
		Items:        items,
		Loaded:       true,
		Version:      4,
	}
}

func TestFragment_Loading(t *testing.T) {
	st := listquery.State[domain.Row]{CurrentPage: 1, TotalPages: 1, ItemsPerPage: 10, Loading: true}
	html := render(t, New(brandsScreen(t), st, "tok"))

	assert.Contains(t, html, `id="list-brands"`)
	assert.Contains(t, html, `data-state="loading"`)
	assert.Contains(t, html, `aria-busy="true"`)
	assert.NotContains(t, html, "<table")
}

func TestFragment_Rows(t *testing.T) {
	st := loadedState(
		domain.Brand{ID: "b1", Name: "Michelin", Country: "France", ProductCount: 12},
		domain.Brand{ID: "b/2", Name: "<Nokian>", Country: "Finland"},
	)
	html := render(t, New(brandsScreen(t), st, "tok"))

	assert.Contains(t, html, `data-version="4"`)
	assert.Contains(t, html, "Michelin")
	assert.Contains(t, html, "&lt;Nokian&gt;", "cells are escaped")
	assert.Contains(t, html, `action="/brands/b%2F2/delete"`, "ids are path-escaped")
	assert.Contains(t, html, `name="csrf_token" value="tok"`)
	assert.Contains(t, html, `name="items" value="2"`)
	assert.NotContains(t, html, `aria-label="Pagination"`, "single page has no nav")
}

func TestFragment_Error(t *testing.T) {
	st := loadedState()
	st.Error = "Could not reach the server. Please try again."
	html := render(t, New(brandsScreen(t), st, ""))

	assert.Contains(t, html, `data-state="error"`)
	assert.Contains(t, html, "Could not reach the server.")
	assert.Contains(t, html, `data-action="reload"`)
	assert.NotContains(t, html, `data-state="empty"`)
}

func TestFragment_Empty(t *testing.T) {
	v := New(brandsScreen(t), loadedState(), "")
	assert.Contains(t, render(t, v), "No brands yet.")

	st := loadedState()
	st.DebouncedSearch = "zzz"
	assert.Contains(t, render(t, New(brandsScreen(t), st, "")), "No results for &#34;zzz&#34;.")
}

func TestFragment_RefreshingKeepsRows(t *testing.T) {
	st := loadedState(domain.Brand{ID: "b1", Name: "Pirelli"})
	st.Loading = true
	html := render(t, New(brandsScreen(t), st, ""))

	assert.Contains(t, html, "Pirelli")
	assert.Contains(t, html, `data-state="refreshing"`)
}

func TestFragment_PaginationCarriesSearch(t *testing.T) {
	st := loadedState(domain.Brand{ID: "b1", Name: "Pirelli"})
	st.CurrentPage, st.TotalPages, st.TotalItems = 2, 3, 25
	st.DebouncedSearch = "all season"
	html := render(t, New(brandsScreen(t), st, ""))

	assert.Contains(t, html, `href="/brands?page=3&amp;search=all+season"`)
	assert.Contains(t, html, `data-page="1"`)
	assert.Contains(t, html, `aria-current="page">2<`)
}

func TestFragment_Flash(t *testing.T) {
	v := New(brandsScreen(t), loadedState(), "")
	v.Flash = flash.Message{Kind: flash.Error, Text: "Brand still has products"}
	assert.Contains(t, render(t, v), `data-flash="error"`)
}
