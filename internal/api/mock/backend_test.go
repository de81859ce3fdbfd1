package mock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/treadline/internal/domain"
)

func newSeeded(t *testing.T) (*Backend, string) {
	t.Helper()
	b := New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	Seed(b, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	res, err := b.SignIn(context.Background(), domain.SignInParams{Email: DemoEmail, Password: DemoPassword})
	require.NoError(t, err)
	return b, res.Token
}

func TestBackend_SignIn(t *testing.T) {
	b, token := newSeeded(t)
	assert.NotEmpty(t, token)

	_, err := b.SignIn(context.Background(), domain.SignInParams{Email: DemoEmail, Password: "nope"})
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	assert.Equal(t, "Invalid email or password", domain.ErrorMessage(err))
}

func TestBackend_ListPaginates(t *testing.T) {
	b, token := newSeeded(t)

	res, err := b.List(context.Background(), token, domain.ResourceProducts, domain.ListRequest{CurrentPage: 6, ItemsPerPage: 10})
	require.NoError(t, err)
	assert.Len(t, res.Items, 7)
	assert.Equal(t, domain.Pagination{TotalPages: 6, TotalItems: 57}, res.Pagination)

	res, err = b.List(context.Background(), token, domain.ResourceProducts, domain.ListRequest{CurrentPage: 9, ItemsPerPage: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}

func TestBackend_ListSearches(t *testing.T) {
	b, token := newSeeded(t)

	res, err := b.List(context.Background(), token, domain.ResourceBrands, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10, Search: "pIRELLI"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Pirelli", res.Items[0].Cell("name"))
}

func TestBackend_ListRequiresValidToken(t *testing.T) {
	b, token := newSeeded(t)
	b.RevokeToken(token)

	_, err := b.List(context.Background(), token, domain.ResourceBrands, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10})
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestBackend_Delete(t *testing.T) {
	b, token := newSeeded(t)
	before := len(b.Rows(domain.ResourceBrands))

	require.NoError(t, b.Delete(context.Background(), token, domain.ResourceBrands, "b-03"))
	assert.Len(t, b.Rows(domain.ResourceBrands), before-1)
	assert.Equal(t, []string{"brands/b-03"}, b.DeleteCalls)

	err := b.Delete(context.Background(), token, domain.ResourceBrands, "b-03")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestBackend_LatencyHonoursContext(t *testing.T) {
	b, token := newSeeded(t)
	b.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := b.List(ctx, token, domain.ResourceBrands, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
