package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/treadline/internal/api/mock"
	"github.com/DukeRupert/treadline/internal/auth"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/session"
	"github.com/DukeRupert/treadline/web"
)

// =============================================================================
// Test Helpers
// =============================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testStore is an in-memory session.Store.
type testStore struct {
	mu    sync.Mutex
	slots map[session.Slot]string
}

func newTestStore() *testStore {
	return &testStore{slots: make(map[session.Slot]string)}
}

func (s *testStore) Get(_ context.Context, slot session.Slot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot], nil
}

func (s *testStore) Set(_ context.Context, slot session.Slot, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = value
	return nil
}

func (s *testStore) Delete(_ context.Context, slots ...session.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, slot := range slots {
		delete(s.slots, slot)
	}
	return nil
}

func (s *testStore) token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[session.TokenSlot]
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(RendererConfig{FS: web.Templates(), Logger: newTestLogger()})
	require.NoError(t, err)
	return r
}

func newTestScreens(t *testing.T) *screens.Registry {
	t.Helper()
	reg, err := screens.Default()
	require.NoError(t, err)
	return reg
}

// newSeededBackend returns a demo backend and a token valid on it.
func newSeededBackend() (*mock.Backend, string) {
	b := mock.New(newTestLogger())
	mock.Seed(b, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	token := b.IssueToken(domain.User{ID: "u-1", Name: "Test Operator", Email: "op@treadline.test"})
	return b, token
}

// withSession attaches a session over store to r, the way the auth gate
// does.
func withSession(r *http.Request, store *testStore) *http.Request {
	sess := session.New(store, 0, 0)
	user := &domain.User{ID: "u-1", Name: "Test Operator", Email: "op@treadline.test"}
	return r.WithContext(auth.WithSession(r.Context(), sess, user))
}

// signedInStore returns a store holding token.
func signedInStore(t *testing.T, token string) *testStore {
	t.Helper()
	store := newTestStore()
	require.NoError(t, store.Set(context.Background(), session.TokenSlot, token, 0))
	return store
}
