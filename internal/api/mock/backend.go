// Package mock provides an in-memory api.Backend for tests and for running
// the dashboard without a backend in development.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/pagination"
)

// Account is a sign-in the mock accepts.
type Account struct {
	Password string
	User     domain.User
}

// Backend is a mock REST backend.
type Backend struct {
	logger *slog.Logger

	mu       sync.Mutex
	rows     map[string][]domain.Row
	accounts map[string]Account // by email
	tokens   map[string]domain.User

	// Configurable behaviour for testing
	Latency     time.Duration
	ListError   error
	DeleteError error

	// Call tracking for testing
	ListCalls   []ListCall
	DeleteCalls []string
}

// ListCall records one List invocation.
type ListCall struct {
	Token    string
	Resource string
	Request  domain.ListRequest
}

var _ api.Backend = (*Backend)(nil)

// New creates an empty mock backend.
func New(logger *slog.Logger) *Backend {
	return &Backend{
		logger:   logger,
		rows:     make(map[string][]domain.Row),
		accounts: make(map[string]Account),
		tokens:   make(map[string]domain.User),
	}
}

// AddAccount registers credentials.
func (b *Backend) AddAccount(email, password string, user domain.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[strings.ToLower(email)] = Account{Password: password, User: user}
}

// IssueToken creates a valid token for user without a sign-in.
func (b *Backend) IssueToken(user domain.User) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := uuid.NewString()
	b.tokens[token] = user
	return token
}

// RevokeToken invalidates token, as if it expired on the backend.
func (b *Backend) RevokeToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// SetRows replaces the rows of resource.
func (b *Backend) SetRows(resource string, rows []domain.Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows[resource] = append([]domain.Row(nil), rows...)
}

// Rows returns a copy of the rows of resource.
func (b *Backend) Rows(resource string) []domain.Row {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Row(nil), b.rows[resource]...)
}

// SignIn implements api.Backend.
func (b *Backend) SignIn(ctx context.Context, params domain.SignInParams) (*domain.SignInResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[strings.ToLower(strings.TrimSpace(params.Email))]
	if !ok || acct.Password != params.Password {
		return nil, domain.Unauthorized("api.sign_in", "Invalid email or password")
	}
	token := uuid.NewString()
	b.tokens[token] = acct.User
	return &domain.SignInResult{Token: token, User: acct.User}, nil
}

// SignOut implements api.Backend.
func (b *Backend) SignOut(ctx context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
	return nil
}

// List implements api.Backend. Search matches case-insensitively against
// every field of a row.
func (b *Backend) List(ctx context.Context, token, resource string, req domain.ListRequest) (domain.ListResult[domain.Row], error) {
	b.mu.Lock()
	b.ListCalls = append(b.ListCalls, ListCall{Token: token, Resource: resource, Request: req})
	listErr := b.ListError
	b.mu.Unlock()

	if err := b.wait(ctx); err != nil {
		return domain.ListResult[domain.Row]{}, err
	}
	if listErr != nil {
		return domain.ListResult[domain.Row]{}, listErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tokens[token]; !ok {
		return domain.ListResult[domain.Row]{}, domain.Unauthorized("api.list", "Your session has expired. Please sign in again.")
	}
	if !api.KnownResource(resource) {
		return domain.ListResult[domain.Row]{}, domain.Invalid("api.list", fmt.Sprintf("Unknown resource %q.", resource))
	}

	matched := filter(b.rows[resource], req.Search)
	perPage := req.ItemsPerPage
	if perPage <= 0 {
		perPage = 10
	}
	page := req.CurrentPage
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	items := []domain.Row{}
	if start < len(matched) {
		end := min(start+perPage, len(matched))
		items = append(items, matched[start:end]...)
	}

	return domain.ListResult[domain.Row]{
		Items: items,
		Pagination: domain.Pagination{
			TotalPages: pagination.TotalPages(len(matched), perPage),
			TotalItems: len(matched),
		},
	}, nil
}

// Delete implements api.Backend.
func (b *Backend) Delete(ctx context.Context, token, resource, id string) error {
	if err := b.wait(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.DeleteCalls = append(b.DeleteCalls, resource+"/"+id)
	if b.DeleteError != nil {
		return b.DeleteError
	}
	if _, ok := b.tokens[token]; !ok {
		return domain.Unauthorized("api.delete", "Your session has expired. Please sign in again.")
	}

	rows := b.rows[resource]
	for i, r := range rows {
		if r.RowID() == id {
			b.rows[resource] = append(rows[:i:i], rows[i+1:]...)
			b.logger.Debug("Mock row deleted", "resource", resource, "id", id)
			return nil
		}
	}
	return domain.NotFound("api.delete", resource, id)
}

func (b *Backend) wait(ctx context.Context) error {
	if b.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(b.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func filter(rows []domain.Row, search string) []domain.Row {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return rows
	}
	var out []domain.Row
	for _, r := range rows {
		if strings.Contains(strings.ToLower(fmt.Sprintf("%+v", r)), term) {
			out = append(out, r)
		}
	}
	return out
}

// SortByID orders rows by id, for deterministic fixtures.
func SortByID(rows []domain.Row) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].RowID() < rows[j].RowID() })
}
