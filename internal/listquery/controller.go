// Package listquery drives a paginated, searchable list against a remote
// fetch call.
//
// A Controller owns the list state for one screen instance. Page changes
// fetch immediately; search input is debounced before it reaches the fetch
// request, and a new search always starts again from page 1. Every fetch is
// tagged with a sequence number and the previous fetch is cancelled, so a
// slow response for superseded state is never applied.
//
// Pagination state can live in the controller alone (ModeLocal) or be
// mirrored into the navigable URL (ModeURL) through a Navigator.
package listquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DukeRupert/treadline/internal/clock"
	"github.com/DukeRupert/treadline/internal/debounce"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/metrics"
	"github.com/DukeRupert/treadline/internal/pagination"
)

// DefaultSearchDelay is the quiet period before a search term is fetched.
const DefaultSearchDelay = 300 * time.Millisecond

// =============================================================================
// Collaborators
// =============================================================================

// Fetcher loads one page of rows.
type Fetcher[T any] interface {
	List(ctx context.Context, req domain.ListRequest) (domain.ListResult[T], error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc[T any] func(ctx context.Context, req domain.ListRequest) (domain.ListResult[T], error)

// List calls f.
func (f FetchFunc[T]) List(ctx context.Context, req domain.ListRequest) (domain.ListResult[T], error) {
	return f(ctx, req)
}

// Navigator rewrites the query string of the page the list lives on.
// replace=true rewrites the current history entry instead of adding one.
type Navigator interface {
	Navigate(query url.Values, replace bool)
}

// Mode selects where pagination state is persisted.
type Mode int

const (
	// ModeLocal keeps page and search in the controller only.
	ModeLocal Mode = iota

	// ModeURL mirrors page and search into the URL query string.
	ModeURL
)

func (m Mode) String() string {
	switch m {
	case ModeLocal:
		return "local"
	case ModeURL:
		return "url"
	}
	return "unknown"
}

// ParseMode parses "local" or "url".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return ModeLocal, nil
	case "url":
		return ModeURL, nil
	}
	return ModeLocal, fmt.Errorf("pagination mode must be 'local' or 'url', got: %q", s)
}

// =============================================================================
// State
// =============================================================================

// State is a snapshot of a list screen.
type State[T any] struct {
	CurrentPage     int
	TotalPages      int
	ItemsPerPage    int
	TotalItems      int
	SearchTerm      string // as typed
	DebouncedSearch string // term sent with the latest fetch
	Items           []T
	Loading         bool
	Loaded          bool // at least one fetch has completed
	Error           string
	ErrorCode       string
	Version         uint64
}

// IsEmpty reports a successful load with no matching rows at all.
func (s State[T]) IsEmpty() bool {
	return s.Loaded && !s.Loading && s.Error == "" && s.TotalItems == 0 && len(s.Items) == 0
}

// Pagination returns display data for the snapshot.
func (s State[T]) Pagination() pagination.Data {
	return pagination.NewData(s.CurrentPage, s.TotalPages, s.ItemsPerPage, s.TotalItems)
}

// Options configures a Controller.
type Options[T any] struct {
	// Name labels metrics and log lines, e.g. "products".
	Name string

	ItemsPerPage int

	// SearchDelay defaults to DefaultSearchDelay. Zero is only used when
	// ImmediateSearch is set.
	SearchDelay     time.Duration
	ImmediateSearch bool

	Mode      Mode
	Navigator Navigator // required for ModeURL

	InitialPage   int
	InitialSearch string

	// Normalize is applied to search input before it is debounced and
	// fetched. Defaults to NormalizeSearch.
	Normalize func(string) string

	// OnChange receives every state change in order. It must not call back
	// into the Controller synchronously.
	OnChange func(State[T])

	Clock  clock.Clock
	Logger *slog.Logger
}

// =============================================================================
// Controller
// =============================================================================

// Controller coordinates page, search and fetch state for one list view.
type Controller[T any] struct {
	fetcher   Fetcher[T]
	name      string
	mode      Mode
	navigator Navigator
	normalize func(string) string
	onChange  func(State[T])
	clock     clock.Clock
	logger    *slog.Logger
	search    *debounce.Debouncer[string]

	base     context.Context
	shutdown context.CancelFunc
	closed   atomic.Bool
	inflight sync.WaitGroup

	mu         sync.Mutex
	state      State[T]
	seq        uint64
	cancel     context.CancelFunc
	lastReq    domain.ListRequest
	started    bool
	correcting bool

	deliverMu sync.Mutex
	delivered uint64
}

// New creates a Controller. Call Start to issue the first fetch.
func New[T any](fetcher Fetcher[T], opts Options[T]) *Controller[T] {
	if opts.ItemsPerPage <= 0 {
		opts.ItemsPerPage = 10
	}
	if opts.SearchDelay <= 0 && !opts.ImmediateSearch {
		opts.SearchDelay = DefaultSearchDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Normalize == nil {
		opts.Normalize = NormalizeSearch
	}
	if opts.Name == "" {
		opts.Name = "list"
	}
	if opts.InitialPage < 1 {
		opts.InitialPage = 1
	}

	base, shutdown := context.WithCancel(context.Background())
	term := opts.Normalize(opts.InitialSearch)

	c := &Controller[T]{
		fetcher:   fetcher,
		name:      opts.Name,
		mode:      opts.Mode,
		navigator: opts.Navigator,
		normalize: opts.Normalize,
		onChange:  opts.OnChange,
		clock:     opts.Clock,
		logger:    opts.Logger.With("component", "listquery", "screen", opts.Name),
		base:      base,
		shutdown:  shutdown,
		state: State[T]{
			CurrentPage:     opts.InitialPage,
			TotalPages:      1,
			ItemsPerPage:    opts.ItemsPerPage,
			SearchTerm:      opts.InitialSearch,
			DebouncedSearch: term,
		},
	}
	c.search = debounce.New(opts.Clock, opts.SearchDelay, term, c.searchSettled)
	return c
}

// Start issues the initial fetch. Later calls do nothing.
func (c *Controller[T]) Start() {
	c.mu.Lock()
	if c.started || c.closed.Load() {
		c.mu.Unlock()
		return
	}
	c.started = true
	snap, launch := c.triggerLocked()
	c.mu.Unlock()

	c.notify(snap)
	launch()
}

// SetSearch records raw search input. The page resets to 1 right away; the
// fetch waits until the input has been quiet for the search delay.
func (c *Controller[T]) SetSearch(raw string) {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	c.state.SearchTerm = raw
	c.state.CurrentPage = 1
	if c.cancel != nil {
		c.supersedeLocked()
	}
	c.state.Version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.mode == ModeURL {
		c.navigate(1, raw, true)
	}
	c.notify(snap)
	c.search.Set(c.normalize(raw))
}

// supersedeLocked drops the in-flight fetch so its response is discarded.
// Loading stays set and lastReq is forgotten, so the next settle fetches
// even when it lands on the request that was dropped.
func (c *Controller[T]) supersedeLocked() {
	c.seq++
	c.cancel()
	c.cancel = nil
	c.lastReq = domain.ListRequest{}
	c.correcting = false
}

// SetPage moves to page n (values below 1 become 1) and fetches immediately.
func (c *Controller[T]) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	req := c.requestLocked()
	req.CurrentPage = n
	if c.started && req == c.lastReq && c.state.Error == "" {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.state.CurrentPage = n
	snap, launch := c.triggerLocked()
	raw := c.state.SearchTerm
	c.mu.Unlock()

	if c.mode == ModeURL {
		c.navigate(n, raw, false)
	}
	c.notify(snap)
	launch()
}

// Sync adopts page and search from a URL the user navigated to. The search
// term is applied without debouncing and the fetch is immediate. The
// navigator is not called because the URL is already the source.
func (c *Controller[T]) Sync(page int, search string) {
	if page < 1 {
		page = 1
	}
	if c.closed.Load() {
		return
	}
	term := c.normalize(search)
	c.search.Reset(term)

	c.mu.Lock()
	c.started = true
	c.state.CurrentPage = page
	c.state.SearchTerm = search
	c.state.DebouncedSearch = term
	snap, launch := c.triggerLocked()
	c.mu.Unlock()

	c.notify(snap)
	launch()
}

// Reload fetches the current state again, e.g. after an error.
func (c *Controller[T]) Reload() {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	c.started = true
	snap, launch := c.triggerLocked()
	c.mu.Unlock()

	c.notify(snap)
	launch()
}

// ItemDeleted is called after one visible row was deleted remotely. When the
// row was the only one on the last page the list steps back a page; either
// way the list is refetched.
func (c *Controller[T]) ItemDeleted() {
	if c.closed.Load() {
		return
	}

	c.mu.Lock()
	current := c.state.CurrentPage
	next := pagination.CalculatePageAfterDeletion(len(c.state.Items), current, c.state.TotalPages)
	c.started = true
	c.state.CurrentPage = next
	snap, launch := c.triggerLocked()
	raw := c.state.SearchTerm
	c.mu.Unlock()

	if c.mode == ModeURL && next != current {
		c.navigate(next, raw, true)
	}
	c.notify(snap)
	launch()
}

// State returns a snapshot of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Wait blocks until every fetch started so far has returned.
func (c *Controller[T]) Wait() {
	c.inflight.Wait()
}

// Close stops the debouncer, cancels any fetch in flight and suppresses
// further notifications. It does not wait for fetches to return.
func (c *Controller[T]) Close() {
	if c.closed.Swap(true) {
		return
	}
	c.search.Stop()
	c.shutdown()
}

// =============================================================================
// Internals
// =============================================================================

func (c *Controller[T]) searchSettled(term string) {
	if c.closed.Load() {
		return
	}
	metrics.SearchSettled(c.name)

	c.mu.Lock()
	c.state.DebouncedSearch = term
	req := c.requestLocked()
	if c.started && req == c.lastReq && c.state.Error == "" {
		c.mu.Unlock()
		return
	}
	c.started = true
	snap, launch := c.triggerLocked()
	c.mu.Unlock()

	c.notify(snap)
	launch()
}

func (c *Controller[T]) requestLocked() domain.ListRequest {
	return domain.ListRequest{
		CurrentPage:  c.state.CurrentPage,
		ItemsPerPage: c.state.ItemsPerPage,
		Search:       c.state.DebouncedSearch,
	}
}

// triggerLocked marks the state as loading and prepares a fetch for it. The
// returned launch func must be called after c.mu is released.
func (c *Controller[T]) triggerLocked() (State[T], func()) {
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	req := c.requestLocked()
	c.lastReq = req
	c.state.Loading = true
	c.state.Error = ""
	c.state.ErrorCode = ""
	c.state.Version++
	snap := c.snapshotLocked()

	c.inflight.Add(1)
	return snap, func() {
		go c.fetch(ctx, cancel, seq, req)
	}
}

func (c *Controller[T]) fetch(ctx context.Context, cancel context.CancelFunc, seq uint64, req domain.ListRequest) {
	defer c.inflight.Done()
	defer cancel()

	start := c.clock.Now()
	result, err := c.fetcher.List(ctx, req)
	metrics.ListFetchObserved(c.name, c.clock.Now().Sub(start))

	c.mu.Lock()
	if c.closed.Load() || seq != c.seq {
		c.mu.Unlock()
		metrics.ListFetchStale(c.name)
		c.logger.Debug("discarding stale list response",
			"page", req.CurrentPage,
			"search", req.Search,
		)
		return
	}
	c.cancel = nil

	if err != nil {
		c.applyErrorLocked(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()

		metrics.ListFetchFailed(c.name)
		c.logger.Warn("list fetch failed",
			"page", req.CurrentPage,
			"search", req.Search,
			"error", err,
		)
		c.notify(snap)
		return
	}

	c.applyResultLocked(result)
	metrics.ListFetchApplied(c.name)

	// The requested page no longer exists, e.g. rows were removed by someone
	// else. Step back to the last page once.
	if req.CurrentPage > c.state.TotalPages && len(result.Items) == 0 && !c.correcting {
		c.correcting = true
		c.state.CurrentPage = c.state.TotalPages
		snap, launch := c.triggerLocked()
		raw := c.state.SearchTerm
		page := c.state.CurrentPage
		c.mu.Unlock()

		if c.mode == ModeURL {
			c.navigate(page, raw, true)
		}
		c.notify(snap)
		launch()
		return
	}
	c.correcting = false

	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller[T]) applyResultLocked(result domain.ListResult[T]) {
	items := result.Items
	if len(items) > c.state.ItemsPerPage {
		items = items[:c.state.ItemsPerPage]
	}
	totalPages := result.Pagination.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}

	c.state.Items = items
	c.state.TotalPages = totalPages
	c.state.TotalItems = result.Pagination.TotalItems
	c.state.Loading = false
	c.state.Loaded = true
	c.state.Version++
}

// applyErrorLocked clears rows and totals together so the error banner never
// sits above stale data.
func (c *Controller[T]) applyErrorLocked(err error) {
	c.state.Items = nil
	c.state.TotalPages = 1
	c.state.TotalItems = 0
	c.state.Loading = false
	c.state.Loaded = true
	c.state.Error = errorText(err)
	c.state.ErrorCode = domain.ErrorCode(err)
	c.state.Version++
	c.correcting = false
}

func (c *Controller[T]) snapshotLocked() State[T] {
	snap := c.state
	if c.state.Items != nil {
		snap.Items = append([]T(nil), c.state.Items...)
	}
	return snap
}

// notify delivers snap unless a newer state has already been delivered.
func (c *Controller[T]) notify(snap State[T]) {
	if c.onChange == nil {
		return
	}
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	if c.closed.Load() || snap.Version <= c.delivered {
		return
	}
	c.delivered = snap.Version
	c.onChange(snap)
}

func (c *Controller[T]) navigate(page int, search string, replace bool) {
	if c.navigator == nil {
		c.logger.Error("url pagination mode without a navigator")
		return
	}
	c.navigator.Navigate(Query(page, search), replace)
}

// Query builds the list query string for page and search.
func Query(page int, search string) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if search != "" {
		q.Set("search", search)
	}
	return q
}

func errorText(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return domain.ErrorMessage(err)
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Failed to load results. Please try again."
}
