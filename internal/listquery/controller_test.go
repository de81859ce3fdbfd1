package listquery

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/treadline/internal/clock"
	"github.com/DukeRupert/treadline/internal/domain"
)

// =============================================================================
// Test Helpers
// =============================================================================

type tyre struct {
	ID   int
	Name string
}

// stubFetcher answers every request immediately and records it.
type stubFetcher struct {
	mu       sync.Mutex
	requests []domain.ListRequest
	respond  func(req domain.ListRequest) (domain.ListResult[tyre], error)
}

func (f *stubFetcher) List(ctx context.Context, req domain.ListRequest) (domain.ListResult[tyre], error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return pageOf(req.CurrentPage, 3, 25), nil
	}
	return respond(req)
}

func (f *stubFetcher) Requests() []domain.ListRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ListRequest(nil), f.requests...)
}

// pendingCall is a request held by gatedFetcher until the test answers it.
type pendingCall struct {
	ctx   context.Context
	req   domain.ListRequest
	reply chan fetchReply
}

type fetchReply struct {
	result domain.ListResult[tyre]
	err    error
}

func (c *pendingCall) Succeed(result domain.ListResult[tyre]) {
	c.reply <- fetchReply{result: result}
}

func (c *pendingCall) Fail(err error) {
	c.reply <- fetchReply{err: err}
}

// gatedFetcher blocks each request until the test replies, so responses can
// be delivered in any order.
type gatedFetcher struct {
	calls chan *pendingCall
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan *pendingCall, 16)}
}

func (f *gatedFetcher) List(ctx context.Context, req domain.ListRequest) (domain.ListResult[tyre], error) {
	call := &pendingCall{ctx: ctx, req: req, reply: make(chan fetchReply, 1)}
	f.calls <- call
	r := <-call.reply
	return r.result, r.err
}

func (f *gatedFetcher) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch, none was issued")
		return nil
	}
}

func (f *gatedFetcher) assertIdle(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected fetch: %+v", call.req)
	case <-time.After(20 * time.Millisecond):
	}
}

// pageOf builds a full page of tyres for page n.
func pageOf(n, totalPages, totalItems int) domain.ListResult[tyre] {
	items := make([]tyre, 0, 10)
	for i := 0; i < 10; i++ {
		id := (n-1)*10 + i + 1
		items = append(items, tyre{ID: id, Name: "tyre"})
	}
	return domain.ListResult[tyre]{
		Items:      items,
		Pagination: domain.Pagination{TotalPages: totalPages, TotalItems: totalItems},
	}
}

type navigation struct {
	Query   url.Values
	Replace bool
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navigation
}

func (n *recordingNavigator) Navigate(query url.Values, replace bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, navigation{Query: query, Replace: replace})
}

func (n *recordingNavigator) Calls() []navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navigation(nil), n.calls...)
}

func newClock() *clock.FakeClock {
	return clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func newController(f Fetcher[tyre], clk clock.Clock, mutate func(*Options[tyre])) *Controller[tyre] {
	opts := Options[tyre]{
		Name:         "tyres",
		ItemsPerPage: 10,
		Clock:        clk,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New[tyre](f, opts)
}

// =============================================================================
// Fetch lifecycle
// =============================================================================

func TestController_StartFetchesInitialState(t *testing.T) {
	f := &stubFetcher{}
	c := newController(f, newClock(), func(o *Options[tyre]) {
		o.InitialPage = 2
		o.InitialSearch = "  pirelli "
	})
	defer c.Close()

	c.Start()
	c.Wait()

	want := []domain.ListRequest{{CurrentPage: 2, ItemsPerPage: 10, Search: "pirelli"}}
	if diff := cmp.Diff(want, f.Requests()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}

	s := c.State()
	assert.Equal(t, 2, s.CurrentPage)
	assert.Equal(t, 3, s.TotalPages)
	assert.Equal(t, 25, s.TotalItems)
	assert.Len(t, s.Items, 10)
	assert.Equal(t, 11, s.Items[0].ID)
	assert.True(t, s.Loaded)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)

	c.Start()
	c.Wait()
	assert.Len(t, f.Requests(), 1, "Start is idempotent")
}

func TestController_PageChangeFetchesImmediately(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	c := newController(f, clk, nil)
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetPage(3)
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 3, reqs[1].CurrentPage)
	assert.Equal(t, 0, clk.Pending(), "page changes are not debounced")
	assert.Equal(t, 3, c.State().CurrentPage)
}

func TestController_SetPageBelowOneClampsToFirstPage(t *testing.T) {
	f := &stubFetcher{}
	c := newController(f, newClock(), func(o *Options[tyre]) { o.InitialPage = 2 })
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetPage(0)
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 1, reqs[1].CurrentPage)
}

func TestController_SamePageDoesNotRefetch(t *testing.T) {
	f := &stubFetcher{}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetPage(1)
	c.Wait()

	assert.Len(t, f.Requests(), 1)
}

// =============================================================================
// Search debouncing
// =============================================================================

func TestController_SearchResetsPageAndFetchesOnceAfterQuietPeriod(t *testing.T) {
	f := newGatedFetcher()
	clk := newClock()
	c := newController(f, clk, func(o *Options[tyre]) {
		o.InitialPage = 2
		o.InitialSearch = "abc"
	})
	defer c.Close()

	c.Start()
	f.next(t).Succeed(pageOf(2, 3, 25))
	c.Wait()

	c.SetSearch("abcd")
	assert.Equal(t, 1, c.State().CurrentPage, "page resets as soon as the search changes")
	assert.Equal(t, "abcd", c.State().SearchTerm)
	f.assertIdle(t)

	clk.Advance(299 * time.Millisecond)
	f.assertIdle(t)

	clk.Advance(time.Millisecond)
	call := f.next(t)
	want := domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10, Search: "abcd"}
	if diff := cmp.Diff(want, call.req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
	call.Succeed(pageOf(1, 1, 4))
	c.Wait()

	f.assertIdle(t)
	s := c.State()
	assert.Equal(t, "abcd", s.DebouncedSearch)
	assert.Equal(t, 1, s.TotalPages)
}

func TestController_TypingBurstFetchesFinalTermOnly(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	c := newController(f, clk, nil)
	defer c.Close()

	c.Start()
	c.Wait()

	for _, v := range []string{"m", "mi", "mic", "mich", "miche", "michel"} {
		c.SetSearch(v)
		clk.Advance(120 * time.Millisecond)
	}
	clk.Advance(300 * time.Millisecond)
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "michel", reqs[1].Search)
	assert.Equal(t, 1, reqs[1].CurrentPage)
}

func TestController_SearchRevertedOnSamePageSkipsFetch(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	c := newController(f, clk, func(o *Options[tyre]) { o.InitialSearch = "abc" })
	defer c.Close()

	c.Start()
	c.Wait()

	c.SetSearch("abcd")
	clk.Advance(100 * time.Millisecond)
	c.SetSearch("abc")
	clk.Advance(300 * time.Millisecond)
	c.Wait()

	assert.Len(t, f.Requests(), 1, "settled term matches what is already shown")
}

func TestController_SearchRevertedFromLaterPageRefetchesFirstPage(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	c := newController(f, clk, func(o *Options[tyre]) {
		o.InitialPage = 3
		o.InitialSearch = "abc"
	})
	defer c.Close()

	c.Start()
	c.Wait()

	c.SetSearch("abcd")
	c.SetSearch("abc")
	clk.Advance(300 * time.Millisecond)
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10, Search: "abc"}, reqs[1])
}

func TestController_ImmediateSearchStillSettlesAsync(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	c := newController(f, clk, func(o *Options[tyre]) { o.ImmediateSearch = true })
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetSearch("bridgestone")
	assert.Len(t, f.Requests(), 1)

	clk.Advance(0)
	c.Wait()
	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "bridgestone", reqs[1].Search)
}

// =============================================================================
// Ordering and staleness
// =============================================================================

func TestController_OutOfOrderResponsesKeepLatestRequest(t *testing.T) {
	f := newGatedFetcher()
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	first := f.next(t)
	assert.Equal(t, 1, first.req.CurrentPage)

	c.SetPage(2)
	second := f.next(t)
	assert.Equal(t, 2, second.req.CurrentPage)

	assert.ErrorIs(t, first.ctx.Err(), context.Canceled, "superseded fetch is cancelled")

	second.Succeed(pageOf(2, 3, 25))
	first.Succeed(pageOf(1, 3, 25))
	c.Wait()

	s := c.State()
	assert.Equal(t, 2, s.CurrentPage)
	require.Len(t, s.Items, 10)
	assert.Equal(t, 11, s.Items[0].ID, "page 1 response arrived last but must be discarded")
	assert.False(t, s.Loading)
}

func TestController_SearchDiscardsResponseForPreviousTerm(t *testing.T) {
	f := newGatedFetcher()
	clk := newClock()
	c := newController(f, clk, func(o *Options[tyre]) {
		o.InitialPage = 2
		o.InitialSearch = "abc"
	})
	defer c.Close()

	c.Start()
	first := f.next(t)
	assert.Equal(t, domain.ListRequest{CurrentPage: 2, ItemsPerPage: 10, Search: "abc"}, first.req)

	c.SetSearch("abcd")
	assert.ErrorIs(t, first.ctx.Err(), context.Canceled, "fetch for the old term is cancelled")

	first.Succeed(pageOf(2, 3, 25))
	c.Wait()

	s := c.State()
	assert.Empty(t, s.Items, "page 2 of the old term must not be shown")
	assert.Equal(t, 1, s.CurrentPage)
	assert.True(t, s.Loading, "still loading until the new term settles")

	clk.Advance(300 * time.Millisecond)
	second := f.next(t)
	assert.Equal(t, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10, Search: "abcd"}, second.req)

	second.Succeed(pageOf(1, 1, 4))
	c.Wait()

	s = c.State()
	require.Len(t, s.Items, 10)
	assert.Equal(t, 1, s.Items[0].ID)
	assert.False(t, s.Loading)
}

func TestController_SearchRevertedWhileFetchingRefetches(t *testing.T) {
	f := newGatedFetcher()
	clk := newClock()
	c := newController(f, clk, func(o *Options[tyre]) {
		o.InitialSearch = "abc"
	})
	defer c.Close()

	c.Start()
	first := f.next(t)

	c.SetSearch("abcd")
	c.SetSearch("abc")
	first.Succeed(pageOf(1, 3, 25))
	c.Wait()
	assert.True(t, c.State().Loading)

	clk.Advance(300 * time.Millisecond)
	second := f.next(t)
	assert.Equal(t, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 10, Search: "abc"}, second.req)

	second.Succeed(pageOf(1, 3, 25))
	c.Wait()
	assert.False(t, c.State().Loading)
	assert.Len(t, c.State().Items, 10)
}

func TestController_StaleErrorIsDiscarded(t *testing.T) {
	f := newGatedFetcher()
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	first := f.next(t)
	c.SetPage(2)
	second := f.next(t)

	second.Succeed(pageOf(2, 3, 25))
	first.Fail(context.Canceled)
	c.Wait()

	s := c.State()
	assert.Empty(t, s.Error)
	assert.Len(t, s.Items, 10)
}

func TestController_OnChangeVersionsAreIncreasing(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()

	var mu sync.Mutex
	var versions []uint64
	c := newController(f, clk, func(o *Options[tyre]) {
		o.OnChange = func(s State[tyre]) {
			mu.Lock()
			versions = append(versions, s.Version)
			mu.Unlock()
		}
	})
	defer c.Close()

	c.Start()
	c.SetPage(2)
	c.SetPage(3)
	c.SetSearch("x")
	clk.Advance(300 * time.Millisecond)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.Greater(t, versions[i], versions[i-1])
	}
	assert.Equal(t, c.State().Version, versions[len(versions)-1], "final state is delivered")
}

// =============================================================================
// Failure handling
// =============================================================================

func TestController_FailureClearsItemsAndTotalsTogether(t *testing.T) {
	fail := false
	f := &stubFetcher{}
	f.respond = func(req domain.ListRequest) (domain.ListResult[tyre], error) {
		if fail {
			return domain.ListResult[tyre]{}, domain.Unavailable(nil, "products.list", "Inventory service is down for maintenance")
		}
		return pageOf(req.CurrentPage, 4, 38), nil
	}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()
	require.Len(t, c.State().Items, 10)

	fail = true
	c.SetPage(2)
	c.Wait()

	s := c.State()
	assert.Nil(t, s.Items)
	assert.Equal(t, 1, s.TotalPages)
	assert.Equal(t, 0, s.TotalItems)
	assert.Equal(t, "Inventory service is down for maintenance", s.Error)
	assert.Equal(t, domain.EUNAVAILABLE, s.ErrorCode)
	assert.False(t, s.Loading)
	assert.False(t, s.IsEmpty(), "an error is not an empty result")
}

func TestController_PlainErrorMessageUsedVerbatim(t *testing.T) {
	f := &stubFetcher{respond: func(domain.ListRequest) (domain.ListResult[tyre], error) {
		return domain.ListResult[tyre]{}, errors.New("connection refused")
	}}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()

	assert.Equal(t, "connection refused", c.State().Error)
	assert.Equal(t, domain.EINTERNAL, c.State().ErrorCode)
}

func TestController_SamePageRefetchesAfterError(t *testing.T) {
	calls := 0
	f := &stubFetcher{}
	f.respond = func(req domain.ListRequest) (domain.ListResult[tyre], error) {
		calls++
		if calls == 1 {
			return domain.ListResult[tyre]{}, domain.Unavailable(nil, "products.list", "Try again")
		}
		return pageOf(1, 1, 3), nil
	}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()
	require.NotEmpty(t, c.State().Error)

	c.SetPage(1)
	c.Wait()

	assert.Empty(t, c.State().Error)
	assert.Len(t, f.Requests(), 2)
}

func TestController_ReloadRetries(t *testing.T) {
	f := &stubFetcher{}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()
	c.Reload()
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0], reqs[1])
}

func TestController_EmptyResult(t *testing.T) {
	f := &stubFetcher{respond: func(domain.ListRequest) (domain.ListResult[tyre], error) {
		return domain.ListResult[tyre]{Pagination: domain.Pagination{TotalPages: 0}}, nil
	}}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()

	s := c.State()
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 1, s.TotalPages, "zero pages still shows page 1")
	assert.Len(t, f.Requests(), 1, "page 1 of an empty list needs no correction")
}

func TestController_PageBeyondTotalIsCorrectedOnce(t *testing.T) {
	f := &stubFetcher{}
	f.respond = func(req domain.ListRequest) (domain.ListResult[tyre], error) {
		if req.CurrentPage > 2 {
			return domain.ListResult[tyre]{Pagination: domain.Pagination{TotalPages: 2, TotalItems: 15}}, nil
		}
		return pageOf(req.CurrentPage, 2, 15), nil
	}
	nav := &recordingNavigator{}
	c := newController(f, newClock(), func(o *Options[tyre]) {
		o.InitialPage = 5
		o.Mode = ModeURL
		o.Navigator = nav
	})
	defer c.Close()

	c.Start()
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 2, reqs[1].CurrentPage)
	assert.Equal(t, 2, c.State().CurrentPage)
	assert.Equal(t, []navigation{{Query: url.Values{"page": {"2"}}, Replace: true}}, nav.Calls())
}

func TestController_TruncatesOversizedPage(t *testing.T) {
	f := &stubFetcher{respond: func(domain.ListRequest) (domain.ListResult[tyre], error) {
		r := pageOf(1, 1, 10)
		r.Items = append(r.Items, tyre{ID: 99})
		return r, nil
	}}
	c := newController(f, newClock(), nil)
	defer c.Close()

	c.Start()
	c.Wait()

	assert.Len(t, c.State().Items, 10)
}

// =============================================================================
// Navigation modes
// =============================================================================

func TestController_URLModeNavigates(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	nav := &recordingNavigator{}
	c := newController(f, clk, func(o *Options[tyre]) {
		o.Mode = ModeURL
		o.Navigator = nav
	})
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetPage(3)
	c.Wait()
	c.SetSearch("winter")
	clk.Advance(300 * time.Millisecond)
	c.Wait()

	want := []navigation{
		{Query: url.Values{"page": {"3"}}, Replace: false},
		{Query: url.Values{"page": {"1"}, "search": {"winter"}}, Replace: true},
	}
	if diff := cmp.Diff(want, nav.Calls()); diff != "" {
		t.Errorf("navigation mismatch (-want +got):\n%s", diff)
	}
}

func TestController_LocalModeNeverNavigates(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	nav := &recordingNavigator{}
	c := newController(f, clk, func(o *Options[tyre]) {
		o.Mode = ModeLocal
		o.Navigator = nav
	})
	defer c.Close()

	c.Start()
	c.SetPage(2)
	c.SetSearch("summer")
	clk.Advance(300 * time.Millisecond)
	c.Wait()

	assert.Empty(t, nav.Calls())
}

func TestController_SyncAdoptsURLWithoutDebounce(t *testing.T) {
	f := &stubFetcher{}
	clk := newClock()
	nav := &recordingNavigator{}
	c := newController(f, clk, func(o *Options[tyre]) {
		o.Mode = ModeURL
		o.Navigator = nav
	})
	defer c.Close()

	c.Start()
	c.Wait()
	c.SetSearch("typed")
	c.Sync(4, "from history")
	c.Wait()
	clk.Advance(time.Second)
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2, "pending typed search is dropped")
	assert.Equal(t, domain.ListRequest{CurrentPage: 4, ItemsPerPage: 10, Search: "from history"}, reqs[1])

	s := c.State()
	assert.Equal(t, "from history", s.SearchTerm)
	assert.Equal(t, "from history", s.DebouncedSearch)
	assert.Len(t, nav.Calls(), 1, "only the typed search navigated")
}

// =============================================================================
// Deletion
// =============================================================================

func TestController_DeletingLastItemOnLastPageStepsBack(t *testing.T) {
	f := &stubFetcher{}
	f.respond = func(req domain.ListRequest) (domain.ListResult[tyre], error) {
		if req.CurrentPage == 3 {
			return domain.ListResult[tyre]{
				Items:      []tyre{{ID: 21}},
				Pagination: domain.Pagination{TotalPages: 3, TotalItems: 21},
			}, nil
		}
		return pageOf(req.CurrentPage, 2, 20), nil
	}
	nav := &recordingNavigator{}
	c := newController(f, newClock(), func(o *Options[tyre]) {
		o.InitialPage = 3
		o.Mode = ModeURL
		o.Navigator = nav
	})
	defer c.Close()

	c.Start()
	c.Wait()
	c.ItemDeleted()
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 2, reqs[1].CurrentPage)
	assert.Equal(t, 2, c.State().CurrentPage)
	assert.Equal(t, []navigation{{Query: url.Values{"page": {"2"}}, Replace: true}}, nav.Calls())
}

func TestController_DeletingWithRowsLeftRefetchesSamePage(t *testing.T) {
	f := &stubFetcher{}
	nav := &recordingNavigator{}
	c := newController(f, newClock(), func(o *Options[tyre]) {
		o.Mode = ModeURL
		o.Navigator = nav
	})
	defer c.Close()

	c.Start()
	c.Wait()
	c.ItemDeleted()
	c.Wait()

	reqs := f.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 1, reqs[1].CurrentPage)
	assert.Empty(t, nav.Calls())
}

// =============================================================================
// Teardown
// =============================================================================

func TestController_CloseCancelsPendingWork(t *testing.T) {
	f := newGatedFetcher()
	clk := newClock()
	changes := 0
	c := newController(f, clk, func(o *Options[tyre]) {
		o.OnChange = func(State[tyre]) { changes++ }
	})

	c.Start()
	call := f.next(t)
	c.SetSearch("late")
	seen := changes

	c.Close()
	assert.ErrorIs(t, call.ctx.Err(), context.Canceled)

	call.Succeed(pageOf(1, 1, 5))
	c.Wait()
	clk.Advance(time.Second)

	f.assertIdle(t)
	assert.Equal(t, seen, changes, "no notifications after Close")
	assert.False(t, c.State().Loaded)

	c.SetPage(2)
	c.Reload()
	f.assertIdle(t)
	c.Close()
}

// =============================================================================
// Helpers
// =============================================================================

func TestParseMode(t *testing.T) {
	m, err := ParseMode("URL")
	require.NoError(t, err)
	assert.Equal(t, ModeURL, m)

	m, err = ParseMode(" local ")
	require.NoError(t, err)
	assert.Equal(t, ModeLocal, m)

	_, err = ParseMode("hash")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "page=1", Query(1, "").Encode())
	assert.Equal(t, "page=2&search=all+season", Query(2, "all season").Encode())
}
