package gamesync

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gameinfo/gamesync/internal/catalog"
	"github.com/gameinfo/gamesync/internal/types"
)

// Filters narrows a search. Empty fields mean "all" and provider
// default order.
type Filters struct {
	Genre    string
	Ordering string
}

// SearchPage is the outcome of one page fetch: the items newly
// appended to the session (after de-duplication) and whether another
// page is believed to exist.
type SearchPage struct {
	Query      string
	Filters    Filters
	PageNumber int
	Items      []types.GameSummary
	HasMore    bool
}

// SearchAggregator drives paged queries and owns the generation
// counter used to discard results from superseded sessions.
type SearchAggregator struct {
	http     *http.Client
	baseURL  string
	pageSize int

	gen atomic.Uint64
}

// NewSearchAggregator constructs an aggregator with a fixed page size.
func NewSearchAggregator(hc *http.Client, baseURL string, pageSize int) *SearchAggregator {
	return &SearchAggregator{http: hc, baseURL: baseURL, pageSize: pageSize}
}

// SearchSession is the accumulated state of one query+filter pagination
// sequence. It is created by StartSearch and remains valid until the
// next StartSearch; a superseded session stops accumulating.
type SearchSession struct {
	agg     *SearchAggregator
	gen     uint64
	query   string
	filters Filters

	mu       sync.Mutex
	items    []types.GameSummary
	seen     map[string]struct{}
	nextPage int
	hasMore  bool
	loading  bool
}

// StartSearch begins a new session for (query, filters). Any in-flight
// page fetch belonging to a previous session is invalidated: its result
// will be dropped, never appended. Cached pages from earlier sessions
// are discarded wholesale, not re-filtered.
func (a *SearchAggregator) StartSearch(query string, filters Filters) *SearchSession {
	gen := a.gen.Add(1)
	return &SearchSession{
		agg:      a,
		gen:      gen,
		query:    query,
		filters:  filters,
		seen:     make(map[string]struct{}),
		nextPage: 1,
		hasMore:  true,
	}
}

// LoadNextPage fetches the session's next page and appends it.
//
// It is idempotent against duplicate triggers: when no more pages exist
// or a fetch for the same page is already in flight, it returns the
// current state unchanged with no network call. If the session was
// superseded while the fetch was in flight, the result is dropped and
// ErrStaleSession is returned.
func (s *SearchSession) LoadNextPage(ctx context.Context) (*SearchPage, error) {
	s.mu.Lock()
	if s.agg.gen.Load() != s.gen {
		s.mu.Unlock()
		return nil, ErrStaleSession
	}
	if !s.hasMore || s.loading {
		page := s.snapshotLocked()
		s.mu.Unlock()
		return page, nil
	}
	s.loading = true
	pageNum := s.nextPage
	s.mu.Unlock()

	hits, err := catalog.SearchGames(ctx, s.agg.http, s.agg.baseURL, s.query, s.filters.Genre, s.filters.Ordering, pageNum, s.agg.pageSize)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		return nil, err
	}
	// Stale-response guard: a fetch that raced with StartSearch must
	// not corrupt the new session's list.
	if s.agg.gen.Load() != s.gen {
		stalePagesDroppedTotal.Inc()
		return nil, ErrStaleSession
	}

	fresh := make([]types.GameSummary, 0, len(hits))
	for _, h := range hits {
		if _, dup := s.seen[h.ID]; dup {
			continue
		}
		s.seen[h.ID] = struct{}{}
		fresh = append(fresh, h)
	}
	s.items = append(s.items, fresh...)
	s.nextPage = pageNum + 1
	// The provider exposes no total count; page fullness is the only
	// has-more signal. An exact multiple of the page size therefore
	// reports one phantom page. Known approximation, kept as is.
	s.hasMore = len(hits) == s.agg.pageSize
	pagesLoadedTotal.Inc()

	return &SearchPage{
		Query:      s.query,
		Filters:    s.filters,
		PageNumber: pageNum,
		Items:      fresh,
		HasMore:    s.hasMore,
	}, nil
}

// LoadNextPage on the aggregator delegates to the session; both forms
// are equivalent.
func (a *SearchAggregator) LoadNextPage(ctx context.Context, s *SearchSession) (*SearchPage, error) {
	return s.LoadNextPage(ctx)
}

// Items returns a copy of the accumulated, de-duplicated item list.
func (s *SearchSession) Items() []types.GameSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.GameSummary, len(s.items))
	copy(out, s.items)
	return out
}

// HasMore reports whether another page is believed to exist.
func (s *SearchSession) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Loading reports whether a page fetch is currently in flight.
func (s *SearchSession) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// snapshotLocked builds the no-op return value for duplicate triggers.
// Caller holds s.mu.
func (s *SearchSession) snapshotLocked() *SearchPage {
	items := make([]types.GameSummary, len(s.items))
	copy(items, s.items)
	return &SearchPage{
		Query:      s.query,
		Filters:    s.filters,
		PageNumber: s.nextPage - 1,
		Items:      items,
		HasMore:    s.hasMore,
	}
}
