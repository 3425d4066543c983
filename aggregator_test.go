package gamesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
)

// fixtureCatalog serves a deterministic catalog of n items through the
// provider's paged search contract.
func fixtureCatalog(t *testing.T, n int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
		if page < 1 || size < 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		start := (page - 1) * size
		results := make([]map[string]any, 0, size)
		for i := start; i < start+size && i < n; i++ {
			results = append(results, map[string]any{
				"id":   i + 1,
				"name": fmt.Sprintf("Game %d", i+1),
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestPaginationIntegrity(t *testing.T) {
	t.Parallel()
	srv, _ := fixtureCatalog(t, 45)
	agg := NewSearchAggregator(srv.Client(), srv.URL, 20)
	s := agg.StartSearch("zelda", Filters{})

	wantSizes := []int{20, 20, 5}
	seen := make(map[string]bool)
	for i, want := range wantSizes {
		page, err := s.LoadNextPage(context.Background())
		if err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
		if len(page.Items) != want {
			t.Fatalf("page %d: got %d items, want %d", i+1, len(page.Items), want)
		}
		if page.PageNumber != i+1 {
			t.Fatalf("page %d: numbered %d", i+1, page.PageNumber)
		}
		for _, it := range page.Items {
			if seen[it.ID] {
				t.Fatalf("duplicate item %s across pages", it.ID)
			}
			seen[it.ID] = true
		}
	}
	if s.HasMore() {
		t.Fatal("hasMore must be false after the short page")
	}
	if got := len(s.Items()); got != 45 {
		t.Fatalf("accumulated %d items, want 45", got)
	}
}

func TestLoadNextPage_NoOpWhenExhausted(t *testing.T) {
	t.Parallel()
	srv, requests := fixtureCatalog(t, 5)
	agg := NewSearchAggregator(srv.Client(), srv.URL, 20)
	s := agg.StartSearch("q", Filters{})

	if _, err := s.LoadNextPage(context.Background()); err != nil {
		t.Fatalf("first page: %v", err)
	}
	before := requests.Load()

	page, err := s.LoadNextPage(context.Background())
	if err != nil {
		t.Fatalf("no-op load: %v", err)
	}
	if requests.Load() != before {
		t.Fatal("exhausted session must not hit the network")
	}
	if page.HasMore || len(page.Items) != 5 {
		t.Fatalf("no-op must return current state, got %d items hasMore=%v", len(page.Items), page.HasMore)
	}
}

func TestLoadNextPage_IdempotentAgainstDuplicateTriggers(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	arrived := make(chan struct{})
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			close(arrived)
			<-release
		}
		_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Solo"}]}`))
	}))
	t.Cleanup(srv.Close)

	agg := NewSearchAggregator(srv.Client(), srv.URL, 20)
	s := agg.StartSearch("q", Filters{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.LoadNextPage(context.Background())
		firstDone <- err
	}()
	<-arrived

	// Duplicate trigger while the first fetch is in flight: returns the
	// current state without a second request.
	page, err := s.LoadNextPage(context.Background())
	if err != nil {
		t.Fatalf("duplicate trigger: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("nothing should be accumulated yet, got %d items", len(page.Items))
	}
	if got := requests.Load(); got != 1 {
		t.Fatalf("duplicate trigger caused %d requests", got)
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if got := len(s.Items()); got != 1 {
		t.Fatalf("accumulated %d items, want 1", got)
	}
}

func TestStaleSessionDrop(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	arrived := make(chan struct{})
	var old atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") == "old" && old.CompareAndSwap(false, true) {
			close(arrived)
			<-release
			_, _ = w.Write([]byte(`{"results":[{"id":666,"name":"Stale Game"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Fresh Game"}]}`))
	}))
	t.Cleanup(srv.Close)

	agg := NewSearchAggregator(srv.Client(), srv.URL, 20)
	oldSession := agg.StartSearch("old", Filters{})

	oldDone := make(chan error, 1)
	go func() {
		_, err := oldSession.LoadNextPage(context.Background())
		oldDone <- err
	}()
	<-arrived

	// A new search supersedes the old session while its fetch is in
	// flight.
	fresh := agg.StartSearch("fresh", Filters{})
	close(release)

	if err := <-oldDone; err != ErrStaleSession {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
	if got := len(oldSession.Items()); got != 0 {
		t.Fatalf("stale result appended to old session: %d items", got)
	}

	if _, err := fresh.LoadNextPage(context.Background()); err != nil {
		t.Fatalf("fresh page: %v", err)
	}
	for _, it := range fresh.Items() {
		if it.ID == "666" {
			t.Fatal("stale page leaked into the new session")
		}
	}
	if len(fresh.Items()) != 1 {
		t.Fatalf("fresh session has %d items, want 1", len(fresh.Items()))
	}
}

func TestSupersededSessionRefusesNewLoads(t *testing.T) {
	t.Parallel()
	srv, requests := fixtureCatalog(t, 45)
	agg := NewSearchAggregator(srv.Client(), srv.URL, 20)
	s1 := agg.StartSearch("one", Filters{})
	_ = agg.StartSearch("two", Filters{})

	before := requests.Load()
	if _, err := s1.LoadNextPage(context.Background()); err != ErrStaleSession {
		t.Fatalf("expected ErrStaleSession from superseded session, got %v", err)
	}
	if requests.Load() != before {
		t.Fatal("superseded session must not hit the network")
	}
}

func TestExactMultipleReportsPhantomPage(t *testing.T) {
	t.Parallel()
	// 40 items at page size 20: the provider has no total count, so the
	// second (full) page reports hasMore and the third comes back empty.
	srv, _ := fixtureCatalog(t, 40)
	agg := NewSearchAggregator(srv.Client(), srv.URL, 20)
	s := agg.StartSearch("q", Filters{})

	for i := 0; i < 2; i++ {
		if _, err := s.LoadNextPage(context.Background()); err != nil {
			t.Fatalf("page %d: %v", i+1, err)
		}
	}
	if !s.HasMore() {
		t.Fatal("full second page must report hasMore (known approximation)")
	}
	page, err := s.LoadNextPage(context.Background())
	if err != nil {
		t.Fatalf("phantom page: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Fatalf("phantom page should be empty and final: %+v", page)
	}
}
