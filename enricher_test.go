package gamesync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gameinfo/gamesync/internal/fetchq"
	"github.com/gameinfo/gamesync/internal/types"
)

func newTestEnricher(t *testing.T, handler http.Handler, workers int) *DetailEnricher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	pool := fetchq.New(fetchq.Config{Shards: workers}, zerolog.Nop())
	t.Cleanup(pool.Stop)
	return NewDetailEnricher(srv.Client(), srv.URL, pool)
}

func detailHandler(fail map[string]int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/games/")
		if status, ok := fail[id]; ok {
			w.WriteHeader(status)
			return
		}
		_, _ = fmt.Fprintf(w, `{"id":%s,"name":"Game %s"}`, id, id)
	})
}

func hits(ids ...string) []types.GameSummary {
	out := make([]types.GameSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.GameSummary{ID: id, Name: "hit " + id})
	}
	return out
}

func TestEnrich_ResultsInInputOrder(t *testing.T) {
	t.Parallel()
	e := newTestEnricher(t, detailHandler(nil), 4)

	results := e.Enrich(context.Background(), hits("5", "1", "9", "3"))
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}
	for i, want := range []string{"5", "1", "9", "3"} {
		if results[i].Err != nil {
			t.Fatalf("result %d: %v", i, results[i].Err)
		}
		if results[i].Game.ID != want {
			t.Fatalf("result %d out of order: got %s want %s", i, results[i].Game.ID, want)
		}
	}
}

func TestEnrich_PerItemFailureIsolation(t *testing.T) {
	t.Parallel()
	// Item 2 is gone; the rest of the page must still resolve.
	e := newTestEnricher(t, detailHandler(map[string]int{"2": http.StatusNotFound}), 4)

	results := e.Enrich(context.Background(), hits("1", "2", "3"))
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("healthy items failed: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Fatal("failing item must carry its error")
	}
	if results[1].Game != nil {
		t.Fatal("failing item must not carry a game")
	}
	if results[0].Game.ID != "1" || results[2].Game.ID != "3" {
		t.Fatalf("unexpected games: %+v", results)
	}
}

func TestEnrich_BoundedParallelism(t *testing.T) {
	t.Parallel()
	var inFlight, peak atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		defer inFlight.Add(-1)
		id := strings.TrimPrefix(r.URL.Path, "/games/")
		_, _ = fmt.Fprintf(w, `{"id":%s,"name":"x"}`, id)
	})
	e := newTestEnricher(t, handler, 2)

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i+1)
	}
	results := e.Enrich(context.Background(), hits(ids...))
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("result %d: %v", i, r.Err)
		}
	}
	if peak.Load() > 2 {
		t.Fatalf("parallelism exceeded bound: peak %d", peak.Load())
	}
}

func TestEnrich_EmptyInput(t *testing.T) {
	t.Parallel()
	e := newTestEnricher(t, detailHandler(nil), 2)
	if got := e.Enrich(context.Background(), nil); len(got) != 0 {
		t.Fatalf("expected empty results, got %d", len(got))
	}
}
