package gamesync

import (
	"context"
	"net/http"
	"sync"

	"github.com/gameinfo/gamesync/internal/catalog"
	"github.com/gameinfo/gamesync/internal/fetchq"
	"github.com/gameinfo/gamesync/internal/types"
)

// EnrichResult is the outcome for one input item: either the resolved
// game or that item's error, never both.
type EnrichResult struct {
	Game *types.Game
	Err  error
}

// DetailEnricher resolves lightweight search hits into full detail
// records. Fetches run on the sharded pool, so parallelism is bounded;
// a failure on one item never cancels or blocks the others.
type DetailEnricher struct {
	http    *http.Client
	baseURL string
	pool    *fetchq.Pool
}

// NewDetailEnricher constructs an enricher running on pool.
func NewDetailEnricher(hc *http.Client, baseURL string, pool *fetchq.Pool) *DetailEnricher {
	return &DetailEnricher{http: hc, baseURL: baseURL, pool: pool}
}

// Enrich fetches the detail record for every hit. The returned slice
// has one result per input, in input order, regardless of completion
// order or individual failures.
func (e *DetailEnricher) Enrich(ctx context.Context, hits []types.GameSummary) []EnrichResult {
	results := make([]EnrichResult, len(hits))
	var wg sync.WaitGroup

	for i, hit := range hits {
		i, hit := i, hit
		job := fetchq.JobFunc(func(jobCtx context.Context) error {
			g, err := catalog.GameDetail(jobCtx, e.http, e.baseURL, hit.ID)
			if err != nil {
				return err
			}
			results[i].Game = g
			return nil
		})
		wg.Add(1)
		done := func(err error) {
			if err != nil {
				results[i].Err = err
				enrichFailuresTotal.Inc()
			}
			wg.Done()
		}
		if err := e.pool.Submit(ctx, hit.ID, job, done); err != nil {
			results[i].Err = err
			enrichFailuresTotal.Inc()
			wg.Done()
		}
	}

	wg.Wait()
	return results
}

// Detail fetches a single game's full record.
func (e *DetailEnricher) Detail(ctx context.Context, gameID string) (*types.Game, error) {
	return catalog.GameDetail(ctx, e.http, e.baseURL, gameID)
}

// Screenshots fetches a single game's screenshots.
func (e *DetailEnricher) Screenshots(ctx context.Context, gameID string) ([]types.Screenshot, error) {
	return catalog.Screenshots(ctx, e.http, e.baseURL, gameID)
}

// Trailers fetches a single game's trailers.
func (e *DetailEnricher) Trailers(ctx context.Context, gameID string) ([]types.Trailer, error) {
	return catalog.Trailers(ctx, e.http, e.baseURL, gameID)
}
