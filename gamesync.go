// Package gamesync is the data-synchronization layer of the gameinfo
// application: paginated catalog search with stale-result protection,
// bounded-parallel detail enrichment, and favorites/review state kept
// in a shared multi-writer document store. The package never relies on
// locks across writers; safety comes from atomic document operations
// and revision-checked read-modify-writes.
package gamesync

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gameinfo/gamesync/internal/docstore"
	"github.com/gameinfo/gamesync/internal/docstore/memstore"
	"github.com/gameinfo/gamesync/internal/docstore/mongostore"
	"github.com/gameinfo/gamesync/internal/fetchq"
	"github.com/gameinfo/gamesync/internal/types"
)

const defaultBaseURL = "https://api.rawg.io/api"

// Client is the facade over the catalog pipeline and the two personal
// stores. Construct with New or NewFromEnv; a Client is safe for use
// from multiple goroutines.
type Client struct {
	baseURL       string
	http          *http.Client
	pageSize      int
	enrichWorkers int
	debugHTTP     bool

	docs     docstore.Store
	identity Identity
	pool     *fetchq.Pool

	search    *SearchAggregator
	enricher  *DetailEnricher
	favorites *FavoritesStore
	reviews   *ReviewStore

	closedOnce uint32
}

// New constructs a Client with the given catalog API key. Additional
// options configure the endpoint, stores and identity.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gamesync: API key must not be empty")
	}

	c := &Client{
		baseURL:       defaultBaseURL,
		http:          &http.Client{Timeout: 30 * time.Second},
		pageSize:      20,
		enrichWorkers: 4,
		identity:      StaticIdentity(""),
	}

	// Auto-enable debug via env variable without changing code.
	c.debugHTTP = debugLoggingRequested()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.docs == nil {
		c.docs = memstore.New()
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if c.debugHTTP {
		base = &debugTransport{base: base}
	}
	c.http.Transport = &keyTransport{base: base, apiKey: apiKey}

	c.pool = fetchq.New(fetchq.Config{Shards: c.enrichWorkers}, log.Logger)
	c.search = NewSearchAggregator(c.http, c.baseURL, c.pageSize)
	c.enricher = NewDetailEnricher(c.http, c.baseURL, c.pool)
	c.favorites = NewFavoritesStore(c.docs)
	c.reviews = NewReviewStore(c.docs)
	return c, nil
}

// NewFromEnv constructs a Client from environment configuration,
// connecting to MongoDB when GAMESYNC_MONGO_URI is set.
func NewFromEnv(ctx context.Context, opts ...Option) (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithBaseURL(cfg.CatalogBaseURL),
		WithHTTPTimeout(cfg.HTTPTimeout),
		WithPageSize(cfg.PageSize),
		WithEnrichWorkers(cfg.EnrichWorkers),
	}
	if cfg.MongoURI != "" {
		store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, log.Logger)
		if err != nil {
			return nil, err
		}
		base = append(base, WithDocStore(store))
	}
	return New(cfg.CatalogAPIKey, append(base, opts...)...)
}

// Close stops the fetch pool and disconnects the document store if it
// holds a connection. Safe to call multiple times.
func (c *Client) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.pool.Stop()
	if closer, ok := c.docs.(interface{ Close(context.Context) error }); ok {
		return closer.Close(ctx)
	}
	return nil
}

// --------------------------------------------------------------------
// Search pipeline
// --------------------------------------------------------------------

// StartSearch begins a new search session for (query, filters),
// superseding any previous session.
func (c *Client) StartSearch(query string, filters Filters) *SearchSession {
	return c.search.StartSearch(query, filters)
}

// LoadNextPage fetches and appends the session's next page.
func (c *Client) LoadNextPage(ctx context.Context, s *SearchSession) (*SearchPage, error) {
	return c.search.LoadNextPage(ctx, s)
}

// Enrich resolves search hits into full game records, one result per
// input in input order.
func (c *Client) Enrich(ctx context.Context, hits []types.GameSummary) []EnrichResult {
	return c.enricher.Enrich(ctx, hits)
}

// --------------------------------------------------------------------
// Catalog passthroughs
// --------------------------------------------------------------------

// GameDetail fetches the full record for one game.
func (c *Client) GameDetail(ctx context.Context, gameID string) (*types.Game, error) {
	return c.enricher.Detail(ctx, gameID)
}

// GameScreenshots fetches the screenshot list for one game.
func (c *Client) GameScreenshots(ctx context.Context, gameID string) ([]types.Screenshot, error) {
	return c.enricher.Screenshots(ctx, gameID)
}

// GameTrailers fetches the trailer list for one game.
func (c *Client) GameTrailers(ctx context.Context, gameID string) ([]types.Trailer, error) {
	return c.enricher.Trailers(ctx, gameID)
}

// --------------------------------------------------------------------
// Favorites
// --------------------------------------------------------------------

// Favorites returns the acting user's favorited game ids.
func (c *Client) Favorites(ctx context.Context) ([]string, error) {
	uid, ok := c.identity.CurrentUser()
	if !ok {
		return nil, errUnauthenticated("favorites.List")
	}
	return c.favorites.Favorites(ctx, uid)
}

// IsFavorite reports whether the acting user has favorited gameID.
// Signed-out users simply have no favorites.
func (c *Client) IsFavorite(ctx context.Context, gameID string) (bool, error) {
	uid, ok := c.identity.CurrentUser()
	if !ok {
		return false, nil
	}
	return c.favorites.IsFavorite(ctx, uid, gameID)
}

// ToggleFavorite flips gameID's membership in the acting user's
// favorites and returns the new state.
func (c *Client) ToggleFavorite(ctx context.Context, gameID string) (bool, error) {
	uid, ok := c.identity.CurrentUser()
	if !ok {
		return false, errUnauthenticated("favorites.Toggle")
	}
	return c.favorites.ToggleFavorite(ctx, uid, gameID)
}

// --------------------------------------------------------------------
// Reviews
// --------------------------------------------------------------------

// Reviews lists the reviews for a game in insertion order.
func (c *Client) Reviews(ctx context.Context, gameID string) ([]types.Review, error) {
	return c.reviews.List(ctx, gameID)
}

// AddReview appends a review authored by the acting user.
func (c *Client) AddReview(ctx context.Context, gameID, text string) (*types.Review, error) {
	uid, ok := c.identity.CurrentUser()
	if !ok {
		return nil, errUnauthenticated("reviews.Add")
	}
	return c.reviews.Add(ctx, gameID, uid, text)
}

// EditReview replaces the text of the acting user's review.
func (c *Client) EditReview(ctx context.Context, gameID, reviewID, newText string) (*types.Review, error) {
	uid, ok := c.identity.CurrentUser()
	if !ok {
		return nil, errUnauthenticated("reviews.Edit")
	}
	return c.reviews.Edit(ctx, gameID, uid, reviewID, newText)
}

// RemoveReview deletes the acting user's review. Removing an id that no
// longer exists succeeds silently.
func (c *Client) RemoveReview(ctx context.Context, gameID, reviewID string) error {
	uid, ok := c.identity.CurrentUser()
	if !ok {
		return errUnauthenticated("reviews.Remove")
	}
	return c.reviews.Remove(ctx, gameID, uid, reviewID)
}
