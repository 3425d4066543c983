package gamesync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameinfo/gamesync/internal/apperr"
	"github.com/gameinfo/gamesync/internal/docstore"
	"github.com/gameinfo/gamesync/internal/docstore/memstore"
)

// brokenStore fails set mutations to exercise the rollback path.
type brokenStore struct {
	docstore.Store
	fail bool
}

func (b *brokenStore) SetUnion(ctx context.Context, col, id, field string, values ...string) error {
	if b.fail {
		return apperr.Network("test.SetUnion", errors.New("connection reset"))
	}
	return b.Store.SetUnion(ctx, col, id, field, values...)
}

func (b *brokenStore) SetDifference(ctx context.Context, col, id, field string, values ...string) error {
	if b.fail {
		return apperr.Network("test.SetDifference", errors.New("connection reset"))
	}
	return b.Store.SetDifference(ctx, col, id, field, values...)
}

func TestToggleFavorite_TwiceReturnsToOriginalState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := NewFavoritesStore(memstore.New())

	on, err := f.ToggleFavorite(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.True(t, on)

	off, err := f.ToggleFavorite(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.False(t, off)

	member, err := f.IsFavorite(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.False(t, member)

	ids, err := f.Favorites(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestToggleFavorite_CommutesAcrossGames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.New()
	f := NewFavoritesStore(store)

	// Interleaved toggles for different games by the same user: both
	// must take effect regardless of completion order. The mutations
	// are atomic set ops, so firing them concurrently is safe.
	var wg sync.WaitGroup
	for _, g := range []string{"g1", "g2"} {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ToggleFavorite(ctx, "u1", g)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	fresh := NewFavoritesStore(store) // cold cache, reads the document
	ids, err := fresh.Favorites(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, ids)
}

func TestToggleFavorite_SharedDocumentAcrossClients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.New()

	// Two independent clients (think: two tabs) against one document.
	a := NewFavoritesStore(store)
	b := NewFavoritesStore(store)

	_, err := a.ToggleFavorite(ctx, "u1", "g1")
	require.NoError(t, err)
	_, err = b.ToggleFavorite(ctx, "u1", "g2")
	require.NoError(t, err)

	ids, err := NewFavoritesStore(store).Favorites(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, ids, "neither tab's toggle may be lost")
}

func TestToggleFavorite_RollbackOnFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bs := &brokenStore{Store: memstore.New()}
	f := NewFavoritesStore(bs)

	// Warm the cache so the failing toggle starts from known state.
	_, err := f.Favorites(ctx, "u1")
	require.NoError(t, err)

	bs.fail = true
	state, err := f.ToggleFavorite(ctx, "u1", "g1")
	require.Error(t, err)
	assert.True(t, IsRetryable(err), "toggle failure must be retryable")
	assert.False(t, state, "state must report the rolled-back value")

	// The optimistic flip was rolled back.
	member, err := f.IsFavorite(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.False(t, member)

	// Retry after recovery succeeds.
	bs.fail = false
	state, err = f.ToggleFavorite(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.True(t, state)
}

func TestFavorites_Unauthenticated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.New()
	f := NewFavoritesStore(store)

	_, err := f.ToggleFavorite(ctx, "", "g1")
	require.Error(t, err)
	assert.True(t, IsUnauthenticated(err))

	// No document may have been created or touched.
	var doc struct {
		GameIDs []string `json:"gameIds"`
	}
	_, err = store.Get(ctx, "favorites", "", &doc)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestFavorites_LazyDocumentCreation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := memstore.New()
	f := NewFavoritesStore(store)

	ids, err := f.Favorites(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// First read created the document.
	var doc struct {
		GameIDs []string `json:"gameIds"`
	}
	_, err = store.Get(ctx, "favorites", "u1", &doc)
	require.NoError(t, err)
}

func TestClientFacade_FavoritesIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	anon, err := New("test-key")
	require.NoError(t, err)
	t.Cleanup(func() { _ = anon.Close(ctx) })

	_, err = anon.ToggleFavorite(ctx, "g1")
	assert.True(t, IsUnauthenticated(err))

	fav, err := anon.IsFavorite(ctx, "g1")
	require.NoError(t, err, "signed-out membership check is not an error")
	assert.False(t, fav)

	signed, err := New("test-key", WithIdentity(StaticIdentity("u1")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = signed.Close(ctx) })

	on, err := signed.ToggleFavorite(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, on)
}
