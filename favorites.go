package gamesync

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gameinfo/gamesync/internal/apperr"
	"github.com/gameinfo/gamesync/internal/docstore"
	"github.com/gameinfo/gamesync/internal/types"
)

const favoritesCollection = "favorites"

// FavoritesStore maintains the per-user favorites set against the
// shared document store. Toggles are optimistic: the local state flips
// immediately and rolls back if the atomic remote mutation fails.
// Membership is never written as a whole-list overwrite; only set-union
// and set-difference reach the store, so interleaved toggles from
// independent clients commute instead of losing updates.
type FavoritesStore struct {
	docs docstore.Store

	mu    sync.Mutex
	local map[string]map[string]bool // userID → gameID → member
}

// NewFavoritesStore constructs a store over docs.
func NewFavoritesStore(docs docstore.Store) *FavoritesStore {
	return &FavoritesStore{docs: docs, local: make(map[string]map[string]bool)}
}

// Favorites returns the user's favorited game ids. The backing document
// is created lazily on first read.
func (f *FavoritesStore) Favorites(ctx context.Context, userID string) ([]string, error) {
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return nil, errUnauthenticated("favorites.List")
	}
	ids, err := f.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	cache := make(map[string]bool, len(ids))
	for _, id := range ids {
		cache[id] = true
	}
	f.local[userID] = cache
	f.mu.Unlock()
	return ids, nil
}

// IsFavorite reports whether the user has favorited gameID. It answers
// from the local cache when warm, falling back to a store read.
func (f *FavoritesStore) IsFavorite(ctx context.Context, userID, gameID string) (bool, error) {
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return false, errUnauthenticated("favorites.IsFavorite")
	}
	if err := types.ValidateIDPresent(gameID, "gameId"); err != nil {
		return false, err
	}

	f.mu.Lock()
	if cache, ok := f.local[userID]; ok {
		member := cache[gameID]
		f.mu.Unlock()
		return member, nil
	}
	f.mu.Unlock()

	ids, err := f.Favorites(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == gameID {
			return true, nil
		}
	}
	return false, nil
}

// ToggleFavorite flips gameID's membership and returns the new state.
//
// The local flip happens before the network call for responsiveness;
// the remote mutation is an atomic set-add or set-remove. On failure
// the flip is rolled back and a retryable error surfaces. Two toggles
// of the same id racing from separate clients converge to the store's
// arrival order because the underlying operations commute.
func (f *FavoritesStore) ToggleFavorite(ctx context.Context, userID, gameID string) (bool, error) {
	if err := types.ValidateIDPresent(userID, "userId"); err != nil {
		return false, errUnauthenticated("favorites.Toggle")
	}
	if err := types.ValidateIDPresent(gameID, "gameId"); err != nil {
		return false, err
	}

	// Warm the cache so the flip starts from the stored membership.
	f.mu.Lock()
	cache, warm := f.local[userID]
	f.mu.Unlock()
	if !warm {
		if _, err := f.Favorites(ctx, userID); err != nil {
			return false, err
		}
		f.mu.Lock()
		cache = f.local[userID]
		f.mu.Unlock()
	}

	f.mu.Lock()
	was := cache[gameID]
	cache[gameID] = !was
	f.mu.Unlock()

	var err error
	if was {
		err = f.docs.SetDifference(ctx, favoritesCollection, userID, "gameIds", gameID)
	} else {
		err = f.docs.SetUnion(ctx, favoritesCollection, userID, "gameIds", gameID)
	}
	if err != nil {
		// Roll back the optimistic flip; the caller may retry.
		f.mu.Lock()
		cache[gameID] = was
		f.mu.Unlock()
		favoriteTogglesTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("gameId", gameID).Msg("favorite toggle failed, rolled back")
		return was, err
	}
	favoriteTogglesTotal.WithLabelValues("ok").Inc()
	return !was, nil
}

// load reads the favorites document, creating it on first read.
func (f *FavoritesStore) load(ctx context.Context, userID string) ([]string, error) {
	var doc types.FavoritesDoc
	_, err := f.docs.Get(ctx, favoritesCollection, userID, &doc)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			if err := f.docs.Set(ctx, favoritesCollection, userID, types.FavoritesDoc{GameIDs: []string{}}); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, err
	}
	return doc.GameIDs, nil
}
