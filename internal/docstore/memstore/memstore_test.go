package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameinfo/gamesync/internal/apperr"
)

type favDoc struct {
	GameIDs []string `json:"gameIds"`
}

func TestGet_Missing(t *testing.T) {
	s := New()
	var doc favDoc
	_, err := s.Get(context.Background(), "favorites", "u1", &doc)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSetAndGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "favorites", "u1", favDoc{GameIDs: []string{"a", "b"}}))

	var doc favDoc
	rev, err := s.Get(ctx, "favorites", "u1", &doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.GameIDs)
	assert.EqualValues(t, 1, rev)

	require.NoError(t, s.Set(ctx, "favorites", "u1", favDoc{GameIDs: []string{"c"}}))
	rev, err = s.Get(ctx, "favorites", "u1", &doc)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rev, "Set must bump the revision")
	assert.Equal(t, []string{"c"}, doc.GameIDs)
}

func TestSetUnion_UpsertsAndDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SetUnion(ctx, "favorites", "u1", "gameIds", "a"))
	require.NoError(t, s.SetUnion(ctx, "favorites", "u1", "gameIds", "a", "b"))

	var doc favDoc
	_, err := s.Get(ctx, "favorites", "u1", &doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.GameIDs)
}

func TestSetDifference_RemovesAndToleratesAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SetUnion(ctx, "favorites", "u1", "gameIds", "a", "b"))
	require.NoError(t, s.SetDifference(ctx, "favorites", "u1", "gameIds", "a", "zzz"))

	var doc favDoc
	_, err := s.Get(ctx, "favorites", "u1", &doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, doc.GameIDs)

	// Removing from a document that was never created is a no-op.
	require.NoError(t, s.SetDifference(ctx, "favorites", "nobody", "gameIds", "a"))
}

func TestListAppend_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	type comment struct {
		ReviewID string `json:"reviewId"`
		Text     string `json:"text"`
	}
	type doc struct {
		Comments []comment `json:"comments"`
	}

	require.NoError(t, s.ListAppend(ctx, "reviews", "g1", "comments", comment{ReviewID: "r1", Text: "first"}))
	require.NoError(t, s.ListAppend(ctx, "reviews", "g1", "comments", comment{ReviewID: "r2", Text: "second"}))

	var d doc
	rev, err := s.Get(ctx, "reviews", "g1", &d)
	require.NoError(t, err)
	require.Len(t, d.Comments, 2)
	assert.Equal(t, "r1", d.Comments[0].ReviewID)
	assert.Equal(t, "r2", d.Comments[1].ReviewID)
	assert.EqualValues(t, 2, rev)
}

func TestReplaceIf_RevisionGuard(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Set(ctx, "reviews", "g1", favDoc{GameIDs: []string{"a"}}))

	var doc favDoc
	rev, err := s.Get(ctx, "reviews", "g1", &doc)
	require.NoError(t, err)

	// A writer landing in between bumps the revision.
	require.NoError(t, s.SetUnion(ctx, "reviews", "g1", "gameIds", "b"))

	err = s.ReplaceIf(ctx, "reviews", "g1", rev, favDoc{GameIDs: []string{"stale"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// The interleaved write must survive.
	_, err = s.Get(ctx, "reviews", "g1", &doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.GameIDs)

	// Retrying against the fresh revision succeeds.
	rev, err = s.Get(ctx, "reviews", "g1", &doc)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceIf(ctx, "reviews", "g1", rev, favDoc{GameIDs: []string{"fresh"}}))
}

func TestReplaceIf_Missing(t *testing.T) {
	err := New().ReplaceIf(context.Background(), "reviews", "none", 1, favDoc{})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCtxCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New()
	assert.Error(t, s.Set(ctx, "c", "id", favDoc{}))
	assert.Error(t, s.SetUnion(ctx, "c", "id", "f", "v"))
}
