package gamesync

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gameinfo/gamesync/internal/apperr"
	"github.com/gameinfo/gamesync/internal/docstore"
	"github.com/gameinfo/gamesync/internal/types"
)

const reviewsCollection = "reviews"

// maxRMWAttempts bounds the read-modify-write retry loop before a
// Conflict surfaces to the caller.
const maxRMWAttempts = 4

// ReviewStore maintains the shared per-game review documents. Reviews
// are identified by ids assigned at creation, never by list position:
// under concurrent delete/edit two clients can compute different
// indices for the same logical item, so positional mutation silently
// corrupts the list. Adds are atomic appends; edits and removals are
// revision-guarded read-modify-writes retried on conflict.
type ReviewStore struct {
	docs docstore.Store

	now   func() time.Time
	newID func() string
}

// NewReviewStore constructs a store over docs.
func NewReviewStore(docs docstore.Store) *ReviewStore {
	return &ReviewStore{
		docs:  docs,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// List returns a game's reviews in insertion order. The backing
// document is created lazily on first read.
func (r *ReviewStore) List(ctx context.Context, gameID string) ([]types.Review, error) {
	if err := types.ValidateIDPresent(gameID, "gameId"); err != nil {
		return nil, err
	}
	doc, _, err := r.load(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return doc.Comments, nil
}

// Add appends a review with a freshly assigned id. The document
// mutation is an atomic list-append, never a full-list overwrite from a
// stale read, so concurrent adds from independent clients all land.
func (r *ReviewStore) Add(ctx context.Context, gameID, authorID, text string) (*types.Review, error) {
	if err := types.ValidateIDPresent(gameID, "gameId"); err != nil {
		return nil, err
	}
	if err := types.ValidateIDPresent(authorID, "authorId"); err != nil {
		return nil, errUnauthenticated("reviews.Add")
	}
	if err := types.ValidateText(text); err != nil {
		return nil, err
	}

	review := types.Review{
		ReviewID:  r.newID(),
		AuthorID:  authorID,
		GameID:    gameID,
		Text:      text,
		CreatedAt: r.now().UTC(),
	}
	if err := r.docs.ListAppend(ctx, reviewsCollection, gameID, "comments", review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Edit replaces the text of the review identified by reviewID. Fails
// with Forbidden when authorID does not match the stored author, and
// with NotFound when no such review exists.
func (r *ReviewStore) Edit(ctx context.Context, gameID, authorID, reviewID, newText string) (*types.Review, error) {
	if err := types.ValidateText(newText); err != nil {
		return nil, err
	}
	var edited *types.Review
	err := r.mutate(ctx, gameID, authorID, reviewID, "reviews.Edit", func(doc *types.ReviewDoc, idx int) {
		now := r.now().UTC()
		doc.Comments[idx].Text = newText
		doc.Comments[idx].EditedAt = &now
		cp := doc.Comments[idx]
		edited = &cp
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

// Remove deletes the review identified by reviewID. Removing an id that
// no longer exists succeeds silently, tolerating double-submission from
// retried network calls.
func (r *ReviewStore) Remove(ctx context.Context, gameID, authorID, reviewID string) error {
	err := r.mutate(ctx, gameID, authorID, reviewID, "reviews.Remove", func(doc *types.ReviewDoc, idx int) {
		doc.Comments = append(doc.Comments[:idx], doc.Comments[idx+1:]...)
	})
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	return err
}

// mutate runs one revision-guarded read-modify-write: read the
// document and its revision, locate the entry by id, apply the change,
// and write the whole list back conditioned on the revision still
// matching. A concurrent writer landing between read and write makes
// the condition fail; the loop re-reads the latest state and retries
// with backoff instead of clobbering the other writer's change.
func (r *ReviewStore) mutate(ctx context.Context, gameID, authorID, reviewID, op string, apply func(doc *types.ReviewDoc, idx int)) error {
	if err := types.ValidateIDPresent(gameID, "gameId"); err != nil {
		return err
	}
	if err := types.ValidateIDPresent(authorID, "authorId"); err != nil {
		return errUnauthenticated(op)
	}
	if err := types.ValidateIDPresent(reviewID, "reviewId"); err != nil {
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 20 * time.Millisecond
	exp.MaxInterval = 500 * time.Millisecond
	exp.Reset()

	for attempt := 1; ; attempt++ {
		doc, rev, err := r.load(ctx, gameID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range doc.Comments {
			if doc.Comments[i].ReviewID == reviewID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return apperr.Errorf(apperr.KindNotFound, op, "review %s not found", reviewID)
		}
		if doc.Comments[idx].AuthorID != authorID {
			return apperr.Errorf(apperr.KindForbidden, op, "review %s belongs to another author", reviewID)
		}

		apply(&doc, idx)

		err = r.docs.ReplaceIf(ctx, reviewsCollection, gameID, rev, doc)
		if err == nil {
			return nil
		}
		if !apperr.Is(err, apperr.KindConflict) {
			return err
		}
		reviewConflictsTotal.Inc()
		if attempt >= maxRMWAttempts {
			log.Warn().Str("gameId", gameID).Str("reviewId", reviewID).Int("attempts", attempt).Msg("review write conflict persisted")
			return err
		}
		select {
		case <-time.After(exp.NextBackOff()):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// load reads the review document and its revision, creating an empty
// document on first read of a game with no reviews.
func (r *ReviewStore) load(ctx context.Context, gameID string) (types.ReviewDoc, docstore.Rev, error) {
	var doc types.ReviewDoc
	rev, err := r.docs.Get(ctx, reviewsCollection, gameID, &doc)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			if err := r.docs.Set(ctx, reviewsCollection, gameID, types.ReviewDoc{Comments: []types.Review{}}); err != nil {
				return types.ReviewDoc{}, 0, err
			}
			rev, err = r.docs.Get(ctx, reviewsCollection, gameID, &doc)
			if err != nil {
				return types.ReviewDoc{}, 0, err
			}
			return doc, rev, nil
		}
		return types.ReviewDoc{}, 0, err
	}
	return doc, rev, nil
}
