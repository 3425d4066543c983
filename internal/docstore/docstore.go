// Package docstore abstracts the shared multi-writer document store the
// SDK synchronizes against. Keys are (collection, id) pairs; documents
// are small JSON/BSON objects.
//
// There are no transactions and no server-side locks. All concurrent
// safety comes from the atomic field operations (SetUnion,
// SetDifference, ListAppend) and the revision-guarded ReplaceIf, which
// writers are expected to retry on conflict.
package docstore

import "context"

// Rev is a document revision tag. It increases monotonically with every
// mutation and is compared by ReplaceIf to detect interleaved writers.
type Rev int64

// Store is the key-value document API.
//
// Get decodes the document into out and returns its current revision;
// a missing document yields a NotFound error. Set creates or overwrites
// the whole document. The field operations are atomic with respect to
// concurrent writers and upsert an empty document when none exists.
// ReplaceIf overwrites the document only if its revision still equals
// rev, failing with a Conflict error otherwise.
type Store interface {
	Get(ctx context.Context, collection, id string, out any) (Rev, error)
	Set(ctx context.Context, collection, id string, doc any) error
	SetUnion(ctx context.Context, collection, id, field string, values ...string) error
	SetDifference(ctx context.Context, collection, id, field string, values ...string) error
	ListAppend(ctx context.Context, collection, id, field string, values ...any) error
	ReplaceIf(ctx context.Context, collection, id string, rev Rev, doc any) error
}
