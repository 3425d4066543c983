// Package memstore is an in-process docstore.Store. It backs unit tests
// and local development when no database is configured. Documents are
// held as JSON so the encode/decode path matches the remote store.
package memstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gameinfo/gamesync/internal/apperr"
	"github.com/gameinfo/gamesync/internal/docstore"
)

type document struct {
	rev    docstore.Rev
	fields map[string]any
}

// Store implements docstore.Store with a mutex-guarded map. The mutex
// makes every operation atomic, which is exactly the guarantee the real
// store provides per operation.
type Store struct {
	mu   sync.Mutex
	docs map[string]*document // key: collection + "/" + id
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string]*document)}
}

func key(collection, id string) string { return collection + "/" + id }

// Get decodes the document at (collection, id) into out.
func (s *Store) Get(ctx context.Context, collection, id string, out any) (docstore.Rev, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[key(collection, id)]
	if !ok {
		return 0, apperr.Errorf(apperr.KindNotFound, "memstore.Get", "%s/%s not found", collection, id)
	}
	raw, err := json.Marshal(d.fields)
	if err != nil {
		return 0, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return 0, err
	}
	return d.rev, nil
}

// Set creates or overwrites the whole document.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := toFields(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(collection, id)
	rev := docstore.Rev(1)
	if prev, ok := s.docs[k]; ok {
		rev = prev.rev + 1
	}
	s.docs[k] = &document{rev: rev, fields: fields}
	return nil
}

// SetUnion adds values to the string-set field, creating the document
// if absent. Values already present are left alone.
func (s *Store) SetUnion(ctx context.Context, collection, id, field string, values ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.ensure(collection, id)
	set := stringSlice(d.fields[field])
	for _, v := range values {
		if !contains(set, v) {
			set = append(set, v)
		}
	}
	d.fields[field] = set
	d.rev++
	return nil
}

// SetDifference removes values from the string-set field. Removing from
// an absent document or absent members is a no-op.
func (s *Store) SetDifference(ctx context.Context, collection, id, field string, values ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.ensure(collection, id)
	set := stringSlice(d.fields[field])
	kept := set[:0]
	for _, v := range set {
		if !contains(values, v) {
			kept = append(kept, v)
		}
	}
	d.fields[field] = kept
	d.rev++
	return nil
}

// ListAppend appends values to the list field, creating the document if
// absent.
func (s *Store) ListAppend(ctx context.Context, collection, id, field string, values ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.ensure(collection, id)
	list, _ := d.fields[field].([]any)
	for _, v := range values {
		enc, err := roundTrip(v)
		if err != nil {
			return err
		}
		list = append(list, enc)
	}
	d.fields[field] = list
	d.rev++
	return nil
}

// ReplaceIf overwrites the document only when its revision still equals
// rev.
func (s *Store) ReplaceIf(ctx context.Context, collection, id string, rev docstore.Rev, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields, err := toFields(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(collection, id)
	d, ok := s.docs[k]
	if !ok {
		return apperr.Errorf(apperr.KindNotFound, "memstore.ReplaceIf", "%s/%s not found", collection, id)
	}
	if d.rev != rev {
		return apperr.Errorf(apperr.KindConflict, "memstore.ReplaceIf", "%s/%s at rev %d, caller read rev %d", collection, id, d.rev, rev)
	}
	s.docs[k] = &document{rev: d.rev + 1, fields: fields}
	return nil
}

// ensure returns the document for (collection, id), creating an empty
// one when absent. Caller holds s.mu.
func (s *Store) ensure(collection, id string) *document {
	k := key(collection, id)
	d, ok := s.docs[k]
	if !ok {
		d = &document{fields: make(map[string]any)}
		s.docs[k] = d
	}
	return d
}

func toFields(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	return fields, nil
}

// roundTrip normalizes a value through JSON so stored documents hold
// only plain maps, slices and scalars.
func roundTrip(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func contains(xs []string, x string) bool {
	for _, e := range xs {
		if e == x {
			return true
		}
	}
	return false
}
