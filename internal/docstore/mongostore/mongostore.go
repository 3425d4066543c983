// Package mongostore implements docstore.Store on MongoDB.
//
// Every document carries a "rev" field that is $inc'd by each mutation;
// ReplaceIf filters on {_id, rev} so an interleaved writer makes the
// replace match nothing and the caller sees a Conflict. The set and
// list operations map directly onto $addToSet, $pull and $push, which
// are atomic per document on the server.
package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gameinfo/gamesync/internal/apperr"
	"github.com/gameinfo/gamesync/internal/docstore"
)

const connectTimeout = 10 * time.Second

// Store implements docstore.Store on a mongo database.
type Store struct {
	db  *mongo.Database
	log zerolog.Logger
}

// Connect dials uri and returns a Store over the named database.
func Connect(ctx context.Context, uri, database string, log zerolog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Network("mongostore.Connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, apperr.Network("mongostore.Connect", err)
	}
	log.Debug().Str("database", database).Msg("connected to document store")
	return &Store{db: client.Database(database), log: log}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// revDoc extracts just the revision tag from a fetched document.
type revDoc struct {
	Rev int64 `bson:"rev"`
}

// Get decodes the document at (collection, id) into out.
func (s *Store) Get(ctx context.Context, collection, id string, out any) (docstore.Rev, error) {
	res := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id})
	var raw bson.Raw
	if err := res.Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, apperr.Errorf(apperr.KindNotFound, "mongostore.Get", "%s/%s not found", collection, id)
		}
		return 0, apperr.Network("mongostore.Get", err)
	}
	var rd revDoc
	if err := bson.Unmarshal(raw, &rd); err != nil {
		return 0, apperr.Network("mongostore.Get", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return 0, apperr.Network("mongostore.Get", err)
	}
	return docstore.Rev(rd.Rev), nil
}

// Set creates or overwrites the whole document, bumping its revision.
func (s *Store) Set(ctx context.Context, collection, id string, doc any) error {
	fields, err := toM(doc)
	if err != nil {
		return err
	}
	update := bson.M{"$set": fields, "$inc": bson.M{"rev": 1}}
	_, err = s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Network("mongostore.Set", err)
	}
	return nil
}

// SetUnion adds values to the string-set field via $addToSet.
func (s *Store) SetUnion(ctx context.Context, collection, id, field string, values ...string) error {
	update := bson.M{
		"$addToSet": bson.M{field: bson.M{"$each": values}},
		"$inc":      bson.M{"rev": 1},
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Network("mongostore.SetUnion", err)
	}
	return nil
}

// SetDifference removes values from the string-set field via $pull.
func (s *Store) SetDifference(ctx context.Context, collection, id, field string, values ...string) error {
	update := bson.M{
		"$pull": bson.M{field: bson.M{"$in": values}},
		"$inc":  bson.M{"rev": 1},
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Network("mongostore.SetDifference", err)
	}
	return nil
}

// ListAppend appends values to the list field via $push.
func (s *Store) ListAppend(ctx context.Context, collection, id, field string, values ...any) error {
	update := bson.M{
		"$push": bson.M{field: bson.M{"$each": values}},
		"$inc":  bson.M{"rev": 1},
	}
	_, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, options.Update().SetUpsert(true))
	if err != nil {
		return apperr.Network("mongostore.ListAppend", err)
	}
	return nil
}

// ReplaceIf overwrites the document only when its revision still equals
// rev. A matched-nothing replace is disambiguated into Conflict versus
// NotFound with a follow-up existence check.
func (s *Store) ReplaceIf(ctx context.Context, collection, id string, rev docstore.Rev, doc any) error {
	fields, err := toM(doc)
	if err != nil {
		return err
	}
	fields["_id"] = id
	fields["rev"] = int64(rev) + 1

	res, err := s.db.Collection(collection).ReplaceOne(ctx, bson.M{"_id": id, "rev": int64(rev)}, fields)
	if err != nil {
		return apperr.Network("mongostore.ReplaceIf", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	count, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Network("mongostore.ReplaceIf", err)
	}
	if count == 0 {
		return apperr.Errorf(apperr.KindNotFound, "mongostore.ReplaceIf", "%s/%s not found", collection, id)
	}
	s.log.Debug().Str("collection", collection).Str("id", id).Int64("rev", int64(rev)).Msg("revision check failed")
	return apperr.Errorf(apperr.KindConflict, "mongostore.ReplaceIf", "%s/%s moved past rev %d", collection, id, rev)
}

func toM(doc any) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = bson.M{}
	}
	return m, nil
}
