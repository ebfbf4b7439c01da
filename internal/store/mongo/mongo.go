// Package mongo implements store.Store on MongoDB.
//
// ────────────────────────────────────────────────────────────────────
// LEARNING NOTE — atomicity without transactions
// ────────────────────────────────────────────────────────────────────
// Multi-document transactions need a replica set, and a campus deployment
// often runs a single mongod. Every multi-document write here is therefore
// built from single-document atomic updates:
//
//   - Joining a campaign is one conditional findOneAndUpdate whose filter
//     encodes "active, not already on the roster, below capacity". Two
//     racing joins cannot both match the last seat.
//
//   - Reporting an item and awarding a campaign touch several documents.
//     The first write records intent (pendingCredit on the item,
//     awardPending on the campaign). Each user credit carries a marker in
//     the user's credits array and is filtered on its absence, so replaying
//     it is a no-op. Recover replays every recorded intent at startup.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Elizabethomito/ewastetrack/backend/internal/store"
)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	users     *mongo.Collection
	items     *mongo.Collection
	campaigns *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, selects database and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w: %w", store.ErrUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, fmt.Errorf("ping mongo: %w: %w", store.ErrUnavailable, err)
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		db:        db,
		users:     db.Collection("users"),
		items:     db.Collection("ewastes"),
		campaigns: db.Collection("campaigns"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background()) //nolint:errcheck
		return nil, err
	}

	slog.Info("mongo store ready", "database", database)
	return s, nil
}

// caseInsensitive makes "Alice" and "alice" collide on a unique index.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func (s *Store) ensureIndexes(ctx context.Context) error {
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
			{Keys: bson.D{{Key: "department", Value: 1}, {Key: "greenScore", Value: -1}}},
		}},
		{s.items, []mongo.IndexModel{
			{Keys: bson.D{{Key: "itemId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "department", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "pendingCredit", Value: 1}}, Options: options.Index().SetSparse(true)},
		}},
		{s.campaigns, []mongo.IndexModel{
			{Keys: bson.D{{Key: "startDate", Value: 1}}},
			{Keys: bson.D{{Key: "awardPending", Value: 1}}, Options: options.Index().SetSparse(true)},
		}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateMany(ctx, spec.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", spec.coll.Name(), err)
		}
	}
	return nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Drop deletes the whole database. Tests only.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// Recover finishes item credits and campaign awards that were interrupted
// between their first and last write.
func (s *Store) Recover(ctx context.Context) (int, error) {
	n := 0

	cur, err := s.items.Find(ctx, bson.M{"pendingCredit": true})
	if err != nil {
		return 0, fmt.Errorf("find pending credits: %w", err)
	}
	var pending []itemDoc
	if err := cur.All(ctx, &pending); err != nil {
		return 0, fmt.Errorf("decode pending credits: %w", err)
	}
	for _, doc := range pending {
		if err := s.creditReporter(ctx, &doc.Item); err != nil {
			return n, err
		}
		n++
	}

	cur, err = s.campaigns.Find(ctx, bson.M{"awardPending": true})
	if err != nil {
		return n, fmt.Errorf("find pending awards: %w", err)
	}
	var awards []campaignDoc
	if err := cur.All(ctx, &awards); err != nil {
		return n, fmt.Errorf("decode pending awards: %w", err)
	}
	for _, doc := range awards {
		if _, err := s.finishAward(ctx, &doc.Campaign, doc.UpdatedAt); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func creditMarker(kind, id string) string { return kind + ":" + id }
