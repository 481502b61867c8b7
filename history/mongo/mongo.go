// Package mongo provides a MongoDB-backed history.Store. It lives in its own
// package so the driver dependency stays isolated from in-memory and Redis
// users.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/history"
	"github.com/hupe1980/taskmesh/internal/util"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Options configures the MongoDB history store.
type Options struct {
	Database   string
	Collection string
}

// Store persists entries in a MongoDB collection, one document per entry.
type Store struct {
	coll *mongo.Collection
}

// NewStore wraps an existing client. Defaults: database "taskmesh",
// collection "agent_history".
func NewStore(client *mongo.Client, optFns ...func(o *Options)) *Store {
	opts := Options{Database: "taskmesh", Collection: "agent_history"}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Store{coll: client.Database(opts.Database).Collection(opts.Collection)}
}

// Record inserts one entry document.
func (s *Store) Record(ctx context.Context, entry history.Entry) error {
	if entry.ID == "" {
		entry.ID = util.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

// Retrieve returns up to limit entries, newest first.
func (s *Store) Retrieve(ctx context.Context, limit int) ([]history.Entry, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOpts = findOpts.SetLimit(int64(limit))
	}

	cursor, err := s.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []history.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	return entries, nil
}
