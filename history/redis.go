package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/internal/util"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis-backed history store.
type RedisOptions struct {
	// KeyPrefix namespaces all keys written by this store.
	KeyPrefix string
	// MaxEntries trims the history list to the most recent N entries on
	// every write. Zero keeps everything.
	MaxEntries int64
}

// RedisStore persists entries in a Redis list, newest first. Suitable for
// deployments that already operate Redis; entries are JSON encoded.
type RedisStore struct {
	client *redis.Client
	key    string
	max    int64
}

// NewRedisStore wraps an existing Redis client. The connection is verified
// with a short ping so miswiring fails at construction time.
func NewRedisStore(client *redis.Client, optFns ...func(o *RedisOptions)) (*RedisStore, error) {
	opts := RedisOptions{KeyPrefix: "taskmesh:"}
	for _, fn := range optFns {
		fn(&opts)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    opts.KeyPrefix + "history",
		max:    opts.MaxEntries,
	}, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping checks if the store is healthy.
func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

// Record pushes one JSON-encoded entry to the head of the history list and
// trims the list when a max size is configured.
func (s *RedisStore) Record(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = util.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.key, data)
	if s.max > 0 {
		pipe.LTrim(ctx, s.key, 0, s.max-1)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Retrieve returns up to limit entries, newest first.
func (s *RedisStore) Retrieve(ctx context.Context, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := s.client.LRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, nil
}
