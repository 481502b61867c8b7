package history

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/taskmesh/internal/util"
)

// InMemoryStore is a volatile Store implementation keeping entries in a
// process-local slice. It is safe for concurrent access and best suited for
// tests or ephemeral demos. Returned entries are copies to prevent external
// mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Record appends one entry, assigning an ID and timestamp when unset.
func (s *InMemoryStore) Record(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = util.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.entries = append(s.entries, cloneEntry(entry))
	s.mu.Unlock()

	return nil
}

// Retrieve returns up to limit entries, newest first.
func (s *InMemoryStore) Retrieve(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, cloneEntry(s.entries[i]))
	}

	return result, nil
}

func cloneEntry(e Entry) Entry {
	if e.Payload != nil {
		payload := make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			payload[k] = v
		}
		e.Payload = payload
	}
	return e
}
