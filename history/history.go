package history

import (
	"context"
	"time"
)

// Entry is one recorded interaction, typically a process run snapshot.
type Entry struct {
	ID        string         `json:"id" bson:"id"`
	Process   string         `json:"process" bson:"process"`
	Payload   map[string]any `json:"payload" bson:"payload"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}

// Store persists interaction entries. Record appends one entry; Retrieve
// returns the most recent entries, newest first. A limit of zero or below
// returns everything.
type Store interface {
	Record(ctx context.Context, entry Entry) error
	Retrieve(ctx context.Context, limit int) ([]Entry, error)
}
