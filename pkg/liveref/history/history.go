package history

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxEntries caps the history list when no limit is configured
const DefaultMaxEntries = 50

// Store persists the search history list
type Store interface {
	Close() error

	// Add records an entry and trims the oldest entries beyond the cap.
	Add(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, newest first. limit <= 0 means all.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// Entry is one completed search
type Entry struct {
	ID        string    `json:"id"`
	Keywords  []string  `json:"keywords"`
	Snippet   string    `json:"snippet"`
	Results   int       `json:"results"` // lookups that found something
	CreatedAt time.Time `json:"created_at"`
}

// NewID returns a fresh, time-ordered entry ID. Stores assign one to entries
// added without an ID so that distinct searches never collapse into one.
func NewID() string {
	return ulid.Make().String()
}
