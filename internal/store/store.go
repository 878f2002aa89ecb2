// Package store keeps imported records, their outcome tags and their
// translations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for an unknown record id.
var ErrNotFound = errors.New("record not found")

// NewRecord is a record before import.
type NewRecord struct {
	Name   string // display name, e.g. "movie.srt #12"
	Source string // originating file
	Text   string
}

// Record is a stored record.
type Record struct {
	ID             string
	Name           string
	Source         string
	Position       int
	OriginalText   string
	TranslatedText string
	TranslatedAt   time.Time // zero when never translated
}

// Session is an exclusive write handle, valid only inside WithWriteAccess.
type Session interface {
	OriginalText(ctx context.Context, id string) (string, error)
	AddTag(ctx context.Context, id, tag string) error
	RemoveTag(ctx context.Context, id, tag string) error
	ApplyTranslation(ctx context.Context, id, translated string) error
}

// Store is implemented by SQLite and Memory.
type Store interface {
	Import(ctx context.Context, recs []NewRecord) ([]string, error)
	// ReplaceSource deletes every record imported from source, with its
	// tags and translation, and imports recs in its place. Each new record's
	// Source is set to source. It returns the new ids and the number of
	// records removed.
	ReplaceSource(ctx context.Context, source string, recs []NewRecord) ([]string, int64, error)
	// Records returns the given records, or all records when ids is empty,
	// in import order.
	Records(ctx context.Context, ids ...string) ([]Record, error)
	Tags(ctx context.Context, id string) ([]string, error)
	// TagCounts counts records per tag for tags starting with prefix.
	TagCounts(ctx context.Context, prefix string) (map[string]int, error)
	// Reset removes tags starting with prefix and every stored translation.
	// It returns the number of tags removed.
	Reset(ctx context.Context, prefix string) (int64, error)
	// WithWriteAccess runs fn inside one exclusive transaction. Changes are
	// kept when fn returns nil and discarded when it fails or panics.
	WithWriteAccess(ctx context.Context, fn func(Session) error) error
	Close() error
}
