// Package store persists evaluated expressions for the history and stats
// endpoints.
package store

import (
	"context"
	"time"

	"github.com/conneroisu/abacus/internal/api"
)

// DefaultLimit is how many entries List returns when asked for zero or
// fewer.
const DefaultLimit = 30

// Store records successful evaluations. Implementations are safe for
// concurrent use.
type Store interface {
	// Add records an evaluation and returns the stored entry.
	Add(ctx context.Context, expression, result, mode string) (api.HistoryEntry, error)
	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]api.HistoryEntry, error)
	// Clear deletes every entry.
	Clear(ctx context.Context) error
	// Stats returns the number of entries and the creation time of the
	// newest one.
	Stats(ctx context.Context) (api.StatsSnapshot, error)
	Close() error
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

// Option configures a store.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock sets the clock used to stamp entries.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
