// Package cache stores short-lived copies of read-mostly reference data.
//
// A Store only keeps entries with the time they were stored. Freshness is
// decided by the caller through Entry.Fresh, so one store can serve values with
// different TTLs and tests control time through the caller's clock.
package cache

import (
	"context"
	"time"
)

// Entry is a cached value with the time it was stored.
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Fresh reports whether the entry is younger than ttl at now.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return !e.StoredAt.IsZero() && now.Sub(e.StoredAt) < ttl
}

// Store keeps entries by key. A missing key returns ok=false without error.
type Store interface {
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)
	Set(ctx context.Context, key string, entry Entry) error
}
