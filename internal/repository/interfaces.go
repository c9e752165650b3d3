package repository

import (
	"context"

	"github.com/iconidentify/mediakit/internal/domain"
)

// LookupRepository records successful format lookups.
type LookupRepository interface {
	// Record stores a lookup.
	Record(ctx context.Context, lookup *domain.Lookup) error

	// Get retrieves a lookup by ID.
	Get(ctx context.Context, id domain.LookupID) (*domain.Lookup, error)

	// Recent returns up to limit lookups, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Lookup, error)

	// Stats returns lookup counts.
	Stats(ctx context.Context) (*LookupStats, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// LookupStats contains lookup history statistics.
type LookupStats struct {
	Total      int                     `json:"total"`
	ByPlatform map[domain.Platform]int `json:"byPlatform"`
}

// DefaultMaxEntries bounds stores created without an explicit limit.
const DefaultMaxEntries = 1000
