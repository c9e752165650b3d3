package repository

import (
	"context"
	"sync"

	"github.com/iconidentify/mediakit/internal/domain"
)

// InMemoryLookupRepository implements LookupRepository with a bounded ring
// buffer. Once full, the oldest lookup is overwritten.
type InMemoryLookupRepository struct {
	mu      sync.RWMutex
	lookups []*domain.Lookup
	byID    map[domain.LookupID]*domain.Lookup
	head    int // Next write position
	count   int // Number of lookups in buffer
}

// NewInMemoryLookupRepository creates a repository holding at most maxEntries lookups.
func NewInMemoryLookupRepository(maxEntries int) *InMemoryLookupRepository {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &InMemoryLookupRepository{
		lookups: make([]*domain.Lookup, maxEntries),
		byID:    make(map[domain.LookupID]*domain.Lookup),
	}
}

// Record stores a lookup.
func (r *InMemoryLookupRepository) Record(ctx context.Context, lookup *domain.Lookup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if evicted := r.lookups[r.head]; evicted != nil {
		delete(r.byID, evicted.ID)
	}

	r.lookups[r.head] = lookup
	r.byID[lookup.ID] = lookup
	r.head = (r.head + 1) % len(r.lookups)
	if r.count < len(r.lookups) {
		r.count++
	}

	return nil
}

// Get retrieves a lookup by ID.
func (r *InMemoryLookupRepository) Get(ctx context.Context, id domain.LookupID) (*domain.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lookup, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrLookupNotFound
	}
	return lookup, nil
}

// Recent returns up to limit lookups, newest first.
func (r *InMemoryLookupRepository) Recent(ctx context.Context, limit int) ([]*domain.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > r.count {
		limit = r.count
	}

	result := make([]*domain.Lookup, 0, limit)
	size := len(r.lookups)
	for i := 1; i <= limit; i++ {
		idx := (r.head - i + size) % size
		result = append(result, r.lookups[idx])
	}

	return result, nil
}

// Stats returns lookup counts.
func (r *InMemoryLookupRepository) Stats(ctx context.Context) (*LookupStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &LookupStats{
		Total:      r.count,
		ByPlatform: make(map[domain.Platform]int),
	}
	for _, lookup := range r.byID {
		stats.ByPlatform[lookup.Platform]++
	}

	return stats, nil
}

// Ping always succeeds.
func (r *InMemoryLookupRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op.
func (r *InMemoryLookupRepository) Close() error {
	return nil
}
