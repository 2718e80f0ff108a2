package cache

import (
	"context"
	"sync"

	"github.com/merchdash/backend/internal/domain/order"
)

// InMemoryListVersions implements ListInvalidator with an in-process map.
// Suitable for single-instance deployments and testing.
type InMemoryListVersions struct {
	mu       sync.RWMutex
	versions map[string]int64
}

// NewInMemoryListVersions creates a new in-memory partition version store
func NewInMemoryListVersions() *InMemoryListVersions {
	return &InMemoryListVersions{
		versions: make(map[string]int64),
	}
}

// Invalidate bumps the version of the given partition. The all-statuses
// partition of the same source is bumped too, since it contains the mutated
// order as well.
func (s *InMemoryListVersions) Invalidate(_ context.Context, key order.PartitionKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.versions[key.String()]++
	if key.Status != nil {
		all := order.PartitionKey{Source: key.Source}
		s.versions[all.String()]++
	}
	return nil
}

// Version returns the current partition version, 0 if never invalidated
func (s *InMemoryListVersions) Version(_ context.Context, key order.PartitionKey) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[key.String()], nil
}

// Ensure InMemoryListVersions implements the ListInvalidator port
var _ order.ListInvalidator = (*InMemoryListVersions)(nil)
