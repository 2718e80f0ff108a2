package order

import (
	"context"
	"fmt"
)

// PartitionKey identifies one cached order-list partition: the orders of one
// source, optionally narrowed to one status.
type PartitionKey struct {
	Source Source
	Status *Status
}

// String returns the stable partition identifier
func (k PartitionKey) String() string {
	status := "all"
	if k.Status != nil {
		status = k.Status.String()
	}
	return fmt.Sprintf("orders:%s:%s", k.Source, status)
}

// ListInvalidator signals that cached order-list partitions are stale.
// A successful mutation bumps the partition version for the mutated order's
// source and status; readers that observe a version change must re-issue the
// adapter fetch rather than patch any in-memory list.
type ListInvalidator interface {
	// Invalidate bumps the version of the given partition
	Invalidate(ctx context.Context, key PartitionKey) error

	// Version returns the current partition version (0 if never invalidated)
	Version(ctx context.Context, key PartitionKey) (int64, error)
}
