// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/autoreplenish/internal/domain"
)

// InventoryRepository supplies inventory snapshot rows to the engine.
type InventoryRepository interface {
	// ListSnapshot returns rows of the requested snapshot date, or of the
	// latest snapshot when the filter has no date.
	ListSnapshot(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
	// LatestSnapshotDate is empty when nothing has been ingested yet.
	LatestSnapshotDate(ctx context.Context) (string, error)
}

// AllocationRepository persists confirmed batch distributions.
// CommitAllocation is a single atomic write; there is no update or undo.
type AllocationRepository interface {
	CommitAllocation(ctx context.Context, commit *domain.AllocationCommit) error
	GetAllocation(ctx context.Context, id string) (*domain.AllocationCommit, error)
}

// OrderRepository persists replenishment orders built from the need hierarchy.
type OrderRepository interface {
	SaveOrder(ctx context.Context, order *domain.ReplenishmentOrder) error
}
