package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/cache"
	"github.com/andresuchdata/autoreplenish/internal/config"
	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
)

var snapshotDay = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func record(productID, storeID string, avg, stock, min float64) domain.InventoryRecord {
	return domain.InventoryRecord{
		SnapshotDate:   snapshotDay,
		ProductID:      productID,
		ProductName:    "Product " + productID,
		Category:       "Bakery",
		StoreID:        storeID,
		StoreName:      "Store " + storeID,
		AvgSalesPerDay: avg,
		CurrentStock:   stock,
		MinStock:       min,
	}
}

type fakeInventory struct {
	mu      sync.Mutex
	date    string
	records []domain.InventoryRecord
	calls   int
	filters []domain.SnapshotFilter
	err     error
}

func (f *fakeInventory) ListSnapshot(ctx context.Context, filter domain.SnapshotFilter) ([]domain.InventoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}

	var out []domain.InventoryRecord
	for _, r := range f.records {
		if len(filter.ProductIDs) > 0 && !contains(filter.ProductIDs, r.ProductID) {
			continue
		}
		if len(filter.StoreIDs) > 0 && !contains(filter.StoreIDs, r.StoreID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeInventory) ListStores(ctx context.Context) ([]domain.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var stores []domain.Store
	for _, r := range f.records {
		if !seen[r.StoreID] {
			seen[r.StoreID] = true
			stores = append(stores, domain.Store{ID: r.StoreID, Name: r.StoreName})
		}
	}
	return stores, nil
}

func (f *fakeInventory) LatestSnapshotDate(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date, nil
}

func (f *fakeInventory) setDate(date string) {
	f.mu.Lock()
	f.date = date
	f.mu.Unlock()
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

type fakeOrders struct {
	saved []*domain.ReplenishmentOrder
}

func (f *fakeOrders) SaveOrder(ctx context.Context, order *domain.ReplenishmentOrder) error {
	f.saved = append(f.saved, order)
	return nil
}

type fakeAllocations struct {
	commits map[string]*domain.AllocationCommit
}

func newFakeAllocations() *fakeAllocations {
	return &fakeAllocations{commits: make(map[string]*domain.AllocationCommit)}
}

func (f *fakeAllocations) CommitAllocation(ctx context.Context, commit *domain.AllocationCommit) error {
	if _, ok := f.commits[commit.ID]; ok {
		return domain.ErrAlreadyCommitted
	}
	f.commits[commit.ID] = commit
	return nil
}

func (f *fakeAllocations) GetAllocation(ctx context.Context, id string) (*domain.AllocationCommit, error) {
	c, ok := f.commits[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// memoryCache is an in-process HierarchyCache used to observe cache traffic.
type memoryCache struct {
	entries     map[string]*replenishment.Hierarchy
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*replenishment.Hierarchy)}
}

func (m *memoryCache) Get(ctx context.Context, key cache.HierarchyKey) (*replenishment.Hierarchy, bool, error) {
	h, ok := m.entries[fmt.Sprintf("%+v", key)]
	return h, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key cache.HierarchyKey, h *replenishment.Hierarchy) error {
	m.entries[fmt.Sprintf("%+v", key)] = h
	return nil
}

func (m *memoryCache) InvalidateAll(ctx context.Context) error {
	m.entries = make(map[string]*replenishment.Hierarchy)
	m.invalidated++
	return nil
}

func salesConfig() replenishment.PlanningConfig {
	return replenishment.PlanningConfig{PlanningDays: 3, BufferDays: 2, BufferMode: replenishment.BufferSalesEquivalent}
}

func minStockConfig() replenishment.PlanningConfig {
	return replenishment.PlanningConfig{PlanningDays: 3, BufferDays: 2, BufferMode: replenishment.BufferMinStock}
}

func configPlanning() config.PlanningConfig {
	return config.PlanningConfig{
		PlanningDays:           3,
		BufferDays:             2,
		BufferMode:             "sales-equivalent",
		DistributionBufferMode: "min_stock",
		PollIntervalSeconds:    60,
	}
}
