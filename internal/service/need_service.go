package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/cache"
	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NeedRequest carries everything a hierarchy computation depends on.
type NeedRequest struct {
	Config replenishment.PlanningConfig `json:"config"`
	Mode   replenishment.ViewMode       `json:"mode"`
	Filter domain.SnapshotFilter        `json:"filter"`
}

// Validate checks the planning config and view mode.
func (r NeedRequest) Validate() error {
	if err := r.Config.Validate(); err != nil {
		return err
	}
	return validateView(r.Mode, r.Filter)
}

// OrderSelection is one selected leaf of the hierarchy.
type OrderSelection struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
}

type OrderRequest struct {
	NeedRequest
	Selections []OrderSelection `json:"selections"`
	CreatedBy  string           `json:"created_by"`
}

type NeedService struct {
	inventory repository.InventoryRepository
	orders    repository.OrderRepository
	cache     cache.HierarchyCache
	now       func() time.Time
}

func NewNeedService(inventory repository.InventoryRepository, orders repository.OrderRepository, cacheImpl cache.HierarchyCache) *NeedService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopHierarchyCache()
	}
	return &NeedService{
		inventory: inventory,
		orders:    orders,
		cache:     cacheImpl,
		now:       time.Now,
	}
}

// GetHierarchy returns the need hierarchy, served from cache when possible.
func (s *NeedService) GetHierarchy(ctx context.Context, req NeedRequest) (*replenishment.Hierarchy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filter, err := s.resolveDate(ctx, req.Filter)
	if err != nil {
		return nil, err
	}
	key := cache.HierarchyKey{Filter: filter, Config: req.Config, Mode: req.Mode}

	if h, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return h, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("needs: cache get hierarchy failed")
	}

	h, err := s.aggregate(ctx, filter, req)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, h); err != nil {
		log.Warn().Err(err).Msg("needs: cache set hierarchy failed")
	}

	return h, nil
}

// Compute always reads the snapshot and recomputes, bypassing the cache.
func (s *NeedService) Compute(ctx context.Context, req NeedRequest) (*replenishment.Hierarchy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filter, err := s.resolveDate(ctx, req.Filter)
	if err != nil {
		return nil, err
	}

	return s.aggregate(ctx, filter, req)
}

// StoreList is the set of stores present in the latest snapshot.
type StoreList struct {
	SnapshotDate string         `json:"snapshot_date"`
	Stores       []domain.Store `json:"stores"`
}

// ListStores returns the stores of the latest snapshot, for single-store views.
func (s *NeedService) ListStores(ctx context.Context) (*StoreList, error) {
	date, err := s.inventory.LatestSnapshotDate(ctx)
	if err != nil {
		return nil, err
	}

	list := &StoreList{SnapshotDate: date, Stores: []domain.Store{}}
	if date == "" {
		return list, nil
	}

	stores, err := s.inventory.ListStores(ctx)
	if err != nil {
		return nil, err
	}
	if stores != nil {
		list.Stores = stores
	}
	return list, nil
}

// InvalidateCache drops every cached hierarchy.
func (s *NeedService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// SubmitOrder recomputes the selected leaves from the snapshot and stores
// them as an order. Quantities sent by the caller are never trusted.
func (s *NeedService) SubmitOrder(ctx context.Context, req OrderRequest) (*domain.ReplenishmentOrder, error) {
	selections := dedupeSelections(req.Selections)
	if len(selections) == 0 {
		return nil, domain.ErrEmptySelection
	}

	needReq := req.NeedRequest
	needReq.Filter.ProductIDs = selectedProducts(selections)

	h, err := s.Compute(ctx, needReq)
	if err != nil {
		return nil, err
	}

	order := &domain.ReplenishmentOrder{
		ID:           uuid.NewString(),
		PlanningDays: req.Config.PlanningDays,
		BufferDays:   req.Config.BufferDays,
		BufferMode:   string(req.Config.BufferMode),
		CreatedBy:    req.CreatedBy,
		CreatedAt:    s.now().UTC(),
	}

	for _, sel := range selections {
		product, leaf, ok := h.Lookup(sel.ProductID, sel.StoreID)
		if !ok {
			return nil, fmt.Errorf("product %s in store %s has no need: %w", sel.ProductID, sel.StoreID, domain.ErrNotFound)
		}
		order.Lines = append(order.Lines, domain.OrderLine{
			OrderID:        order.ID,
			ProductID:      product.ProductID,
			ProductName:    product.ProductName,
			StoreID:        leaf.StoreID,
			StoreName:      leaf.StoreName,
			Priority:       string(leaf.Priority),
			UrgentQty:      leaf.Need.UrgentDeficit,
			PlannedQty:     leaf.Need.PlannedOrder,
			RecommendedQty: leaf.Need.RecommendedOrder,
		})
	}

	if err := s.orders.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID).
		Int("lines", len(order.Lines)).
		Str("created_by", order.CreatedBy).
		Msg("replenishment order saved")

	return order, nil
}

func (s *NeedService) resolveDate(ctx context.Context, filter domain.SnapshotFilter) (domain.SnapshotFilter, error) {
	if filter.SnapshotDate != "" {
		return filter, nil
	}
	date, err := s.inventory.LatestSnapshotDate(ctx)
	if err != nil {
		return filter, err
	}
	filter.SnapshotDate = date
	return filter, nil
}

func (s *NeedService) aggregate(ctx context.Context, filter domain.SnapshotFilter, req NeedRequest) (*replenishment.Hierarchy, error) {
	var records []domain.InventoryRecord
	// An empty date means nothing has been ingested; the hierarchy is empty.
	if filter.SnapshotDate != "" {
		var err error
		records, err = s.inventory.ListSnapshot(ctx, filter)
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return replenishment.Aggregate(records, req.Config, req.Mode), nil
}

func dedupeSelections(in []OrderSelection) []OrderSelection {
	seen := make(map[OrderSelection]bool, len(in))
	out := make([]OrderSelection, 0, len(in))
	for _, sel := range in {
		if sel.ProductID == "" || sel.StoreID == "" || seen[sel] {
			continue
		}
		seen[sel] = true
		out = append(out, sel)
	}
	return out
}

func selectedProducts(selections []OrderSelection) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, sel := range selections {
		if !seen[sel.ProductID] {
			seen[sel.ProductID] = true
			ids = append(ids, sel.ProductID)
		}
	}
	return ids
}
