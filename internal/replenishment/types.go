package replenishment

import (
	"fmt"
	"math"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/domain"
)

// BufferMode selects how the safety buffer part of the target is formed.
type BufferMode string

const (
	// BufferSalesEquivalent expresses the buffer as avgSalesPerDay × bufferDays.
	// Used for network-wide order formation.
	BufferSalesEquivalent BufferMode = "sales-equivalent"
	// BufferMinStock uses the per-store minStock threshold as the buffer.
	// Used for single-product batch distribution.
	BufferMinStock BufferMode = "min-stock"
)

var bufferModes = map[string]BufferMode{
	"sales-equivalent": BufferSalesEquivalent,
	"sales_equivalent": BufferSalesEquivalent,
	"sales":            BufferSalesEquivalent,
	"min-stock":        BufferMinStock,
	"min_stock":        BufferMinStock,
	"minstock":         BufferMinStock,
}

// ParseBufferMode returns the buffer mode for a label (case-insensitive).
func ParseBufferMode(label string) (BufferMode, bool) {
	mode, ok := bufferModes[strings.ToLower(strings.TrimSpace(label))]
	return mode, ok
}

// PlanningConfig holds the per-invocation planning parameters.
type PlanningConfig struct {
	PlanningDays int        `json:"planning_days"`
	BufferDays   float64    `json:"buffer_days"`
	BufferMode   BufferMode `json:"buffer_mode"`
}

// Validate rejects configurations the calculators must never see.
func (c PlanningConfig) Validate() error {
	if c.PlanningDays < 1 {
		return fmt.Errorf("%w: planning days must be at least 1, got %d", domain.ErrInvalidConfig, c.PlanningDays)
	}
	if math.IsNaN(c.BufferDays) || math.IsInf(c.BufferDays, 0) || c.BufferDays < 0 {
		return fmt.Errorf("%w: buffer days must be a non-negative number, got %v", domain.ErrInvalidConfig, c.BufferDays)
	}
	switch c.BufferMode {
	case BufferSalesEquivalent, BufferMinStock:
	default:
		return fmt.Errorf("%w: unknown buffer mode %q", domain.ErrInvalidConfig, c.BufferMode)
	}
	return nil
}

// StoreState is the inventory position of one product in one store.
type StoreState struct {
	StoreID        string  `json:"store_id"`
	StoreName      string  `json:"store_name"`
	AvgSalesPerDay float64 `json:"avg_sales_per_day"`
	CurrentStock   float64 `json:"current_stock"`
	MinStock       float64 `json:"min_stock"`
}

// StoreStateFromRecord projects a snapshot row onto the calculator input.
func StoreStateFromRecord(r domain.InventoryRecord) StoreState {
	return StoreState{
		StoreID:        r.StoreID,
		StoreName:      r.StoreName,
		AvgSalesPerDay: r.AvgSalesPerDay,
		CurrentStock:   r.CurrentStock,
		MinStock:       r.MinStock,
	}
}

// NeedResult holds the replenishment need derived for one product×store.
// State is the normalised input (non-finite and negative values already zeroed).
type NeedResult struct {
	State            StoreState `json:"state"`
	Target           float64    `json:"target"`
	BufferTarget     float64    `json:"buffer_target"`
	RecommendedOrder int        `json:"recommended_order"` // urgent + planned
	UrgentDeficit    int        `json:"urgent_deficit"`
	PlannedOrder     int        `json:"planned_order"`
}

// PriorityTag classifies how urgently a need must be served.
type PriorityTag string

const (
	PriorityCritical PriorityTag = "critical"
	PriorityReserve  PriorityTag = "reserve"
	PriorityNormal   PriorityTag = "normal"
)

// ViewMode controls the visibility filter.
type ViewMode string

const (
	ViewAllStores   ViewMode = "all-stores"
	ViewSingleStore ViewMode = "single-store"
)

var viewModes = map[string]ViewMode{
	"all-stores":   ViewAllStores,
	"all_stores":   ViewAllStores,
	"all":          ViewAllStores,
	"single-store": ViewSingleStore,
	"single_store": ViewSingleStore,
	"single":       ViewSingleStore,
}

// ParseViewMode returns the view mode for a label (case-insensitive).
func ParseViewMode(label string) (ViewMode, bool) {
	mode, ok := viewModes[strings.ToLower(strings.TrimSpace(label))]
	return mode, ok
}
