// internal/domain/models.go
package domain

import "time"

// Store represents a store location
type Store struct {
	ID   string `json:"id" db:"store_id"`
	Name string `json:"name" db:"store_name"`
}

// InventoryRecord is one product×store row of an inventory snapshot.
type InventoryRecord struct {
	SnapshotDate   time.Time `json:"snapshot_date" db:"snapshot_date"`
	ProductID      string    `json:"product_id" db:"product_id"`
	ProductName    string    `json:"product_name" db:"product_name"`
	Category       string    `json:"category" db:"category"`
	StoreID        string    `json:"store_id" db:"store_id"`
	StoreName      string    `json:"store_name" db:"store_name"`
	AvgSalesPerDay float64   `json:"avg_sales_per_day" db:"avg_sales_per_day"`
	CurrentStock   float64   `json:"current_stock" db:"current_stock"`
	MinStock       float64   `json:"min_stock" db:"min_stock"`
	// SourceRow numbers repeated product×store rows of one snapshot date.
	SourceRow int `json:"-" db:"source_row"`
}

// SnapshotFilter narrows the inventory rows loaded from the snapshot store.
type SnapshotFilter struct {
	ProductIDs   []string `json:"product_ids"`
	StoreIDs     []string `json:"store_ids"`
	Categories   []string `json:"categories"`
	SnapshotDate string   `json:"snapshot_date"` // YYYY-MM-DD, empty means latest
}

// AllocationCommit is an operator-confirmed batch distribution.
// Once written it is never recomputed.
type AllocationCommit struct {
	ID               string                 `json:"id" db:"id"`
	ProductID        string                 `json:"product_id" db:"product_id"`
	ProducedQuantity int                    `json:"produced_quantity" db:"produced_quantity"`
	PlanningDays     int                    `json:"planning_days" db:"planning_days"`
	BufferDays       float64                `json:"buffer_days" db:"buffer_days"`
	BufferMode       string                 `json:"buffer_mode" db:"buffer_mode"`
	CommittedBy      string                 `json:"committed_by" db:"committed_by"`
	CommittedAt      time.Time              `json:"committed_at" db:"committed_at"`
	Lines            []AllocationCommitLine `json:"lines" db:"-"`
}

// AllocationCommitLine is the quantity sent to a single store.
type AllocationCommitLine struct {
	AllocationID string `json:"-" db:"allocation_id"`
	StoreID      string `json:"store_id" db:"store_id"`
	StoreName    string `json:"store_name" db:"store_name"`
	Quantity     int    `json:"quantity" db:"quantity"`
}

// Total returns the sum of all line quantities.
func (a *AllocationCommit) Total() int {
	total := 0
	for _, l := range a.Lines {
		total += l.Quantity
	}
	return total
}

// ReplenishmentOrder is an order built from selected need-hierarchy leaves.
type ReplenishmentOrder struct {
	ID           string      `json:"id" db:"id"`
	PlanningDays int         `json:"planning_days" db:"planning_days"`
	BufferDays   float64     `json:"buffer_days" db:"buffer_days"`
	BufferMode   string      `json:"buffer_mode" db:"buffer_mode"`
	CreatedBy    string      `json:"created_by" db:"created_by"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	Lines        []OrderLine `json:"lines" db:"-"`
}

// OrderLine is one product×store quantity of a replenishment order.
type OrderLine struct {
	OrderID        string `json:"-" db:"order_id"`
	ProductID      string `json:"product_id" db:"product_id"`
	ProductName    string `json:"product_name" db:"product_name"`
	StoreID        string `json:"store_id" db:"store_id"`
	StoreName      string `json:"store_name" db:"store_name"`
	Priority       string `json:"priority" db:"priority"`
	UrgentQty      int    `json:"urgent_qty" db:"urgent_qty"`
	PlannedQty     int    `json:"planned_qty" db:"planned_qty"`
	RecommendedQty int    `json:"recommended_qty" db:"recommended_qty"`
}
