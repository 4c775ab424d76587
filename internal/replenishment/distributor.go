package replenishment

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DistributionStore is the per-store input of a batch distribution.
type DistributionStore struct {
	StoreID        string  `json:"store_id"`
	StoreName      string  `json:"store_name"`
	AvgSalesPerDay float64 `json:"avg_sales_per_day"`
	CurrentStock   float64 `json:"current_stock"`
	UrgentDeficit  int     `json:"urgent_deficit"`
}

// AllocationLine is the quantity assigned to one store, split by phase.
type AllocationLine struct {
	StoreID       string `json:"store_id"`
	StoreName     string `json:"store_name"`
	UrgentDeficit int    `json:"urgent_deficit"`
	Critical      int    `json:"critical"`
	Proportional  int    `json:"proportional"`
	Remainder     int    `json:"remainder"`
	Total         int    `json:"total"`
}

// Shortfall is the part of the urgent deficit the allocation leaves uncovered.
func (l AllocationLine) Shortfall() int {
	if l.Total >= l.UrgentDeficit {
		return 0
	}
	return l.UrgentDeficit - l.Total
}

// DistributionResult is the outcome of Distribute. Lines follow input order.
type DistributionResult struct {
	ProducedQuantity  int              `json:"produced_quantity"`
	Lines             []AllocationLine `json:"lines"`
	CriticalNeed      int              `json:"critical_need"`
	CriticalShortfall bool             `json:"critical_shortfall"`
	Undistributed     int              `json:"undistributed"` // only non-zero without stores
}

// Allocation returns storeID → quantity.
func (r DistributionResult) Allocation() map[string]int {
	out := make(map[string]int, len(r.Lines))
	for _, l := range r.Lines {
		out[l.StoreID] += l.Total
	}
	return out
}

// Allocated returns the sum of all line totals.
func (r DistributionResult) Allocated() int {
	total := 0
	for _, l := range r.Lines {
		total += l.Total
	}
	return total
}

// DistributionStoresFromNeeds builds distributor input from calculated needs.
func DistributionStoresFromNeeds(needs []NeedResult) []DistributionStore {
	stores := make([]DistributionStore, len(needs))
	for i, n := range needs {
		stores[i] = DistributionStore{
			StoreID:        n.State.StoreID,
			StoreName:      n.State.StoreName,
			AvgSalesPerDay: n.State.AvgSalesPerDay,
			CurrentStock:   n.State.CurrentStock,
			UrgentDeficit:  n.UrgentDeficit,
		}
	}
	return stores
}

// Distribute allocates a produced quantity across stores in three phases:
// critical coverage, proportional-to-velocity fill, and unit-by-unit
// remainder to the lowest-stock stores. When supply cannot cover the critical
// need, Phase 2 does not run. The sum of allocations always equals
// produced when at least one store is given.
func Distribute(produced int, stores []DistributionStore) DistributionResult {
	if produced < 0 {
		produced = 0
	}

	result := DistributionResult{
		ProducedQuantity: produced,
		Lines:            make([]AllocationLine, len(stores)),
	}
	if len(stores) == 0 {
		result.Undistributed = produced
		return result
	}

	urgent := make([]int64, len(stores))
	var totalCritical int64
	for i, s := range stores {
		result.Lines[i] = AllocationLine{
			StoreID:   s.StoreID,
			StoreName: s.StoreName,
		}
		if s.UrgentDeficit > 0 {
			urgent[i] = int64(s.UrgentDeficit)
			result.Lines[i].UrgentDeficit = s.UrgentDeficit
		}
		totalCritical += urgent[i]
	}
	result.CriticalNeed = int(totalCritical)

	remaining := int64(produced)

	// Phase 1: critical coverage
	if totalCritical > 0 {
		if remaining >= totalCritical {
			for i := range stores {
				result.Lines[i].Critical = int(urgent[i])
			}
			remaining -= totalCritical
		} else {
			result.CriticalShortfall = true
			supply := remaining
			for i := range stores {
				share := urgent[i] * supply / totalCritical
				result.Lines[i].Critical = int(share)
				remaining -= share
			}
		}
	}

	// Phase 2: proportional to average daily sales. Skipped on a shortfall so
	// the flooring residue of Phase 1 goes to the lowest-stock stores.
	totalAvg := decimal.Zero
	avgs := make([]decimal.Decimal, len(stores))
	for i, s := range stores {
		avgs[i] = decimal.NewFromFloat(nonNegative(s.AvgSalesPerDay))
		totalAvg = totalAvg.Add(avgs[i])
	}
	if remaining > 0 && !result.CriticalShortfall && totalAvg.IsPositive() {
		pool := decimal.NewFromInt(remaining)
		for i := range stores {
			share := avgs[i].Mul(pool).Div(totalAvg).Floor().IntPart()
			if share > remaining {
				share = remaining
			}
			result.Lines[i].Proportional = int(share)
			remaining -= share
		}
	}

	// Phase 3: one unit at a time, lowest current stock first
	if remaining > 0 {
		order := make([]int, len(stores))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return nonNegative(stores[order[a]].CurrentStock) < nonNegative(stores[order[b]].CurrentStock)
		})

		n := int64(len(order))
		full := remaining / n
		extra := remaining % n
		for rank, i := range order {
			units := full
			if int64(rank) < extra {
				units++
			}
			result.Lines[i].Remainder = int(units)
		}
	}

	for i := range result.Lines {
		l := &result.Lines[i]
		l.Total = l.Critical + l.Proportional + l.Remainder
	}

	return result
}
