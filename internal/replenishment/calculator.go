package replenishment

import (
	"math"

	"github.com/shopspring/decimal"
)

// CalculateNeed derives target, urgent and planned quantities for one store.
// It never fails: malformed numbers contribute 0. cfg is assumed validated.
func CalculateNeed(state StoreState, cfg PlanningConfig) NeedResult {
	state.AvgSalesPerDay = nonNegative(state.AvgSalesPerDay)
	state.CurrentStock = nonNegative(state.CurrentStock)
	state.MinStock = nonNegative(state.MinStock)

	avg := decimal.NewFromFloat(state.AvgSalesPerDay)
	stock := decimal.NewFromFloat(state.CurrentStock)

	// 1. Buffer-only target
	var buffer decimal.Decimal
	switch cfg.BufferMode {
	case BufferMinStock:
		buffer = decimal.NewFromFloat(state.MinStock)
	default:
		buffer = avg.Mul(decimal.NewFromFloat(nonNegative(cfg.BufferDays)))
	}

	// 2. Full target = planning horizon demand + buffer
	target := avg.Mul(decimal.NewFromInt(int64(cfg.PlanningDays))).Add(buffer)

	// 3. Quantities, rounded up after clamping at zero
	recommended := ceilQty(target.Sub(stock))
	urgent := ceilQty(buffer.Sub(stock))

	planned := recommended - urgent
	if planned < 0 {
		planned = 0
		urgent = recommended
	}

	return NeedResult{
		State:            state,
		Target:           target.InexactFloat64(),
		BufferTarget:     buffer.InexactFloat64(),
		RecommendedOrder: recommended,
		UrgentDeficit:    urgent,
		PlannedOrder:     planned,
	}
}

// CalculateNeeds runs CalculateNeed for every state, preserving order.
func CalculateNeeds(states []StoreState, cfg PlanningConfig) []NeedResult {
	results := make([]NeedResult, len(states))
	for i, s := range states {
		results[i] = CalculateNeed(s, cfg)
	}
	return results
}

func ceilQty(d decimal.Decimal) int {
	if !d.IsPositive() {
		return 0
	}
	return int(d.Ceil().IntPart())
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
