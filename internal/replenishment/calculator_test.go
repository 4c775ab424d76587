package replenishment

import (
	"errors"
	"math"
	"testing"

	"github.com/andresuchdata/autoreplenish/internal/domain"
)

func salesCfg(planning int, buffer float64) PlanningConfig {
	return PlanningConfig{PlanningDays: planning, BufferDays: buffer, BufferMode: BufferSalesEquivalent}
}

func TestCalculateNeed_SalesEquivalentTarget(t *testing.T) {
	need := CalculateNeed(StoreState{StoreID: "S1", AvgSalesPerDay: 10, CurrentStock: 20}, salesCfg(3, 4))

	if need.Target != 70 {
		t.Errorf("expected target 70, got %v", need.Target)
	}
	if need.BufferTarget != 40 {
		t.Errorf("expected buffer target 40, got %v", need.BufferTarget)
	}
	if need.RecommendedOrder != 50 {
		t.Errorf("expected recommended 50, got %d", need.RecommendedOrder)
	}
	if need.UrgentDeficit != 20 {
		t.Errorf("expected urgent 20, got %d", need.UrgentDeficit)
	}
	if need.PlannedOrder != 30 {
		t.Errorf("expected planned 30, got %d", need.PlannedOrder)
	}
}

func TestCalculateNeed_MinStockTarget(t *testing.T) {
	cfg := PlanningConfig{PlanningDays: 2, BufferDays: 7, BufferMode: BufferMinStock}
	need := CalculateNeed(StoreState{AvgSalesPerDay: 5, CurrentStock: 4, MinStock: 6}, cfg)

	// target = 5*2 + 6 = 16, buffer = 6
	if need.Target != 16 {
		t.Errorf("expected target 16, got %v", need.Target)
	}
	if need.RecommendedOrder != 12 {
		t.Errorf("expected recommended 12, got %d", need.RecommendedOrder)
	}
	if need.UrgentDeficit != 2 {
		t.Errorf("expected urgent 2, got %d", need.UrgentDeficit)
	}
	if need.PlannedOrder != 10 {
		t.Errorf("expected planned 10, got %d", need.PlannedOrder)
	}
}

func TestCalculateNeed_RoundsUp(t *testing.T) {
	tests := []struct {
		name        string
		state       StoreState
		cfg         PlanningConfig
		recommended int
		urgent      int
	}{
		{"fractional demand", StoreState{AvgSalesPerDay: 1.2, CurrentStock: 0}, salesCfg(1, 1), 3, 2},
		{"no float drift", StoreState{AvgSalesPerDay: 0.1, CurrentStock: 0}, salesCfg(3, 0), 1, 0},
		{"overstock", StoreState{AvgSalesPerDay: 2, CurrentStock: 100}, salesCfg(3, 2), 0, 0},
		{"fractional stock", StoreState{AvgSalesPerDay: 1, CurrentStock: 0.5}, salesCfg(1, 1), 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			need := CalculateNeed(tt.state, tt.cfg)
			if need.RecommendedOrder != tt.recommended {
				t.Errorf("expected recommended %d, got %d", tt.recommended, need.RecommendedOrder)
			}
			if need.UrgentDeficit != tt.urgent {
				t.Errorf("expected urgent %d, got %d", tt.urgent, need.UrgentDeficit)
			}
		})
	}
}

func TestCalculateNeed_MalformedInputDegradesToZero(t *testing.T) {
	need := CalculateNeed(StoreState{
		AvgSalesPerDay: math.NaN(),
		CurrentStock:   math.Inf(1),
		MinStock:       math.NaN(),
	}, PlanningConfig{PlanningDays: 3, BufferDays: 2, BufferMode: BufferMinStock})

	if need.RecommendedOrder != 0 || need.UrgentDeficit != 0 || need.PlannedOrder != 0 {
		t.Errorf("expected zero need, got %+v", need)
	}
	if math.IsNaN(need.Target) || math.IsNaN(need.State.CurrentStock) {
		t.Errorf("expected no NaN to propagate, got %+v", need)
	}
}

func TestCalculateNeed_NegativeStockClamped(t *testing.T) {
	need := CalculateNeed(StoreState{AvgSalesPerDay: 2, CurrentStock: -15}, salesCfg(2, 1))

	if need.State.CurrentStock != 0 {
		t.Errorf("expected clamped stock 0, got %v", need.State.CurrentStock)
	}
	if need.RecommendedOrder != 6 {
		t.Errorf("expected recommended 6, got %d", need.RecommendedOrder)
	}
	if need.UrgentDeficit != 2 {
		t.Errorf("expected urgent 2, got %d", need.UrgentDeficit)
	}
}

func TestCalculateNeed_Decomposition(t *testing.T) {
	for _, mode := range []BufferMode{BufferSalesEquivalent, BufferMinStock} {
		for avg := 0.0; avg <= 7.5; avg += 1.25 {
			for stock := -3.0; stock <= 40; stock += 3.5 {
				cfg := PlanningConfig{PlanningDays: 4, BufferDays: 1.5, BufferMode: mode}
				need := CalculateNeed(StoreState{AvgSalesPerDay: avg, CurrentStock: stock, MinStock: 5}, cfg)
				if need.RecommendedOrder != need.UrgentDeficit+need.PlannedOrder {
					t.Fatalf("decomposition broken for avg=%v stock=%v mode=%s: %+v", avg, stock, mode, need)
				}
				if need.PlannedOrder < 0 || need.UrgentDeficit < 0 {
					t.Fatalf("negative quantity for avg=%v stock=%v: %+v", avg, stock, need)
				}
			}
		}
	}
}

func TestCalculateNeed_MonotoneInStock(t *testing.T) {
	cfg := salesCfg(5, 2)
	prev := CalculateNeed(StoreState{AvgSalesPerDay: 3.3, CurrentStock: 0}, cfg)
	for stock := 0.5; stock <= 30; stock += 0.5 {
		next := CalculateNeed(StoreState{AvgSalesPerDay: 3.3, CurrentStock: stock}, cfg)
		if next.RecommendedOrder > prev.RecommendedOrder {
			t.Fatalf("recommended increased at stock %v: %d > %d", stock, next.RecommendedOrder, prev.RecommendedOrder)
		}
		if next.UrgentDeficit > prev.UrgentDeficit {
			t.Fatalf("urgent increased at stock %v: %d > %d", stock, next.UrgentDeficit, prev.UrgentDeficit)
		}
		prev = next
	}
}

func TestPlanningConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PlanningConfig
		wantErr bool
	}{
		{"valid", salesCfg(3, 2), false},
		{"zero buffer", PlanningConfig{PlanningDays: 1, BufferMode: BufferMinStock}, false},
		{"zero planning days", salesCfg(0, 2), true},
		{"negative buffer", salesCfg(3, -1), true},
		{"nan buffer", salesCfg(3, math.NaN()), true},
		{"unknown mode", PlanningConfig{PlanningDays: 3, BufferMode: "weekly"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestParseBufferMode(t *testing.T) {
	if mode, ok := ParseBufferMode(" Min_Stock "); !ok || mode != BufferMinStock {
		t.Errorf("expected min-stock, got %q (%v)", mode, ok)
	}
	if _, ok := ParseBufferMode("weekly"); ok {
		t.Error("expected unknown mode to be rejected")
	}
}
