package replenishment

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		need NeedResult
		want PriorityTag
	}{
		{"tiny urgent deficit is critical", NeedResult{RecommendedOrder: 40, UrgentDeficit: 1, PlannedOrder: 39}, PriorityCritical},
		{"planned only is reserve", NeedResult{RecommendedOrder: 5, PlannedOrder: 5}, PriorityReserve},
		{"nothing to order is normal", NeedResult{}, PriorityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.need); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_FollowsConfigChange(t *testing.T) {
	state := StoreState{AvgSalesPerDay: 2, CurrentStock: 5}

	if got := Classify(CalculateNeed(state, salesCfg(3, 1))); got != PriorityReserve {
		t.Errorf("expected reserve with 1 buffer day, got %s", got)
	}
	if got := Classify(CalculateNeed(state, salesCfg(3, 4))); got != PriorityCritical {
		t.Errorf("expected critical with 4 buffer days, got %s", got)
	}
}

func TestParsePriority(t *testing.T) {
	if tag, ok := ParsePriority("Planned"); !ok || tag != PriorityReserve {
		t.Errorf("expected planned to map to reserve, got %q (%v)", tag, ok)
	}
	if tag, ok := ParsePriority("CRITICAL"); !ok || tag != PriorityCritical {
		t.Errorf("expected critical, got %q (%v)", tag, ok)
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("expected unknown label to be rejected")
	}
}
