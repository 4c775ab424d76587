package replenishment

// Visible decides whether a row belongs in the aggregate view.
// In single-store mode every row is shown. In all-stores mode only rows whose
// stock is below the planning-plus-buffer horizon survive; 0 < 0 is false, so
// zero-velocity zero-stock rows are suppressed.
func Visible(need NeedResult, mode ViewMode, cfg PlanningConfig) bool {
	if mode == ViewSingleStore {
		return true
	}

	horizon := float64(cfg.PlanningDays) + nonNegative(cfg.BufferDays)
	return need.State.CurrentStock < need.State.AvgSalesPerDay*horizon
}
