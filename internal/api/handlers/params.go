package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/gin-gonic/gin"
)

// planningBody is the optional planning part of JSON requests. Absent fields
// fall back to the server defaults.
type planningBody struct {
	PlanningDays *int     `json:"planning_days"`
	BufferDays   *float64 `json:"buffer_days"`
	BufferMode   string   `json:"buffer_mode"`
}

func (b planningBody) resolve(defaults replenishment.PlanningConfig) (replenishment.PlanningConfig, error) {
	cfg := defaults
	if b.PlanningDays != nil {
		cfg.PlanningDays = *b.PlanningDays
	}
	if b.BufferDays != nil {
		cfg.BufferDays = *b.BufferDays
	}
	if b.BufferMode != "" {
		mode, ok := replenishment.ParseBufferMode(b.BufferMode)
		if !ok {
			return cfg, fmt.Errorf("%w: unknown buffer mode %q", domain.ErrInvalidConfig, b.BufferMode)
		}
		cfg.BufferMode = mode
	}
	return cfg, cfg.Validate()
}

func parseViewMode(label string) (replenishment.ViewMode, error) {
	if strings.TrimSpace(label) == "" {
		return replenishment.ViewAllStores, nil
	}
	mode, ok := replenishment.ParseViewMode(label)
	if !ok {
		return "", fmt.Errorf("%w: unknown view mode %q", domain.ErrInvalidConfig, label)
	}
	return mode, nil
}

// planningFromQuery reads planning_days, buffer_days and buffer_mode.
func planningFromQuery(c *gin.Context, defaults replenishment.PlanningConfig) (replenishment.PlanningConfig, error) {
	var body planningBody

	if raw := strings.TrimSpace(c.Query("planning_days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return defaults, fmt.Errorf("%w: planning_days must be an integer", domain.ErrInvalidConfig)
		}
		body.PlanningDays = &days
	}

	if raw := strings.TrimSpace(c.Query("buffer_days")); raw != "" {
		days, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return defaults, fmt.Errorf("%w: buffer_days must be a number", domain.ErrInvalidConfig)
		}
		body.BufferDays = &days
	}

	body.BufferMode = strings.TrimSpace(c.Query("buffer_mode"))
	return body.resolve(defaults)
}

// filterFromQuery supports both ?store_ids=a,b and repeated ?store_ids=a&store_ids=b.
func filterFromQuery(c *gin.Context) domain.SnapshotFilter {
	return domain.SnapshotFilter{
		ProductIDs:   queryList(c, "product_ids"),
		StoreIDs:     queryList(c, "store_ids"),
		Categories:   queryList(c, "categories"),
		SnapshotDate: strings.TrimSpace(c.Query("stock_date")),
	}
}

func queryList(c *gin.Context, param string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, raw := range c.QueryArray(param) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
