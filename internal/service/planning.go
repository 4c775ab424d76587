package service

import (
	"fmt"

	"github.com/andresuchdata/autoreplenish/internal/config"
	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
)

// PlanningDefaults returns the configured network-ordering defaults.
func PlanningDefaults(cfg config.PlanningConfig) replenishment.PlanningConfig {
	return replenishment.PlanningConfig{
		PlanningDays: cfg.PlanningDays,
		BufferDays:   cfg.BufferDays,
		BufferMode:   bufferModeOrRaw(cfg.BufferMode),
	}
}

// DistributionDefaults is PlanningDefaults with the distribution buffer mode.
func DistributionDefaults(cfg config.PlanningConfig) replenishment.PlanningConfig {
	p := PlanningDefaults(cfg)
	p.BufferMode = bufferModeOrRaw(cfg.DistributionBufferMode)
	return p
}

// Unknown labels are kept verbatim so Validate reports them.
func bufferModeOrRaw(label string) replenishment.BufferMode {
	if mode, ok := replenishment.ParseBufferMode(label); ok {
		return mode
	}
	return replenishment.BufferMode(label)
}

func validateView(mode replenishment.ViewMode, filter domain.SnapshotFilter) error {
	switch mode {
	case replenishment.ViewAllStores:
		return nil
	case replenishment.ViewSingleStore:
		if len(filter.StoreIDs) != 1 {
			return fmt.Errorf("%w: single-store mode needs exactly one store, got %d", domain.ErrInvalidConfig, len(filter.StoreIDs))
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown view mode %q", domain.ErrInvalidConfig, mode)
	}
}
