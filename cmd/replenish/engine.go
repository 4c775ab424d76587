package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/autoreplenish/internal/config"
	"github.com/andresuchdata/autoreplenish/internal/domain"
	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/andresuchdata/autoreplenish/internal/service"
	"github.com/andresuchdata/autoreplenish/internal/snapshot"
	"github.com/andresuchdata/autoreplenish/pkg/logger"
	"github.com/urfave/cli/v2"
)

func planningFlags(defaults replenishment.PlanningConfig) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "file", Usage: "Snapshot .csv/.xlsx file (repeatable)", Required: true},
		&cli.IntFlag{Name: "planning-days", Value: defaults.PlanningDays},
		&cli.Float64Flag{Name: "buffer-days", Value: defaults.BufferDays},
		&cli.StringFlag{Name: "buffer-mode", Value: string(defaults.BufferMode), Usage: "sales-equivalent or min-stock"},
		&cli.IntFlag{Name: "workers", Value: 4},
	}
}

func planningFromFlags(c *cli.Context) (replenishment.PlanningConfig, error) {
	mode, ok := replenishment.ParseBufferMode(c.String("buffer-mode"))
	if !ok {
		return replenishment.PlanningConfig{}, fmt.Errorf("%w: unknown buffer mode %q", domain.ErrInvalidConfig, c.String("buffer-mode"))
	}

	cfg := replenishment.PlanningConfig{
		PlanningDays: c.Int("planning-days"),
		BufferDays:   c.Float64("buffer-days"),
		BufferMode:   mode,
	}
	return cfg, cfg.Validate()
}

func needsCommand(cfg *config.Config) *cli.Command {
	flags := append(planningFlags(service.PlanningDefaults(cfg.Planning)),
		&cli.StringFlag{Name: "mode", Value: string(replenishment.ViewAllStores), Usage: "all-stores or single-store"},
		&cli.StringFlag{Name: "store", Usage: "Store id, required in single-store mode"},
	)

	return &cli.Command{
		Name:  "needs",
		Usage: "Print the priority hierarchy of replenishment needs as JSON",
		Flags: flags,
		Action: func(c *cli.Context) error {
			planning, err := planningFromFlags(c)
			if err != nil {
				return err
			}

			mode, ok := replenishment.ParseViewMode(c.String("mode"))
			if !ok {
				return fmt.Errorf("%w: unknown view mode %q", domain.ErrInvalidConfig, c.String("mode"))
			}

			records, err := snapshot.ReadFiles(c.Context, c.StringSlice("file"), c.Int("workers"))
			if err != nil {
				return err
			}

			if mode == replenishment.ViewSingleStore {
				store := strings.TrimSpace(c.String("store"))
				if store == "" {
					return fmt.Errorf("%w: --store is required in single-store mode", domain.ErrInvalidConfig)
				}
				records = filterStores(records, []string{store})
			}

			h := replenishment.Aggregate(records, planning, mode)
			logger.Log.Debug().Int("rows", len(records)).Int("groups", len(h.Groups)).Msg("hierarchy computed")
			return writeJSON(c.App.Writer, h)
		},
	}
}

func distributeCommand(cfg *config.Config) *cli.Command {
	flags := append(planningFlags(service.DistributionDefaults(cfg.Planning)),
		&cli.StringFlag{Name: "product", Required: true},
		&cli.IntFlag{Name: "quantity", Required: true, Usage: "Produced units to distribute"},
		&cli.StringSliceFlag{Name: "stores", Usage: "Restrict to these store ids (comma separated)"},
	)

	return &cli.Command{
		Name:  "distribute",
		Usage: "Split a produced batch of one product across stores",
		Flags: flags,
		Action: func(c *cli.Context) error {
			planning, err := planningFromFlags(c)
			if err != nil {
				return err
			}

			produced := c.Int("quantity")
			if produced < 0 {
				return fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidConfig)
			}

			records, err := snapshot.ReadFiles(c.Context, c.StringSlice("file"), c.Int("workers"))
			if err != nil {
				return err
			}

			product := strings.TrimSpace(c.String("product"))
			selected := records[:0]
			for _, r := range records {
				if r.ProductID == product {
					selected = append(selected, r)
				}
			}
			if stores := splitList(c.StringSlice("stores")); len(stores) > 0 {
				selected = filterStores(selected, stores)
			}
			if len(selected) == 0 {
				return fmt.Errorf("%w: no snapshot rows for product %s", domain.ErrNotFound, product)
			}

			needs := replenishment.NeedsByProductStore(selected, planning)
			result := replenishment.Distribute(produced, replenishment.DistributionStoresFromNeeds(needs))
			if result.CriticalShortfall {
				logger.Log.Warn().
					Str("product_id", product).
					Int("produced", produced).
					Int("critical_need", result.CriticalNeed).
					Msg("batch does not cover critical deficits")
			}

			return writeJSON(c.App.Writer, struct {
				ProductID string                           `json:"product_id"`
				Config    replenishment.PlanningConfig     `json:"config"`
				Needs     []replenishment.NeedResult       `json:"needs"`
				Result    replenishment.DistributionResult `json:"result"`
			}{product, planning, needs, result})
		},
	}
}

func filterStores(records []domain.InventoryRecord, stores []string) []domain.InventoryRecord {
	want := make(map[string]struct{}, len(stores))
	for _, s := range stores {
		want[s] = struct{}{}
	}

	out := make([]domain.InventoryRecord, 0, len(records))
	for _, r := range records {
		if _, ok := want[r.StoreID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
