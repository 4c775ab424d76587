package service

import (
	"context"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/repository"
	"github.com/rs/zerolog/log"
)

const defaultPollInterval = time.Minute

// Poller checks the inventory source on an interval and triggers a full
// recomputation on every tick. A new snapshot date also drops the cache.
type Poller struct {
	inventory  repository.InventoryRepository
	recomputer *Recomputer
	needs      *NeedService
	interval   time.Duration
	lastDate   string
}

func NewPoller(inventory repository.InventoryRepository, recomputer *Recomputer, needs *NeedService, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		inventory:  inventory,
		recomputer: recomputer,
		needs:      needs,
		interval:   interval,
	}
}

// Run polls until ctx is done. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs a single check and returns the recomputation generation started.
func (p *Poller) Poll(ctx context.Context) uint64 {
	date, err := p.inventory.LatestSnapshotDate(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("poller: could not read latest snapshot date")
	} else if date != p.lastDate {
		log.Info().Str("previous", p.lastDate).Str("latest", date).Msg("poller: new inventory snapshot")
		p.lastDate = date
		if p.needs != nil {
			if err := p.needs.InvalidateCache(ctx); err != nil {
				log.Warn().Err(err).Msg("poller: cache invalidation failed")
			}
		}
	}

	return p.recomputer.Refresh()
}
