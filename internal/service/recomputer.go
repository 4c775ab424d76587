package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/replenishment"
	"github.com/rs/zerolog/log"
)

// ComputeFunc produces a hierarchy for a request. It must honour ctx.
type ComputeFunc func(ctx context.Context, req NeedRequest) (*replenishment.Hierarchy, error)

// LiveHierarchy is the result of one completed recomputation together with
// the parameters that produced it.
type LiveHierarchy struct {
	Generation uint64                   `json:"generation"`
	Request    NeedRequest              `json:"request"`
	Hierarchy  *replenishment.Hierarchy `json:"hierarchy,omitempty"`
	ComputedAt time.Time                `json:"computed_at"`
	Error      string                   `json:"error,omitempty"`
}

// Recomputer keeps one hierarchy current for a mutable set of parameters.
// Each run is a full recomputation; starting a new run cancels the previous
// one and a superseded run's result is dropped.
type Recomputer struct {
	compute ComputeFunc
	base    context.Context
	stop    context.CancelFunc

	mu         sync.Mutex
	generation uint64
	completed  uint64
	params     NeedRequest
	cancel     context.CancelFunc
	latest     *LiveHierarchy
	notify     chan struct{}
}

func NewRecomputer(compute ComputeFunc, initial NeedRequest) *Recomputer {
	base, stop := context.WithCancel(context.Background())
	return &Recomputer{
		compute: compute,
		base:    base,
		stop:    stop,
		params:  initial,
		notify:  make(chan struct{}),
	}
}

// SetParams replaces the parameters and restarts computation.
func (r *Recomputer) SetParams(req NeedRequest) uint64 {
	r.mu.Lock()
	r.params = req
	r.mu.Unlock()
	return r.Refresh()
}

// Refresh recomputes with the current parameters, e.g. after a new snapshot.
func (r *Recomputer) Refresh() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	r.generation++
	gen := r.generation
	ctx, cancel := context.WithCancel(r.base)
	r.cancel = cancel

	go r.run(ctx, gen, r.params)
	return gen
}

// Params returns the parameters the next run will use.
func (r *Recomputer) Params() NeedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params
}

// Latest returns the most recent completed result.
func (r *Recomputer) Latest() (LiveHierarchy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return LiveHierarchy{}, false
	}
	return *r.latest, true
}

// Wait blocks until generation gen, or a later one, has completed.
func (r *Recomputer) Wait(ctx context.Context, gen uint64) (LiveHierarchy, error) {
	for {
		r.mu.Lock()
		if r.completed >= gen && r.latest != nil {
			out := *r.latest
			r.mu.Unlock()
			return out, nil
		}
		ch := r.notify
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return LiveHierarchy{}, ctx.Err()
		}
	}
}

// Close cancels any in-flight run. Later calls to Refresh start runs that
// are cancelled immediately.
func (r *Recomputer) Close() {
	r.stop()
}

func (r *Recomputer) run(ctx context.Context, gen uint64, req NeedRequest) {
	h, err := r.compute(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		log.Debug().Uint64("generation", gen).Uint64("current", r.generation).Msg("recompute: discarding stale result")
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	result := &LiveHierarchy{
		Generation: gen,
		Request:    req,
		Hierarchy:  h,
		ComputedAt: time.Now().UTC(),
	}
	if err != nil {
		log.Error().Err(err).Uint64("generation", gen).Msg("recompute failed")
		result.Hierarchy = nil
		result.Error = err.Error()
	}

	r.latest = result
	r.completed = gen
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	close(r.notify)
	r.notify = make(chan struct{})
}
