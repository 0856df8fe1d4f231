package refresher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/services/dashboard"
)

// Loader is the slice of the dashboard service the refresher needs.
type Loader interface {
	LoadCached(ctx context.Context, cacheKey string) (*dashboard.Snapshot, error)
}

// Refresher keeps the dashboard snapshot warm: it reloads through the
// cache on a jittered interval so the HTTP handlers mostly hit fresh
// cached data, and backs off after consecutive failures.
type Refresher struct {
	loader   Loader
	cacheKey string
	planner  *Planner

	failCount int

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalCycles         atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(loader Loader, cacheKey string) *Refresher {
	return &Refresher{
		loader:            loader,
		cacheKey:          cacheKey,
		planner:           NewPlanner(DefaultPlannerConfig(), nil),
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (r *Refresher) WithPlanner(cfg PlannerConfig) *Refresher {
	r.planner = NewPlanner(cfg, nil)
	return r
}

// Trigger forces an immediate refresh cycle (best-effort, non-blocking).
func (r *Refresher) Trigger() {
	r.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastCycleAt   *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalCycles   int64      `json:"totalCycles"`
	TotalErrors   int64      `json:"totalErrors"`
	LastError     string     `json:"lastError,omitempty"`
}

func (r *Refresher) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, r.startedAtUnixNano).UTC(),
		TotalCycles: r.totalCycles.Load(),
		TotalErrors: r.totalErrors.Load(),
	}
	if n := r.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := r.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}

func (r *Refresher) Run(ctx context.Context) error {
	// Первый цикл сразу: пустой кэш на старте — худший случай для ручек.
	delay := r.runOnce(ctx)
	t := time.NewTimer(delay)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		case <-r.triggerCh:
			if !t.Stop() {
				select {
				case <-t.C:
				default:
				}
			}
		}
		t.Reset(r.runOnce(ctx))
	}
}

// runOnce performs one refresh and returns the delay before the next one.
func (r *Refresher) runOnce(ctx context.Context) time.Duration {
	now := time.Now().UTC()
	r.lastCycleUnixNano.Store(now.UnixNano())
	r.totalCycles.Add(1)

	if _, err := r.loader.LoadCached(ctx, r.cacheKey); err != nil {
		r.failCount++
		r.totalErrors.Add(1)
		r.lastErrorMu.Lock()
		r.lastError = err.Error()
		r.lastErrorMu.Unlock()
		slog.Error("snapshot refresh failed", "fail_count", r.failCount, "error", err.Error())
		return r.planner.BackoffDelay(r.failCount)
	}

	r.failCount = 0
	return r.planner.RefreshDelay()
}
