package refresher

import (
	"math/rand"
	"time"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	RefreshMinDelay time.Duration // default: 60 seconds
	RefreshMaxDelay time.Duration // default: 90 seconds

	Backoff1 time.Duration // default: 30 seconds
	Backoff2 time.Duration // default: 2 minutes
	Backoff3 time.Duration // default: 5 minutes
	Backoff4 time.Duration // default: 10 minutes
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		RefreshMinDelay: 60 * time.Second,
		RefreshMaxDelay: 90 * time.Second,

		Backoff1: 30 * time.Second,
		Backoff2: 2 * time.Minute,
		Backoff3: 5 * time.Minute,
		Backoff4: 10 * time.Minute,
	}
}

// Planner решает, когда делать следующее обновление снапшота:
// после успеха — обычный интервал с джиттером, после ошибок — бэкофф.
type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.RefreshMinDelay <= 0 {
		cfg.RefreshMinDelay = def.RefreshMinDelay
	}
	if cfg.RefreshMaxDelay <= 0 {
		cfg.RefreshMaxDelay = def.RefreshMaxDelay
	}
	if cfg.RefreshMaxDelay < cfg.RefreshMinDelay {
		cfg.RefreshMaxDelay = cfg.RefreshMinDelay
	}
	if cfg.Backoff1 <= 0 {
		cfg.Backoff1 = def.Backoff1
	}
	if cfg.Backoff2 <= 0 {
		cfg.Backoff2 = def.Backoff2
	}
	if cfg.Backoff3 <= 0 {
		cfg.Backoff3 = def.Backoff3
	}
	if cfg.Backoff4 <= 0 {
		cfg.Backoff4 = def.Backoff4
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

func (p *Planner) RefreshDelay() time.Duration {
	min := p.cfg.RefreshMinDelay
	max := p.cfg.RefreshMaxDelay
	if max == min {
		return min
	}
	secMin := int(min.Seconds())
	secMax := int(max.Seconds())
	if secMin < 0 {
		secMin = 0
	}
	if secMax < secMin {
		secMax = secMin
	}
	return time.Duration(secMin+p.r.Intn(secMax-secMin+1)) * time.Second
}

func (p *Planner) BackoffDelay(failCount int) time.Duration {
	switch {
	case failCount <= 1:
		return p.cfg.Backoff1
	case failCount == 2:
		return p.cfg.Backoff2
	case failCount == 3:
		return p.cfg.Backoff3
	default:
		return p.cfg.Backoff4
	}
}
