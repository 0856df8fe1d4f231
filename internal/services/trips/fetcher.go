package trips

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/models"
)

type TripLister interface {
	GetTrips(ctx context.Context, trackerID int, from, to string) ([]models.Trip, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Fetcher fans out per-tracker trip requests over a bounded worker pool.
// A failing tracker yields a result with an error string and an empty trip
// list instead of failing the whole batch.
type Fetcher struct {
	client TripLister

	rl                 RateLimiter
	rateLimitPerMinute int64

	concurrency int
	attempts    int
	retryPause  time.Duration

	sleep func(time.Duration)
}

func NewFetcher(client TripLister) *Fetcher {
	return &Fetcher{
		client:      client,
		concurrency: 25,
		attempts:    3,
		retryPause:  time.Second,
		sleep:       time.Sleep,
	}
}

func (f *Fetcher) WithSettings(concurrency, attempts int, retryPause time.Duration) *Fetcher {
	if concurrency > 0 {
		f.concurrency = concurrency
	}
	if attempts > 0 {
		f.attempts = attempts
	}
	if retryPause > 0 {
		f.retryPause = retryPause
	}
	return f
}

func (f *Fetcher) WithRateLimiter(rl RateLimiter, perMinute int64) *Fetcher {
	f.rl = rl
	f.rateLimitPerMinute = perMinute
	return f
}

// FetchAll returns one result per tracker id. Result order follows the input
// ids (each worker owns its slot), but callers should still re-key by
// TrackerID rather than rely on position.
func (f *Fetcher) FetchAll(ctx context.Context, trackerIDs []int, from, to string) []models.TripFetchResult {
	results := make([]models.TripFetchResult, len(trackerIDs))

	sem := make(chan struct{}, f.concurrency)
	var wg sync.WaitGroup
	for i, id := range trackerIDs {
		sem <- struct{}{}
		wg.Add(1)
		go func(slot, trackerID int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[slot] = f.fetchOne(ctx, trackerID, from, to)
		}(i, id)
	}
	wg.Wait()

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, trackerID int, from, to string) models.TripFetchResult {
	var lastErr error
	for attempt := 0; attempt < f.attempts; attempt++ {
		f.throttle(ctx)

		list, err := f.client.GetTrips(ctx, trackerID, from, to)
		if err == nil {
			if list == nil {
				list = []models.Trip{}
			}
			return models.TripFetchResult{TrackerID: trackerID, Trips: list}
		}
		lastErr = err
		if attempt < f.attempts-1 {
			f.sleep(f.retryPause)
		}
	}

	slog.Error("trip fetch failed", "tracker_id", trackerID, "error", lastErr.Error())
	return models.TripFetchResult{
		TrackerID: trackerID,
		Trips:     []models.Trip{},
		Err:       lastErr.Error(),
	}
}

func (f *Fetcher) throttle(ctx context.Context) {
	if f.rl == nil || f.rateLimitPerMinute <= 0 {
		return
	}
	minuteKey := fmt.Sprintf("rl:gmapi:trips:%s", time.Now().UTC().Format("200601021504"))
	allowed, n, err := f.rl.Allow(ctx, minuteKey, f.rateLimitPerMinute, 70*time.Second)
	if err != nil {
		// Лимитер — best effort: при недоступном Redis не блокируем выборку.
		slog.Warn("rate limiter unavailable", "error", err.Error())
		return
	}
	if !allowed {
		slog.Warn("trip fetch rate limit exceeded", "count", n)
		f.sleep(500 * time.Millisecond)
	}
}
