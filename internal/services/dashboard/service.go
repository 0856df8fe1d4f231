package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/KnyazhevAlex/dashboards/internal/services/aggregate"
	"github.com/KnyazhevAlex/dashboards/internal/services/reports"
	"github.com/KnyazhevAlex/dashboards/internal/services/trips"
	"github.com/pkg/errors"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// TripsWidget is the two-day trip KPI block with the day-over-day trend on
// active vehicles.
type TripsWidget struct {
	Yesterday   aggregate.DayKPI `json:"yesterday"`
	DayBefore   aggregate.DayKPI `json:"day_before"`
	ActiveTrend aggregate.Trend  `json:"active_trend"`
}

// FuelWidget carries yesterday's fuel KPI; the comparison day and trend are
// absent when the second report pipeline failed ("no trend available").
type FuelWidget struct {
	Yesterday aggregate.FuelKPI    `json:"yesterday"`
	DayBefore *aggregate.FuelKPI   `json:"day_before,omitempty"`
	Trend     *aggregate.FuelTrend `json:"trend,omitempty"`
}

type ComplianceWidget struct {
	Summary aggregate.ComplianceSummary `json:"summary"`
	Err     string                      `json:"error,omitempty"`
}

// Snapshot is one full dashboard load. Optional widgets are nil or carry an
// error note when their data could not be fetched; trackers and states are
// mandatory, so a Snapshot only exists when those succeeded.
type Snapshot struct {
	GeneratedAt   time.Time `json:"generated_at"`
	Yesterday     string    `json:"yesterday"`
	DayBefore     string    `json:"day_before"`
	TotalTrackers int       `json:"total_trackers"`

	Statuses aggregate.StatusCounts `json:"statuses"`

	Trips      *TripsWidget          `json:"trips,omitempty"`
	TripErrors map[int]string        `json:"trip_errors,omitempty"`
	Fuel       *FuelWidget           `json:"fuel,omitempty"`
	FuelGauges []aggregate.FuelGauge `json:"fuel_gauges,omitempty"`
	Employees  *ComplianceWidget     `json:"employees,omitempty"`
	Vehicles   *ComplianceWidget     `json:"vehicles,omitempty"`
}

// Service runs a full dashboard load against the platform API.
type Service struct {
	client   gmapi.Client
	fetcher  *trips.Fetcher
	pipeline *reports.Pipeline

	cache       Cache
	snapshotTTL time.Duration

	producer Producer
	topic    string

	now func() time.Time

	startedAtUnixNano int64
	lastLoadUnixNano  atomic.Int64
	totalLoads        atomic.Int64
	totalErrors       atomic.Int64
	inFlight          atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(client gmapi.Client, fetcher *trips.Fetcher, pipeline *reports.Pipeline) *Service {
	return &Service{
		client:            client,
		fetcher:           fetcher,
		pipeline:          pipeline,
		now:               func() time.Time { return time.Now().UTC() },
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

// WithCache enables time-boxed reuse of finished snapshots. The core itself
// never caches per-entity data; every load re-fetches from the origin.
func (s *Service) WithCache(c Cache, ttl time.Duration) *Service {
	s.cache = c
	s.snapshotTTL = ttl
	return s
}

func (s *Service) WithProducer(p Producer, topic string) *Service {
	s.producer = p
	s.topic = topic
	return s
}

type Stats struct {
	StartedAt   time.Time  `json:"startedAt"`
	LastLoadAt  *time.Time `json:"lastLoadAt,omitempty"`
	TotalLoads  int64      `json:"totalLoads"`
	TotalErrors int64      `json:"totalErrors"`
	InFlight    int64      `json:"inFlight"`
	LastError   string     `json:"lastError,omitempty"`
}

func (s *Service) Stats() Stats {
	st := Stats{
		StartedAt:   time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalLoads:  s.totalLoads.Load(),
		TotalErrors: s.totalErrors.Load(),
		InFlight:    s.inFlight.Load(),
	}
	if n := s.lastLoadUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastLoadAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

// LoadCached returns a snapshot from the cache when a fresh-enough one
// exists under cacheKey, otherwise performs a full load and stores it.
func (s *Service) LoadCached(ctx context.Context, cacheKey string) (*Snapshot, error) {
	if s.cache != nil && s.snapshotTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
			var snap Snapshot
			if json.Unmarshal(b, &snap) == nil {
				return &snap, nil
			}
		}
	}

	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.snapshotTTL > 0 {
		if b, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, cacheKey, b, s.snapshotTTL)
		}
	}
	return snap, nil
}

// Load performs one full dashboard load. Tracker list and states are
// mandatory; widget-level failures degrade the widget instead of failing
// the load.
func (s *Service) Load(ctx context.Context) (*Snapshot, error) {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	snap, err := s.load(ctx)

	s.totalLoads.Add(1)
	s.lastLoadUnixNano.Store(s.now().UnixNano())
	if err != nil {
		s.totalErrors.Add(1)
		s.lastErrorMu.Lock()
		s.lastError = err.Error()
		s.lastErrorMu.Unlock()
		return nil, err
	}

	s.publish(ctx, snap)
	return snap, nil
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	now := s.now()
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	dayBefore := now.AddDate(0, 0, -2).Format("2006-01-02")
	periodStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -2)

	trackers, err := s.client.ListTrackers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list trackers")
	}
	ids := make([]int, 0, len(trackers))
	labels := make(map[int]string, len(trackers))
	for _, t := range trackers {
		ids = append(ids, t.ID)
		labels[t.ID] = t.Label
	}

	states, err := s.client.GetStates(ctx, ids, true, true)
	if err != nil {
		return nil, errors.Wrap(err, "get states")
	}

	snap := &Snapshot{
		GeneratedAt:   now,
		Yesterday:     yesterday,
		DayBefore:     dayBefore,
		TotalTrackers: len(trackers),
		Statuses:      aggregate.CountStatuses(states),
	}

	// Trips over the two-day window; partial failures land in TripErrors.
	activeIDs := aggregate.RecentlyActive(states, periodStart, now)
	results := s.fetcher.FetchAll(ctx, activeIDs, dayBefore+" 00:00:00", yesterday+" 23:59:59")
	for _, r := range results {
		if r.Err != "" {
			if snap.TripErrors == nil {
				snap.TripErrors = map[int]string{}
			}
			snap.TripErrors[r.TrackerID] = r.Err
		}
	}
	yd, db := aggregate.PartitionByDay(results, yesterday, dayBefore)
	ydKPI := aggregate.ReduceDay(yd)
	dbKPI := aggregate.ReduceDay(db)
	snap.Trips = &TripsWidget{
		Yesterday:   ydKPI,
		DayBefore:   dbKPI,
		ActiveTrend: aggregate.Compare(float64(ydKPI.ActiveVehicles), float64(dbKPI.ActiveVehicles)),
	}

	snap.Fuel = s.loadFuel(ctx, ids, yesterday, dayBefore)
	snap.FuelGauges = s.loadGauges(ctx, ids, labels)
	snap.Employees, snap.Vehicles = s.loadCompliance(ctx, now)

	return snap, nil
}

// loadFuel runs the two comparison-period fuel pipelines concurrently.
// Yesterday failing drops the whole widget; only the comparison day failing
// drops the trend.
func (s *Service) loadFuel(ctx context.Context, ids []int, yesterday, dayBefore string) *FuelWidget {
	res := s.pipeline.RunFuelForDays(ctx, ids, []string{yesterday, dayBefore})

	if res[0].Err != nil {
		slog.Warn("fuel report failed, dropping widget", "day", yesterday, "error", res[0].Err.Error())
		return nil
	}
	w := &FuelWidget{Yesterday: aggregate.ComputeFuelKPI(res[0].Totals)}

	if res[1].Err != nil {
		slog.Warn("comparison fuel report failed, no trend", "day", dayBefore, "error", res[1].Err.Error())
		return w
	}
	prev := aggregate.ComputeFuelKPI(res[1].Totals)
	trend := aggregate.CompareFuel(w.Yesterday, prev)
	w.DayBefore = &prev
	w.Trend = &trend
	return w
}

func (s *Service) loadGauges(ctx context.Context, ids []int, labels map[int]string) []aggregate.FuelGauge {
	readings, err := s.client.GetTrackerReadingsBatch(ctx, ids)
	if err != nil {
		slog.Warn("batch readings failed, dropping fuel gauges", "error", err.Error())
		return nil
	}
	return aggregate.FuelGauges(readings, labels)
}

func (s *Service) loadCompliance(ctx context.Context, today time.Time) (*ComplianceWidget, *ComplianceWidget) {
	var emps, vehs *ComplianceWidget

	list, err := s.client.ListEmployees(ctx)
	if err != nil {
		emps = &ComplianceWidget{Err: err.Error()}
	} else {
		emps = &ComplianceWidget{Summary: aggregate.BucketEmployees(list, today)}
	}

	vs, err := s.client.ListVehicles(ctx)
	if err != nil {
		vehs = &ComplianceWidget{Err: err.Error()}
	} else {
		vehs = &ComplianceWidget{Summary: aggregate.BucketVehicles(vs, today)}
	}
	return emps, vehs
}

// publish is best effort: the dashboard answer never waits on the broker.
func (s *Service) publish(ctx context.Context, snap *Snapshot) {
	if s.producer == nil || s.topic == "" {
		return
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return
	}
	key := []byte(snap.GeneratedAt.Format(time.RFC3339))
	if err := s.producer.Publish(ctx, s.topic, key, b); err != nil {
		slog.Warn("snapshot publish failed", "error", err.Error())
	}
}
