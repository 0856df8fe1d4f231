package dashboard

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi/fake"
	"github.com/KnyazhevAlex/dashboards/internal/models"
	"github.com/KnyazhevAlex/dashboards/internal/services/reports"
	"github.com/KnyazhevAlex/dashboards/internal/services/trips"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// stubClient wraps the deterministic fake and lets a test break individual
// operations.
type stubClient struct {
	*fake.Client

	listErr      error
	statesErr    error
	employeesErr error
	generateID   *int
}

func (c *stubClient) ListTrackers(ctx context.Context) ([]models.Tracker, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.Client.ListTrackers(ctx)
}

func (c *stubClient) GetStates(ctx context.Context, ids []int, listBlocked, allowNotExist bool) (map[int]*models.TrackerState, error) {
	if c.statesErr != nil {
		return nil, c.statesErr
	}
	return c.Client.GetStates(ctx, ids, listBlocked, allowNotExist)
}

func (c *stubClient) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	if c.employeesErr != nil {
		return nil, c.employeesErr
	}
	return c.Client.ListEmployees(ctx)
}

func (c *stubClient) GenerateReport(ctx context.Context, req gmapi.ReportRequest) (int, error) {
	if c.generateID != nil {
		return *c.generateID, nil
	}
	return c.Client.GenerateReport(ctx, req)
}

func newTestService(c gmapi.Client) *Service {
	fetcher := trips.NewFetcher(c)
	pipeline := reports.NewPipeline(c).WithSettings(time.Millisecond, 5, 0)
	s := New(c, fetcher, pipeline)
	s.now = func() time.Time { return time.Date(2025, 11, 17, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestService_Load_OK(t *testing.T) {
	c := &stubClient{Client: fake.New()}
	s := newTestService(c)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2025-11-16", snap.Yesterday)
	require.Equal(t, "2025-11-15", snap.DayBefore)
	require.Equal(t, 8, snap.TotalTrackers)
	require.Equal(t, 8, snap.Statuses.Total())

	require.NotNil(t, snap.Trips)
	require.NotNil(t, snap.Fuel)
	require.NotNil(t, snap.Fuel.Trend)
	require.NotEmpty(t, snap.FuelGauges)

	require.NotNil(t, snap.Employees)
	require.Empty(t, snap.Employees.Err)
	require.Equal(t, 1, snap.Employees.Summary.Expired)
	require.NotNil(t, snap.Vehicles)
	require.Equal(t, 1, snap.Vehicles.Summary.Expired)
}

func TestService_Load_FatalWithoutTrackers(t *testing.T) {
	c := &stubClient{Client: fake.New(), listErr: errors.New("http 500")}
	s := newTestService(c)

	_, err := s.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "list trackers")

	st := s.Stats()
	require.Equal(t, int64(1), st.TotalLoads)
	require.Equal(t, int64(1), st.TotalErrors)
	require.Contains(t, st.LastError, "list trackers")
}

func TestService_Load_FatalWithoutStates(t *testing.T) {
	c := &stubClient{Client: fake.New(), statesErr: errors.New("http 502")}
	s := newTestService(c)

	_, err := s.Load(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "get states")
}

func TestService_Load_FuelDegrades(t *testing.T) {
	zero := 0
	c := &stubClient{Client: fake.New(), generateID: &zero} // no report id
	s := newTestService(c)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap.Fuel)
	require.NotNil(t, snap.Trips) // the rest of the dashboard survives
}

func TestService_Load_ComplianceDegrades(t *testing.T) {
	c := &stubClient{Client: fake.New(), employeesErr: errors.New("http 503")}
	s := newTestService(c)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Employees)
	require.NotEmpty(t, snap.Employees.Err)
	require.NotNil(t, snap.Vehicles)
	require.Empty(t, snap.Vehicles.Err)
}

type fakeCache struct {
	m map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}

func TestService_LoadCached(t *testing.T) {
	c := &stubClient{Client: fake.New()}
	cache := &fakeCache{m: map[string][]byte{}}
	s := newTestService(c).WithCache(cache, time.Minute)

	// Cache hit: the stored snapshot is returned without a load.
	want := Snapshot{Yesterday: "2025-11-16", TotalTrackers: 99}
	b, _ := json.Marshal(want)
	cache.m["dashboard:abc"] = b

	snap, err := s.LoadCached(context.Background(), "dashboard:abc")
	require.NoError(t, err)
	require.Equal(t, 99, snap.TotalTrackers)
	require.Equal(t, int64(0), s.Stats().TotalLoads)

	// Cache miss: loads and stores.
	snap, err = s.LoadCached(context.Background(), "dashboard:other")
	require.NoError(t, err)
	require.Equal(t, 8, snap.TotalTrackers)
	require.Contains(t, cache.m, "dashboard:other")
}

type fakeProducer struct {
	topic string
	value []byte
	calls int
	err   error
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.calls++
	p.topic, p.value = topic, value
	return p.err
}

func TestService_PublishesSnapshot(t *testing.T) {
	c := &stubClient{Client: fake.New()}
	fp := &fakeProducer{}
	s := newTestService(c).WithProducer(fp, "fleet.snapshot.computed")

	_, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fp.calls)
	require.Equal(t, "fleet.snapshot.computed", fp.topic)

	var published Snapshot
	require.NoError(t, json.Unmarshal(fp.value, &published))
	require.Equal(t, "2025-11-16", published.Yesterday)
}

func TestService_PublishErrorDoesNotFailLoad(t *testing.T) {
	c := &stubClient{Client: fake.New()}
	fp := &fakeProducer{err: errors.New("broker down")}
	s := newTestService(c).WithProducer(fp, "fleet.snapshot.computed")

	_, err := s.Load(context.Background())
	require.NoError(t, err)
}
