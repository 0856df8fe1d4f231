package reports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeReportClient struct {
	mu sync.Mutex

	generateID  int
	generateErr error

	statuses    []gmapi.ReportStatus // consumed in order, last repeats
	statusCalls int
	statusErr   error

	body        gmapi.ReportBody
	retrieveErr error
}

func (f *fakeReportClient) GenerateReport(ctx context.Context, req gmapi.ReportRequest) (int, error) {
	return f.generateID, f.generateErr
}

func (f *fakeReportClient) GetReportStatus(ctx context.Context, reportID int) (gmapi.ReportStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return gmapi.ReportStatus{}, f.statusErr
	}
	i := f.statusCalls
	f.statusCalls++
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeReportClient) RetrieveReport(ctx context.Context, reportID int) (gmapi.ReportBody, error) {
	return f.body, f.retrieveErr
}

func fuelBody(fillings, drains, consumed float64) gmapi.ReportBody {
	return gmapi.ReportBody{
		Sheets: []gmapi.ReportSheet{{
			Sections: []gmapi.ReportSection{{
				Data: []gmapi.ReportRow{{
					Total: map[string]gmapi.ReportCell{
						"fillings_count":  {Raw: 2.0},
						"fillings_volume": {Raw: fillings},
						"drains_count":    {Raw: 1.0},
						"drains_volume":   {Raw: drains},
						"consumed_volume": {Raw: consumed},
					},
				}},
			}},
		}},
	}
}

func newTestPipeline(c ReportClient) *Pipeline {
	p := NewPipeline(c).WithSettings(time.Millisecond, 30, 0)
	p.sleep = func(time.Duration) {}
	return p
}

func TestPipeline_RunFuel_OK(t *testing.T) {
	c := &fakeReportClient{
		generateID: 11,
		statuses: []gmapi.ReportStatus{
			{Success: true, PercentReady: 40},
			{Success: true, PercentReady: 100},
		},
		body: fuelBody(100, 10, 80),
	}

	totals, err := newTestPipeline(c).RunFuel(context.Background(), []int{1, 2}, "2025-11-16")
	require.NoError(t, err)
	require.Equal(t, 100.0, totals.FillingsVolume)
	require.Equal(t, 10.0, totals.DrainsVolume)
	require.Equal(t, 80.0, totals.ConsumedVolume)
	require.Equal(t, 2, c.statusCalls)
}

func TestPipeline_NoReportID(t *testing.T) {
	c := &fakeReportClient{generateID: 0}
	_, err := newTestPipeline(c).RunFuel(context.Background(), []int{1}, "2025-11-16")
	require.ErrorIs(t, err, ErrNoReportID)
}

func TestPipeline_Timeout(t *testing.T) {
	c := &fakeReportClient{
		generateID: 5,
		statuses:   []gmapi.ReportStatus{{Success: true, PercentReady: 50}},
	}
	p := NewPipeline(c).WithSettings(time.Millisecond, 4, 0)
	p.sleep = func(time.Duration) {}

	_, err := p.Run(context.Background(), FuelReportRequest([]int{1}, "2025-11-16"))
	require.ErrorIs(t, err, ErrTimeout)
	require.Equal(t, 4, c.statusCalls)
}

func TestPipeline_GenerateErrorPropagates(t *testing.T) {
	c := &fakeReportClient{generateErr: errors.New("http 500")}
	_, err := newTestPipeline(c).Run(context.Background(), FuelReportRequest([]int{1}, "2025-11-16"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "generate report")
}

func TestPipeline_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &fakeReportClient{generateID: 1, statuses: []gmapi.ReportStatus{{PercentReady: 10}}}
	_, err := newTestPipeline(c).Run(ctx, FuelReportRequest([]int{1}, "2025-11-16"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_RunFuelForDays_IndependentFailure(t *testing.T) {
	ok := &fakeReportClient{
		generateID: 3,
		statuses:   []gmapi.ReportStatus{{Success: true, PercentReady: 100}},
		body:       fuelBody(50, 5, 40),
	}
	p := newTestPipeline(ok)

	res := p.RunFuelForDays(context.Background(), []int{1}, []string{"2025-11-16", "2025-11-15"})
	require.Len(t, res, 2)
	require.Equal(t, "2025-11-16", res[0].Day)
	require.NoError(t, res[0].Err)
	require.NoError(t, res[1].Err)

	bad := &fakeReportClient{generateID: 0}
	res = newTestPipeline(bad).RunFuelForDays(context.Background(), []int{1}, []string{"2025-11-16"})
	require.Len(t, res, 1)
	require.ErrorIs(t, res[0].Err, ErrNoReportID)
	require.Equal(t, FuelTotals{}, res[0].Totals)
}
