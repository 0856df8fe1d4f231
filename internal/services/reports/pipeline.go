package reports

import (
	"context"
	"sync"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/pkg/errors"
)

// Plugin ids understood by the platform's report generator.
const (
	PluginTrips = 4
	PluginFuel  = 10
)

var (
	ErrNoReportID = errors.New("report: no report id returned")
	ErrTimeout    = errors.New("report: not ready before poll cap")
)

// State of a single report run. Transitions:
// Requested -> Polling -> Ready -> Retrieved, any step may end in Failed.
type State int

const (
	StateRequested State = iota
	StatePolling
	StateReady
	StateRetrieved
	StateFailed
)

type ReportClient interface {
	GenerateReport(ctx context.Context, req gmapi.ReportRequest) (int, error)
	GetReportStatus(ctx context.Context, reportID int) (gmapi.ReportStatus, error)
	RetrieveReport(ctx context.Context, reportID int) (gmapi.ReportBody, error)
}

// Pipeline drives one server-side report from generation to retrieval.
type Pipeline struct {
	client ReportClient

	pollInterval     time.Duration
	maxPolls         int
	preGenerateDelay time.Duration

	sleep func(time.Duration)
}

func NewPipeline(client ReportClient) *Pipeline {
	return &Pipeline{
		client:       client,
		pollInterval: 2 * time.Second,
		maxPolls:     30,
		// Небольшая пауза перед генерацией сглаживает всплески, когда
		// несколько отчётов запрашиваются подряд или параллельно.
		preGenerateDelay: 1500 * time.Millisecond,
		sleep:            time.Sleep,
	}
}

func (p *Pipeline) WithSettings(pollInterval time.Duration, maxPolls int, preGenerateDelay time.Duration) *Pipeline {
	if pollInterval > 0 {
		p.pollInterval = pollInterval
	}
	if maxPolls > 0 {
		p.maxPolls = maxPolls
	}
	if preGenerateDelay >= 0 {
		p.preGenerateDelay = preGenerateDelay
	}
	return p
}

// Run executes the report state machine and returns the retrieved body.
func (p *Pipeline) Run(ctx context.Context, req gmapi.ReportRequest) (gmapi.ReportBody, error) {
	var (
		state    = StateRequested
		reportID int
		body     gmapi.ReportBody
		polls    int
	)

	for {
		if err := ctx.Err(); err != nil {
			return body, err
		}

		switch state {
		case StateRequested:
			p.sleep(p.preGenerateDelay)
			id, err := p.client.GenerateReport(ctx, req)
			if err != nil {
				return body, errors.Wrap(err, "generate report")
			}
			if id == 0 {
				return body, ErrNoReportID
			}
			reportID = id
			state = StatePolling

		case StatePolling:
			st, err := p.client.GetReportStatus(ctx, reportID)
			if err != nil {
				return body, errors.Wrap(err, "report status")
			}
			if st.Success && st.PercentReady == 100 {
				state = StateReady
				continue
			}
			polls++
			if polls >= p.maxPolls {
				return body, ErrTimeout
			}
			p.sleep(p.pollInterval)

		case StateReady:
			b, err := p.client.RetrieveReport(ctx, reportID)
			if err != nil {
				return body, errors.Wrap(err, "retrieve report")
			}
			body = b
			state = StateRetrieved

		case StateRetrieved:
			return body, nil
		}
	}
}

// RunFuel runs a fuel report and parses its totals. Parse problems degrade
// to zero totals, they never fail the run.
func (p *Pipeline) RunFuel(ctx context.Context, trackers []int, day string) (FuelTotals, error) {
	body, err := p.Run(ctx, FuelReportRequest(trackers, day))
	if err != nil {
		return FuelTotals{}, err
	}
	return ParseFuelTotals(body), nil
}

// PeriodResult is one day's fuel report outcome; Err is set when that day's
// pipeline failed and the caller should drop the corresponding widget.
type PeriodResult struct {
	Day    string
	Totals FuelTotals
	Err    error
}

// RunFuelForDays runs one fuel pipeline per day on a small fixed pool.
// Each day fails independently.
func (p *Pipeline) RunFuelForDays(ctx context.Context, trackers []int, days []string) []PeriodResult {
	const workers = 2

	results := make([]PeriodResult, len(days))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, day := range days {
		sem <- struct{}{}
		wg.Add(1)
		go func(slot int, d string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			totals, err := p.RunFuel(ctx, trackers, d)
			results[slot] = PeriodResult{Day: d, Totals: totals, Err: err}
		}(i, day)
	}
	wg.Wait()

	return results
}

func FuelReportRequest(trackers []int, day string) gmapi.ReportRequest {
	return gmapi.ReportRequest{
		Title:    "Fuel volume " + day,
		Trackers: trackers,
		From:     day + " 00:00:00",
		To:       day + " 23:59:59",
		Plugin: map[string]any{
			"plugin_id":                  PluginFuel,
			"include_summary_sheet_only": true,
		},
	}
}

func TripReportRequest(trackers []int, day string) gmapi.ReportRequest {
	return gmapi.ReportRequest{
		Title:    "Trips " + day,
		Trackers: trackers,
		From:     day + " 00:00:00",
		To:       day + " 23:59:59",
		Plugin: map[string]any{
			"plugin_id": PluginTrips,
		},
	}
}
