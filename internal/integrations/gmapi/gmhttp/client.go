package gmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/KnyazhevAlex/dashboards/internal/models"
	"github.com/pkg/errors"
)

const defaultBaseURL = "https://my.gdemoi.ru/api-v2"

// Report endpoints retry on 429 with exponential backoff; generation is
// retried more persistently than status/retrieve.
const (
	generate429Retries = 5
	report429Retries   = 3
)

// Client talks to the GM tracking platform API. It is a value object
// (base URL + credential) with no mutable fields, safe to share across
// concurrent workers.
type Client struct {
	baseURL string
	hash    string
	httpc   *http.Client
	sleep   func(time.Duration)
}

func New(baseURL, hash string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		hash:    hash,
		httpc: &http.Client{
			Timeout: 30 * time.Second,
		},
		sleep: time.Sleep,
	}
}

type listTrackersResp struct {
	List []models.Tracker `json:"list"`
}

func (c *Client) ListTrackers(ctx context.Context) ([]models.Tracker, error) {
	var r listTrackersResp
	q := url.Values{}
	if err := c.getJSON(ctx, "tracker/list", "/tracker/list", q, &r); err != nil {
		return nil, err
	}
	return r.List, nil
}

// stateEnvelope supports both response shapes of get_states: a flat state
// object and one nested under a "state" key.
type stateEnvelope struct {
	models.TrackerState
	State *models.TrackerState `json:"state,omitempty"`
}

func (e *stateEnvelope) flatten() *models.TrackerState {
	if e == nil {
		return nil
	}
	if e.State != nil {
		return e.State
	}
	st := e.TrackerState
	return &st
}

type getStatesResp struct {
	States map[string]*stateEnvelope `json:"states"`
}

func (c *Client) GetStates(ctx context.Context, trackerIDs []int, listBlocked, allowNotExist bool) (map[int]*models.TrackerState, error) {
	body := map[string]any{
		"hash":            c.hash,
		"trackers":        trackerIDs,
		"list_blocked":    listBlocked,
		"allow_not_exist": allowNotExist,
	}
	var r getStatesResp
	if err := c.postJSON(ctx, "tracker/get_states", "/tracker/get_states", body, &r); err != nil {
		return nil, err
	}
	out := make(map[int]*models.TrackerState, len(r.States))
	for k, env := range r.States {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = env.flatten()
	}
	return out, nil
}

type readingsResp struct {
	Inputs []models.Sensor `json:"inputs"`
}

func (c *Client) GetTrackerReadings(ctx context.Context, trackerID int) ([]models.Sensor, error) {
	q := url.Values{}
	q.Set("tracker_id", strconv.Itoa(trackerID))
	var r readingsResp
	if err := c.getJSON(ctx, "tracker/readings/list", "/tracker/readings/list", q, &r); err != nil {
		return nil, err
	}
	return r.Inputs, nil
}

type readingsBatchResp struct {
	Result map[string]readingsResp `json:"result"`
}

func (c *Client) GetTrackerReadingsBatch(ctx context.Context, trackerIDs []int) (map[int][]models.Sensor, error) {
	body := map[string]any{
		"hash":        c.hash,
		"tracker_ids": trackerIDs,
	}
	var r readingsBatchResp
	if err := c.postJSON(ctx, "tracker/readings/batch_list", "/tracker/readings/batch_list", body, &r); err != nil {
		return nil, err
	}
	out := make(map[int][]models.Sensor, len(r.Result))
	for k, v := range r.Result {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[id] = v.Inputs
	}
	return out, nil
}

type sensorDataResp struct {
	List []gmapi.SensorPoint `json:"list"`
}

func (c *Client) GetSensorData(ctx context.Context, trackerID, sensorID int, from, to string, raw bool) ([]gmapi.SensorPoint, error) {
	q := url.Values{}
	q.Set("tracker_id", strconv.Itoa(trackerID))
	q.Set("sensor_id", strconv.Itoa(sensorID))
	q.Set("from", from)
	q.Set("to", to)
	q.Set("raw_data", strconv.FormatBool(raw))
	var r sensorDataResp
	if err := c.getJSON(ctx, "tracker/sensor/data/read", "/tracker/sensor/data/read", q, &r); err != nil {
		return nil, err
	}
	return r.List, nil
}

type tripsResp struct {
	List []models.Trip `json:"list"`
}

func (c *Client) GetTrips(ctx context.Context, trackerID int, from, to string) ([]models.Trip, error) {
	body := map[string]any{
		"hash":       c.hash,
		"tracker_id": trackerID,
		"from":       from,
		"to":         to,
	}
	var r tripsResp
	if err := c.postJSON(ctx, "track/list", "/track/list", body, &r); err != nil {
		return nil, err
	}
	return r.List, nil
}

type employeesResp struct {
	List []models.Employee `json:"list"`
}

func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	var r employeesResp
	if err := c.getJSON(ctx, "employee/list", "/employee/list", url.Values{}, &r); err != nil {
		return nil, err
	}
	return r.List, nil
}

type vehiclesResp struct {
	List []models.Vehicle `json:"list"`
}

func (c *Client) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var r vehiclesResp
	if err := c.getJSON(ctx, "vehicle/list", "/vehicle/list", url.Values{}, &r); err != nil {
		return nil, err
	}
	return r.List, nil
}

type generateResp struct {
	ID int `json:"id"`
}

func (c *Client) GenerateReport(ctx context.Context, req gmapi.ReportRequest) (int, error) {
	body := map[string]any{
		"hash":     c.hash,
		"trackers": req.Trackers,
		"from":     req.From,
		"to":       req.To,
		"plugin":   req.Plugin,
	}
	if req.Title != "" {
		body["title"] = req.Title
	}
	var r generateResp
	err := c.retry429(generate429Retries, func() error {
		r = generateResp{}
		return c.postJSON(ctx, "report/tracker/generate", "/report/tracker/generate", body, &r)
	})
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (c *Client) GetReportStatus(ctx context.Context, reportID int) (gmapi.ReportStatus, error) {
	body := map[string]any{
		"hash":      c.hash,
		"report_id": reportID,
	}
	var r gmapi.ReportStatus
	err := c.retry429(report429Retries, func() error {
		r = gmapi.ReportStatus{}
		return c.postJSON(ctx, "report/tracker/status", "/report/tracker/status", body, &r)
	})
	if err != nil {
		return gmapi.ReportStatus{}, err
	}
	return r, nil
}

type retrieveResp struct {
	Success bool             `json:"success"`
	Report  gmapi.ReportBody `json:"report"`
}

func (c *Client) RetrieveReport(ctx context.Context, reportID int) (gmapi.ReportBody, error) {
	body := map[string]any{
		"hash":      c.hash,
		"report_id": reportID,
	}
	var r retrieveResp
	err := c.retry429(report429Retries, func() error {
		r = retrieveResp{}
		return c.postJSON(ctx, "report/tracker/retrieve", "/report/tracker/retrieve", body, &r)
	})
	if err != nil {
		return gmapi.ReportBody{}, err
	}
	return r.Report, nil
}

// retry429 re-runs fn while the platform answers 429, sleeping
// 2^attempt+1 seconds between attempts. The last error is surfaced
// when attempts run out.
func (c *Client) retry429(attempts int, fn func() error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil || !gmapi.IsRateLimited(err) {
			return err
		}
		if attempt < attempts-1 {
			c.sleep(time.Duration(1<<attempt+1) * time.Second)
		}
	}
	return err
}

func (c *Client) getJSON(ctx context.Context, op, path string, q url.Values, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path += path
	q.Set("hash", c.hash)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	return c.do(op, req, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path += path

	b, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &gmapi.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return &gmapi.TransportError{Op: op, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s", op)
	}
	return nil
}
