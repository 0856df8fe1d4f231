package gmapi

import (
	"context"

	"github.com/KnyazhevAlex/dashboards/internal/models"
)

// ReportRequest describes an async server-side report generation request.
// Plugin carries report-type specific parameters; at minimum "plugin_id".
type ReportRequest struct {
	Title    string         `json:"title,omitempty"`
	Trackers []int          `json:"trackers"`
	From     string         `json:"from"`
	To       string         `json:"to"`
	Plugin   map[string]any `json:"plugin"`
}

// ReportStatus is a single poll answer for a generated report.
type ReportStatus struct {
	Success      bool `json:"success"`
	PercentReady int  `json:"percent_ready"`
}

// ReportBody is the retrieved report document: sheets -> sections -> data
// rows, each row with a "total" map of cells. Cells carry a display value
// and a raw numeric value.
type ReportBody struct {
	Sheets []ReportSheet `json:"sheets"`
}

type ReportSheet struct {
	Sections []ReportSection `json:"sections"`
}

type ReportSection struct {
	Data []ReportRow `json:"data"`
}

type ReportRow struct {
	Total map[string]ReportCell `json:"total"`
}

type ReportCell struct {
	V   string `json:"v"`
	Raw any    `json:"raw"`
}

// Client is the boundary to the tracking platform API. Implementations are
// stateless value objects (base URL + credential) and are safe to share
// across concurrent workers.
type Client interface {
	ListTrackers(ctx context.Context) ([]models.Tracker, error)
	GetStates(ctx context.Context, trackerIDs []int, listBlocked, allowNotExist bool) (map[int]*models.TrackerState, error)
	GetTrackerReadings(ctx context.Context, trackerID int) ([]models.Sensor, error)
	GetTrackerReadingsBatch(ctx context.Context, trackerIDs []int) (map[int][]models.Sensor, error)
	GetSensorData(ctx context.Context, trackerID, sensorID int, from, to string, raw bool) ([]SensorPoint, error)
	GetTrips(ctx context.Context, trackerID int, from, to string) ([]models.Trip, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)

	GenerateReport(ctx context.Context, req ReportRequest) (int, error)
	GetReportStatus(ctx context.Context, reportID int) (ReportStatus, error)
	RetrieveReport(ctx context.Context, reportID int) (ReportBody, error)
}

// SensorPoint is one historical sensor reading.
type SensorPoint struct {
	Time  string  `json:"msg_time"`
	Value float64 `json:"value"`
}
