package fake

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/KnyazhevAlex/dashboards/internal/integrations/gmapi"
	"github.com/KnyazhevAlex/dashboards/internal/models"
)

// Client — детерминированная заглушка платформы для демо-режима и тестов.
// Статусы и поездки выводятся из id трекера, поэтому дашборд стабилен
// между запусками.
type Client struct {
	trackers int
}

func New() *Client { return &Client{trackers: 8} }

func hash32(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte("|"))
	}
	return h.Sum32()
}

func (c *Client) ListTrackers(ctx context.Context) ([]models.Tracker, error) {
	out := make([]models.Tracker, 0, c.trackers)
	for i := 1; i <= c.trackers; i++ {
		out = append(out, models.Tracker{
			ID:    i,
			Label: fmt.Sprintf("Truck %02d", i),
			Source: models.TrackerSource{
				Model:    "FMB920",
				DeviceID: fmt.Sprintf("86800000000%04d", i),
				Blocked:  i%7 == 0,
			},
		})
	}
	return out, nil
}

func (c *Client) GetStates(ctx context.Context, trackerIDs []int, listBlocked, allowNotExist bool) (map[int]*models.TrackerState, error) {
	out := make(map[int]*models.TrackerState, len(trackerIDs))
	for _, id := range trackerIDs {
		switch id % 5 {
		case 0:
			out[id] = nil // missing state
		case 1:
			out[id] = &models.TrackerState{ConnectionStatus: "active", MovementStatus: "moving"}
		case 2:
			out[id] = &models.TrackerState{ConnectionStatus: "active", MovementStatus: "parked"}
		case 3:
			out[id] = &models.TrackerState{ConnectionStatus: "active", MovementStatus: "parked", Ignition: true}
		default:
			out[id] = &models.TrackerState{ConnectionStatus: "idle"}
		}
	}
	return out, nil
}

func (c *Client) GetTrackerReadings(ctx context.Context, trackerID int) ([]models.Sensor, error) {
	return []models.Sensor{
		{Label: "Fuel", Type: "fuel", Value: float64(20 + trackerID*7%60), MinValue: 0, MaxValue: 100, UnitsType: "litre"},
	}, nil
}

func (c *Client) GetTrackerReadingsBatch(ctx context.Context, trackerIDs []int) (map[int][]models.Sensor, error) {
	out := make(map[int][]models.Sensor, len(trackerIDs))
	for _, id := range trackerIDs {
		inputs, _ := c.GetTrackerReadings(ctx, id)
		out[id] = inputs
	}
	return out, nil
}

func (c *Client) GetSensorData(ctx context.Context, trackerID, sensorID int, from, to string, raw bool) ([]gmapi.SensorPoint, error) {
	return []gmapi.SensorPoint{
		{Time: from, Value: 42},
		{Time: to, Value: 40},
	}, nil
}

func (c *Client) GetTrips(ctx context.Context, trackerID int, from, to string) ([]models.Trip, error) {
	if len(from) < 10 || len(to) < 10 {
		return nil, nil
	}
	n := int(hash32(fmt.Sprint(trackerID), from) % 3)
	var out []models.Trip
	for i := 0; i < n; i++ {
		day := from[:10]
		if i%2 == 1 {
			day = to[:10]
		}
		out = append(out, models.Trip{
			StartDate: fmt.Sprintf("%s %02d:00:00", day, 8+i),
			EndDate:   fmt.Sprintf("%s %02d:45:00", day, 8+i),
			Length:    float64(10 + (trackerID+i)*3%40),
		})
	}
	return out, nil
}

func (c *Client) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	return []models.Employee{
		{ID: 1, FirstName: "Ivan", LastName: "Petrov", DriverLicenseValidTill: "2027-03-01"},
		{ID: 2, FirstName: "Oleg", LastName: "Sidorov", DriverLicenseValidTill: "2024-01-15"},
		{ID: 3, FirstName: "Anna", LastName: "Volkova"},
	}, nil
}

func (c *Client) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	return []models.Vehicle{
		{ID: 1, Label: "Truck 01", LiabilityInsuranceValidTill: "2026-06-01"},
		{ID: 2, Label: "Truck 02", FreeInsuranceValidTill: "2023-12-31"},
		{ID: 3, Label: "Truck 03"},
	}, nil
}

func (c *Client) GenerateReport(ctx context.Context, req gmapi.ReportRequest) (int, error) {
	return int(hash32(req.From, req.To)%10_000) + 1, nil
}

func (c *Client) GetReportStatus(ctx context.Context, reportID int) (gmapi.ReportStatus, error) {
	return gmapi.ReportStatus{Success: true, PercentReady: 100}, nil
}

func (c *Client) RetrieveReport(ctx context.Context, reportID int) (gmapi.ReportBody, error) {
	v := float64(reportID % 100)
	return gmapi.ReportBody{
		Sheets: []gmapi.ReportSheet{{
			Sections: []gmapi.ReportSection{{
				Data: []gmapi.ReportRow{{
					Total: map[string]gmapi.ReportCell{
						"fillings_count":  {V: "2", Raw: 2.0},
						"fillings_volume": {V: "120", Raw: 100 + v},
						"drains_count":    {V: "1", Raw: 1.0},
						"drains_volume":   {V: "8", Raw: 5 + v/10},
						"consumed_volume": {V: "90", Raw: 80 + v/2},
					},
				}},
			}},
		}},
	}, nil
}
