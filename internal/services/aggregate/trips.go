package aggregate

import (
	"github.com/KnyazhevAlex/dashboards/internal/models"
)

// DayTrips holds one day's trips re-keyed by tracker id.
type DayTrips map[int][]models.Trip

// PartitionByDay splits fetched trips into two day buckets by comparing the
// date portion of start_date with each day's ISO date ("2006-01-02").
// Trips matching neither day are dropped, as are trips without a start date.
func PartitionByDay(results []models.TripFetchResult, dayA, dayB string) (DayTrips, DayTrips) {
	a := DayTrips{}
	b := DayTrips{}
	for _, res := range results {
		for _, trip := range res.Trips {
			if len(trip.StartDate) < 10 {
				continue
			}
			switch trip.StartDate[:10] {
			case dayA:
				a[res.TrackerID] = append(a[res.TrackerID], trip)
			case dayB:
				b[res.TrackerID] = append(b[res.TrackerID], trip)
			}
		}
	}
	return a, b
}

// DayKPI is one day's trip reduction. Seconds fields are raw sums; averages
// are per active vehicle, 0 when no vehicle had trips.
type DayKPI struct {
	ActiveVehicles  int     `json:"active_vehicles"`
	TotalLength     float64 `json:"total_length"`
	MoveSeconds     float64 `json:"move_seconds"`
	IdleSeconds     float64 `json:"idle_seconds"`
	AvgDriveSeconds float64 `json:"avg_drive_seconds"`
	AvgLength       float64 `json:"avg_length"`
}

func ReduceDay(trips DayTrips) DayKPI {
	var kpi DayKPI
	for _, list := range trips {
		if len(list) == 0 {
			continue
		}
		kpi.ActiveVehicles++
		for _, trip := range list {
			kpi.TotalLength += trip.Length
			kpi.MoveSeconds += moveSeconds(trip)
			if trip.IdleDuration != nil {
				kpi.IdleSeconds += *trip.IdleDuration
			}
		}
	}
	if kpi.ActiveVehicles > 0 {
		kpi.AvgDriveSeconds = kpi.MoveSeconds / float64(kpi.ActiveVehicles)
		kpi.AvgLength = kpi.TotalLength / float64(kpi.ActiveVehicles)
	}
	return kpi
}

// moveSeconds prefers end-start; the explicit duration field is a fallback
// for trips whose timestamps do not parse.
func moveSeconds(trip models.Trip) float64 {
	start, okStart := parseAPITime(trip.StartDate)
	end, okEnd := parseAPITime(trip.EndDate)
	if okStart && okEnd {
		return end.Sub(start).Seconds()
	}
	if trip.Duration != nil {
		return *trip.Duration
	}
	return 0
}
