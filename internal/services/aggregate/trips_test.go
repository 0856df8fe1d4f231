package aggregate

import (
	"testing"

	"github.com/KnyazhevAlex/dashboards/internal/models"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestPartitionByDay(t *testing.T) {
	results := []models.TripFetchResult{
		{TrackerID: 1, Trips: []models.Trip{
			{StartDate: "2025-11-16 10:00:00", EndDate: "2025-11-16 10:30:00", Length: 10},
			{StartDate: "2025-11-15 08:00:00", EndDate: "2025-11-15 09:00:00", Length: 20},
			{StartDate: "2025-11-10 08:00:00", Length: 99}, // outside both days
			{Length: 5},                                    // no start date
		}},
		{TrackerID: 2, Trips: []models.Trip{}, Err: "boom"},
	}

	yesterday, dayBefore := PartitionByDay(results, "2025-11-16", "2025-11-15")
	require.Len(t, yesterday[1], 1)
	require.Equal(t, 10.0, yesterday[1][0].Length)
	require.Len(t, dayBefore[1], 1)
	require.Equal(t, 20.0, dayBefore[1][0].Length)
	require.Empty(t, yesterday[2])
	require.Empty(t, dayBefore[2])
}

func TestReduceDay(t *testing.T) {
	day := DayTrips{
		1: {
			{StartDate: "2025-11-16 10:00:00", EndDate: "2025-11-16 10:30:00", Length: 10, IdleDuration: fptr(120)},
			{StartDate: "2025-11-16 12:00:00", EndDate: "2025-11-16 12:15:00", Length: 5},
		},
		2: {
			// Timestamps don't parse: falls back to the explicit duration.
			{StartDate: "garbage", EndDate: "garbage", Duration: fptr(600), Length: 7},
		},
		3: {},
	}

	kpi := ReduceDay(day)
	require.Equal(t, 2, kpi.ActiveVehicles)
	require.Equal(t, 22.0, kpi.TotalLength)
	require.Equal(t, 1800.0+900.0+600.0, kpi.MoveSeconds)
	require.Equal(t, 120.0, kpi.IdleSeconds)
	require.Equal(t, 3300.0/2, kpi.AvgDriveSeconds)
	require.Equal(t, 11.0, kpi.AvgLength)
}

func TestReduceDay_Empty(t *testing.T) {
	kpi := ReduceDay(DayTrips{})
	require.Equal(t, DayKPI{}, kpi)
}

func TestMoveSeconds_NoDurationAtAll(t *testing.T) {
	require.Equal(t, 0.0, moveSeconds(models.Trip{StartDate: "x", EndDate: "y"}))
}
