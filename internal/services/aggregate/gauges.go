package aggregate

import (
	"sort"

	"github.com/KnyazhevAlex/dashboards/internal/models"
)

// FuelGauge is one fuel sensor normalized to a percent of its min/max range.
type FuelGauge struct {
	TrackerID int     `json:"tracker_id"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Percent   float64 `json:"percent"`
}

// FuelGauges extracts fuel sensors from batched readings. labels maps
// tracker id to a display name; unknown ids keep an empty label.
// A degenerate min/max range yields 0 percent.
func FuelGauges(readings map[int][]models.Sensor, labels map[int]string) []FuelGauge {
	var out []FuelGauge
	for id, inputs := range readings {
		for _, s := range inputs {
			if s.Type != "fuel" {
				continue
			}
			var pct float64
			if s.MaxValue > s.MinValue {
				pct = (s.Value - s.MinValue) / (s.MaxValue - s.MinValue) * 100
			}
			out = append(out, FuelGauge{
				TrackerID: id,
				Label:     labels[id],
				Value:     s.Value,
				Percent:   pct,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackerID < out[j].TrackerID })
	return out
}
