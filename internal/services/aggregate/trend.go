package aggregate

import "github.com/KnyazhevAlex/dashboards/internal/models"

// Trend is a day-over-day comparison: direction plus the raw signed delta.
type Trend struct {
	Direction string  `json:"direction"`
	Delta     float64 `json:"delta"`
}

func Compare(cur, prev float64) Trend {
	d := cur - prev
	switch {
	case d > 0:
		return Trend{Direction: models.TrendIncrease, Delta: d}
	case d < 0:
		return Trend{Direction: models.TrendDecrease, Delta: d}
	default:
		return Trend{Direction: models.TrendNoChange, Delta: 0}
	}
}
