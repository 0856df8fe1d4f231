package aggregate

import (
	"github.com/KnyazhevAlex/dashboards/internal/models"
	"github.com/KnyazhevAlex/dashboards/internal/services/classifier"
)

// StatusCounts is the fixed five-key status tally for the fleet.
type StatusCounts struct {
	Moving        int `json:"moving"`
	Stopped       int `json:"stopped"`
	Idling        int `json:"idling"`
	NoCoordinates int `json:"no_coordinates"`
	Offline       int `json:"offline"`
}

func (c StatusCounts) Total() int {
	return c.Moving + c.Stopped + c.Idling + c.NoCoordinates + c.Offline
}

// CountStatuses folds classified states into StatusCounts. Pure reduction:
// no shared counters survive between calls.
func CountStatuses(states map[int]*models.TrackerState) StatusCounts {
	var c StatusCounts
	for _, st := range states {
		switch classifier.Classify(st) {
		case models.StatusMoving:
			c.Moving++
		case models.StatusStopped:
			c.Stopped++
		case models.StatusIdling:
			c.Idling++
		case models.StatusNoCoordinates:
			c.NoCoordinates++
		default:
			c.Offline++
		}
	}
	return c
}
