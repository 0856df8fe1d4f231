package classifier

import (
	"strings"

	"github.com/KnyazhevAlex/dashboards/internal/models"
)

// offlineStatuses are connection states the platform reports for devices
// that have no live link worth showing.
var offlineStatuses = map[string]struct{}{
	"offline":         {},
	"signal_lost":     {},
	"just_registered": {},
	"just_replaced":   {},
}

// Classify maps a raw tracker state to one of the five canonical statuses.
// It is total: any input, including nil, yields exactly one status.
// Rules are ordered, first match wins:
//
//  1. nil state -> OFFLINE
//  2. empty or offline-like connection_status -> OFFLINE
//  3. connection_status=idle -> NO_COORDINATES
//  4. active+parked -> IDLING when ignition is on, STOPPED otherwise
//  5. active+moving|stopped -> MOVING
//  6. anything else -> OFFLINE
func Classify(state *models.TrackerState) string {
	if state == nil {
		return models.StatusOffline
	}

	conn := strings.ToLower(state.ConnectionStatus)
	move := strings.ToLower(state.MovementStatus)

	if conn == "" {
		return models.StatusOffline
	}
	if _, ok := offlineStatuses[conn]; ok {
		return models.StatusOffline
	}
	if conn == "idle" {
		return models.StatusNoCoordinates
	}
	if conn == "active" && move == "parked" {
		if state.Ignition {
			return models.StatusIdling
		}
		return models.StatusStopped
	}
	if conn == "active" && (move == "moving" || move == "stopped") {
		return models.StatusMoving
	}
	return models.StatusOffline
}
