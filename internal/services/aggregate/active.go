package aggregate

import (
	"sort"
	"time"

	"github.com/KnyazhevAlex/dashboards/internal/models"
)

// RecentlyActive picks tracker ids worth fetching trips for. A tracker with
// no last-update timestamp is included conservatively; otherwise its update
// must fall within [periodStart-24h, now].
func RecentlyActive(states map[int]*models.TrackerState, periodStart, now time.Time) []int {
	cutoff := periodStart.Add(-24 * time.Hour)

	var out []int
	for id, st := range states {
		if st == nil || st.GPS.Updated == "" {
			out = append(out, id)
			continue
		}
		upd, ok := parseAPITime(st.GPS.Updated)
		if !ok {
			out = append(out, id)
			continue
		}
		if !upd.Before(cutoff) && !upd.After(now) {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}
