package aggregate

import "time"

const apiTimeLayout = "2006-01-02 15:04:05"

// parseAPITime accepts both time shapes the platform emits: account-local
// "2006-01-02 15:04:05" strings and RFC3339 (gps.updated).
func parseAPITime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(apiTimeLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
