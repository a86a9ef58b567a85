package store

import "time"

// timeFormat is the ISO-8601 layout every timestamp column is stored as,
// matching the original pipeline's datetime.isoformat() output.
const timeFormat = time.RFC3339

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
