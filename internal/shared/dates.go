package shared

import (
	"fmt"
	"time"
)

// DateLayout is the bare calendar date accepted next to RFC 3339.
const DateLayout = "2006-01-02"

// ParseDateTime accepts an RFC 3339 timestamp or a YYYY-MM-DD date. A bare
// date is midnight UTC and dateOnly reports it.
func ParseDateTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, false, nil
	}
	t, err = time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%q is neither an RFC 3339 timestamp nor a YYYY-MM-DD date", s)
	}
	return t, true, nil
}

// OptionalDateTime parses a JSON string field that may be absent or empty.
// With endOfDay a bare date resolves to its last instant instead of midnight.
func OptionalDateTime(raw *string, endOfDay bool) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, dateOnly, err := ParseDateTime(*raw)
	if err != nil {
		return nil, err
	}
	if dateOnly && endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
