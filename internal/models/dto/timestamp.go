package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a client supplied point in time. Values without a zone offset are
// kept as wall-clock readings and resolved against the server location.
type Timestamp struct {
	Time     time.Time
	Naive    bool
	DateOnly bool
}

var zonedLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05Z07:00"}

var naiveLayouts = []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"}

// ParseTimestamp accepts RFC 3339 timestamps, naive ISO timestamps and plain dates.
func ParseTimestamp(raw string) (Timestamp, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: t, Naive: true}, nil
		}
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return Timestamp{Time: t, Naive: true, DateOnly: true}, nil
	}
	return Timestamp{}, fmt.Errorf("invalid datetime %q: expected ISO 8601", raw)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// In resolves the timestamp, reading naive values as wall-clock time in loc.
func (t Timestamp) In(loc *time.Location) time.Time {
	if !t.Naive {
		return t.Time
	}
	return time.Date(t.Time.Year(), t.Time.Month(), t.Time.Day(),
		t.Time.Hour(), t.Time.Minute(), t.Time.Second(), t.Time.Nanosecond(), loc)
}
