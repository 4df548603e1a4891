package vaultdata

import (
	"time"
)

// timestampLayout is ISO-8601 UTC with millisecond precision, matching the
// on-wire `last_modified` format.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is an ISO-8601 UTC instant carried as an opaque string on the
// wire.
type Timestamp string

// Now returns the current instant as a wire timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UTC().Format(timestampLayout))
}

// Time parses the timestamp. The zero time and false are returned when the
// value is not a recognizable ISO-8601 instant.
func (t Timestamp) Time() (time.Time, bool) {
	for _, layout := range []string{timestampLayout, time.RFC3339Nano, time.RFC3339} {
		if parsed, err := time.Parse(layout, string(t)); err == nil {
			return parsed, true
		}
	}

	return time.Time{}, false
}

// After reports whether t is strictly later than other. When either side
// fails to parse, the comparison falls back to lexicographic order, which
// matches chronological order for normalized ISO-8601 UTC strings.
func (t Timestamp) After(other Timestamp) bool {
	a, okA := t.Time()
	b, okB := other.Time()

	if okA && okB {
		return a.After(b)
	}

	return t > other
}
