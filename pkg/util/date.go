package util

import (
	"strconv"
	"time"
)

// ParseTime accepts RFC3339, a plain date (2006-01-02), or unix seconds.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns def if empty or invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ClampRange orders from/to and limits the window to maxSpan, keeping to.
func ClampRange(from, to time.Time, maxSpan time.Duration) (time.Time, time.Time) {
	if to.Before(from) {
		from, to = to, from
	}
	if maxSpan > 0 && to.Sub(from) > maxSpan {
		from = to.Add(-maxSpan)
	}
	return from, to
}
