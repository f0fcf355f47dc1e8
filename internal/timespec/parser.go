package timespec

import (
	"fmt"
	"time"
)

// Parse turns a time specification into an absolute time.
// Two forms are accepted:
//   - a Go duration such as "1h" or "2h45m", meaning that long before now
//   - an RFC3339 timestamp such as "2025-10-29T13:00:00Z"
func Parse(spec string, now time.Time) (time.Time, error) {
	if spec == "" {
		return time.Time{}, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("negative duration: %s", spec)
		}
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("invalid time specification: %s (use duration like '1h30m' or RFC3339 like '2025-10-29T13:00:00Z')", spec)
}

// ParseRange parses --since and --until. A zero time means no bound on that
// side. since must be before until when both are given.
func ParseRange(since, until string, now time.Time) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if since != "" {
		if from, err = Parse(since, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since: %w", err)
		}
	}
	if until != "" {
		if to, err = Parse(until, now); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until: %w", err)
		}
	}

	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must be before --until")
	}
	return from, to, nil
}
