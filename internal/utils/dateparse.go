package utils

import (
	"errors"
	"time"
)

// ErrInvalidDate is returned when a date string matches none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date format")

// Accepted date+time layouts, tried in order. The zoned layouts cover both
// "Z" and numeric offsets; the naive layouts are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

const dateOnlyLayout = "2006-01-02"

// ParseDate converts a user-supplied date string into a UTC instant.
//
// It first attempts a full date+time parse (optional fraction and zone offset;
// the result is normalized to UTC). timeProvided reports whether any of
// hour/minute/second/sub-second was non-zero in the wall-clock time as written,
// BEFORE zone conversion. A timestamp of true midnight is therefore
// indistinguishable from a date-only input; callers must not rely on the
// difference.
//
// On failure it falls back to a calendar-date parse (YYYY-MM-DD, implicit
// midnight UTC, timeProvided=false). When both fail, ErrInvalidDate is
// returned; the caller names the offending parameter.
func ParseDate(dateStr string) (time.Time, bool, error) {
	if dateStr == "" {
		return time.Time{}, false, ErrInvalidDate
	}

	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, dateStr)
		if err != nil {
			continue
		}
		// Decide timeProvided from the wall clock as the caller wrote it,
		// then normalize to UTC.
		timeProvided := t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0
		return t.UTC(), timeProvided, nil
	}

	if t, err := time.Parse(dateOnlyLayout, dateStr); err == nil {
		return t.UTC(), false, nil
	}

	return time.Time{}, false, ErrInvalidDate
}
