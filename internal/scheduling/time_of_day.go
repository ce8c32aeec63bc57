package scheduling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar date format used on every date boundary.
	DateLayout = "2006-01-02"

	minutesPerDay = 24 * 60
)

var ErrInvalidTimeOfDay = errors.New("invalid time of day, use HH:MM")

// TimeOfDay is a local wall-clock time expressed in minutes since midnight.
// 24:00 is representable so a window can end at the end of the day.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM" and the "HH:MM:SS" form postgres returns for
// TIME columns. Seconds are truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, ErrInvalidTimeOfDay
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidTimeOfDay
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidTimeOfDay
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidTimeOfDay
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil || len(parts[2]) != 2 {
			return 0, ErrInvalidTimeOfDay
		}
	}

	if hour == 24 && minute == 0 {
		return minutesPerDay, nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustParseTimeOfDay panics on malformed input. Intended for tests and constants.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(fmt.Sprintf("scheduling: %q: %v", s, err))
	}
	return t
}

// TimeOfDayOf returns the wall-clock time of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// On returns the instant at which this wall-clock time occurs on the given date
// in loc.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, loc)
}

// DateKey formats the calendar date of t using its own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date as local midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
}
