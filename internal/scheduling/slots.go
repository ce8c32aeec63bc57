package scheduling

import (
	"errors"
	"sort"
	"time"
)

const (
	// SlotStride is the spacing between candidate start times inside a window.
	SlotStride = 60 * time.Minute

	// DefaultMaxRangeDays caps how far apart from and to dates may be.
	DefaultMaxRangeDays = 30
)

var ErrInvalidRange = errors.New("invalid slot range")

// SlotMap maps a YYYY-MM-DD date to its bookable HH:MM start times.
// Only dates with at least one slot are present.
type SlotMap map[string][]string

// Dates returns the keys of m in calendar order.
func (m SlotMap) Dates() []string {
	dates := make([]string, 0, len(m))
	for d := range m {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// SlotQuery describes a slot computation over an inclusive date range.
// From and To are local midnights in the availability location.
type SlotQuery struct {
	From     time.Time
	To       time.Time
	Duration time.Duration
}

// Validate enforces from <= to, a span of at most maxDays and a positive duration.
func (q SlotQuery) Validate(maxDays int) error {
	if maxDays <= 0 {
		maxDays = DefaultMaxRangeDays
	}
	if q.Duration <= 0 {
		return ErrInvalidRange
	}
	if q.To.Before(q.From) {
		return ErrInvalidRange
	}
	if daysBetween(q.From, q.To) > maxDays {
		return ErrInvalidRange
	}
	return nil
}

// ComputeSlots derives bookable start times for every date of the query.
// It has no side effects; the same inputs and now always give the same map.
func ComputeSlots(a *Availability, q SlotQuery, now time.Time) SlotMap {
	slots := make(SlotMap)

	for day := startOfDay(q.From, a.loc); !day.After(q.To.In(a.loc)); day = day.AddDate(0, 0, 1) {
		times := slotsForDay(a, day, q.Duration, now)
		if len(times) > 0 {
			slots[DateKey(day)] = times
		}
	}

	return slots
}

func slotsForDay(a *Availability, day time.Time, duration time.Duration, now time.Time) []string {
	plan := a.schedule.PlanFor(day)
	span := TimeOfDay(duration / time.Minute)
	stride := TimeOfDay(SlotStride / time.Minute)

	seen := make(map[TimeOfDay]bool)
	var starts []TimeOfDay

	for _, w := range plan.Windows {
		for start := w.Start; start+span <= w.End; start += stride {
			if seen[start] {
				continue
			}
			if a.Evaluate(start.On(day, a.loc), duration, now) != ReasonNone {
				continue
			}
			seen[start] = true
			starts = append(starts, start)
		}
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	times := make([]string, len(starts))
	for i, s := range starts {
		times[i] = s.String()
	}
	return times
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// daysBetween counts calendar days from a to b, independent of DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
