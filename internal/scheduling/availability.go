package scheduling

import (
	"time"

	"care-booking-marketplace/internal/domain/entity"
)

// Reason explains why a candidate time is not bookable.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonPast         Reason = "past"
	ReasonBlocked      Reason = "blocked"
	ReasonOutsideHours Reason = "outside_hours"
	ReasonBooking      Reason = "booking"
)

// DayPlan is the effective schedule of one calendar date.
type DayPlan struct {
	Date       time.Time
	Windows    []Window
	Blocks     []Window
	Overridden bool
}

// Schedule indexes a provider's availability entries by weekday and date.
type Schedule struct {
	recurring map[time.Weekday][]Window
	overrides map[string][]Window
	blocks    map[string][]Window
}

// NewSchedule builds a Schedule from stored entries. Entries whose times do not
// parse or whose kind/date fields are inconsistent are skipped; the store
// validates them on write.
func NewSchedule(entries []entity.AvailabilityEntry) *Schedule {
	s := &Schedule{
		recurring: make(map[time.Weekday][]Window),
		overrides: make(map[string][]Window),
		blocks:    make(map[string][]Window),
	}

	for i := range entries {
		e := &entries[i]
		w, err := NewWindow(e.StartTime, e.EndTime)
		if err != nil || !w.Valid() {
			continue
		}

		switch e.Kind {
		case entity.AvailabilityRecurring:
			if e.DayOfWeek == nil || *e.DayOfWeek < 0 || *e.DayOfWeek > 6 {
				continue
			}
			day := time.Weekday(*e.DayOfWeek)
			s.recurring[day] = append(s.recurring[day], w)
		case entity.AvailabilityOneTimeAvailable:
			if key := e.DateKey(); key != "" {
				s.overrides[key] = append(s.overrides[key], w)
			}
		case entity.AvailabilityOneTimeBlocked:
			if key := e.DateKey(); key != "" {
				s.blocks[key] = append(s.blocks[key], w)
			}
		}
	}

	return s
}

// PlanFor resolves the working windows of a date: one-time available entries
// replace the weekly hours for that date, they are never merged with them.
func (s *Schedule) PlanFor(date time.Time) DayPlan {
	key := DateKey(date)
	plan := DayPlan{
		Date:   date,
		Blocks: s.blocks[key],
	}

	if overrides, ok := s.overrides[key]; ok && len(overrides) > 0 {
		plan.Windows = overrides
		plan.Overridden = true
		return plan
	}

	plan.Windows = s.recurring[date.Weekday()]
	return plan
}

// Check evaluates a same-day candidate window against the plan. A block takes
// precedence over the working-hours test.
func (p DayPlan) Check(candidate Window) Reason {
	for _, block := range p.Blocks {
		if candidate.Overlaps(block) {
			return ReasonBlocked
		}
	}
	for _, w := range p.Windows {
		if w.Contains(candidate) {
			return ReasonNone
		}
	}
	return ReasonOutsideHours
}

// Availability answers "is time T bookable for this provider" and is the
// single predicate shared by slot listing and booking validation.
type Availability struct {
	schedule *Schedule
	busy     []Interval
	loc      *time.Location
}

// NewAvailability combines a schedule with the provider's active bookings.
// Bookings that are not pending or confirmed are ignored.
func NewAvailability(entries []entity.AvailabilityEntry, bookings []entity.Booking, loc *time.Location) *Availability {
	if loc == nil {
		loc = time.UTC
	}

	a := &Availability{
		schedule: NewSchedule(entries),
		loc:      loc,
	}
	for i := range bookings {
		b := &bookings[i]
		if b.Status != entity.BookingStatusPending && b.Status != entity.BookingStatusConfirmed {
			continue
		}
		a.busy = append(a.busy, NewInterval(b.ScheduledAt, b.Duration()))
	}
	return a
}

// Location returns the zone in which wall-clock times are interpreted.
func (a *Availability) Location() *time.Location {
	return a.loc
}

// PlanFor exposes the day plan for the local date of t.
func (a *Availability) PlanFor(t time.Time) DayPlan {
	return a.schedule.PlanFor(t.In(a.loc))
}

// Evaluate decides whether [start, start+duration) can be booked at now.
// Checks run in order: past, blocked, outside hours, booking overlap.
func (a *Availability) Evaluate(start time.Time, duration time.Duration, now time.Time) Reason {
	if !start.After(now) {
		return ReasonPast
	}

	local := start.In(a.loc)
	from := TimeOfDayOf(local)
	candidate := Window{Start: from, End: from + TimeOfDay(duration/time.Minute)}

	if reason := a.schedule.PlanFor(local).Check(candidate); reason != ReasonNone {
		return reason
	}

	if _, overlaps := a.FirstOverlap(NewInterval(start, duration)); overlaps {
		return ReasonBooking
	}
	return ReasonNone
}

// FirstOverlap returns the first busy interval overlapping iv.
func (a *Availability) FirstOverlap(iv Interval) (Interval, bool) {
	for _, busy := range a.busy {
		if iv.Overlaps(busy) {
			return busy, true
		}
	}
	return Interval{}, false
}
