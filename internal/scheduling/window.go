package scheduling

import "time"

// Window is a half-open [Start, End) range of wall-clock time within one day.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewWindow(start, end string) (Window, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: s, End: e}, nil
}

func (w Window) Valid() bool {
	return w.Start >= 0 && w.Start < w.End && w.End <= minutesPerDay
}

func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && w.End > o.Start
}

// Contains reports whether o lies entirely inside w.
func (w Window) Contains(o Window) bool {
	return o.Start >= w.Start && o.End <= w.End
}

// Interval is a half-open [Start, End) range of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, duration time.Duration) Interval {
	return Interval{Start: start, End: start.Add(duration)}
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}
