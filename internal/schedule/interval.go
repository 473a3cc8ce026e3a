// Package schedule derives bookable time slots from business hours and
// existing bookings, and decides whether a proposed interval may be booked.
// All functions are pure over the values they receive; callers supply the
// booking snapshot and are responsible for excluding past dates.
package schedule

import "time"

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Busy is an existing booking interval. Only bookings whose status still
// blocks the calendar (confirmed or rescheduled) should be passed in.
type Busy struct {
	ID string
	Interval
}

// Overlaps reports whether two half-open intervals intersect:
// a.Start < b.End && b.Start < a.End.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// expand widens the interval by buffer on both sides. Testing a candidate
// against expanded bookings enforces the idle margin between neighbours.
func (i Interval) expand(buffer time.Duration) Interval {
	return Interval{Start: i.Start.Add(-buffer), End: i.End.Add(buffer)}
}
