package schedule

import (
	"time"

	"github.com/vmontano/taller-booking-backend/internal/timeparse"
)

// Default daily window for the shop.
var (
	DefaultOpen  = timeparse.TimeOfDay{Hour: 8}
	DefaultClose = timeparse.TimeOfDay{Hour: 18}
)

// Window is the fixed daily span during which appointments may start and end.
type Window struct {
	Open  timeparse.TimeOfDay
	Close timeparse.TimeOfDay
}

// DefaultWindow returns the 08:00-18:00 business window.
func DefaultWindow() Window {
	return Window{Open: DefaultOpen, Close: DefaultClose}
}

// OnDate anchors the window to a concrete calendar date.
func (w Window) OnDate(date time.Time) Interval {
	y, m, d := date.Date()
	loc := date.Location()
	return Interval{
		Start: time.Date(y, m, d, w.Open.Hour, w.Open.Minute, 0, 0, loc),
		End:   time.Date(y, m, d, w.Close.Hour, w.Close.Minute, 0, 0, loc),
	}
}

// Contains reports whether the candidate interval lies entirely inside the
// window anchored to the candidate's own date.
func (w Window) Contains(candidate Interval) bool {
	day := w.OnDate(candidate.Start)
	return !candidate.Start.Before(day.Start) && !candidate.End.After(day.End)
}
