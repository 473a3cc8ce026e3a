package schedule

import "time"

// Mode selects how candidate slots are generated.
type Mode string

const (
	// ModeFixedGrid enumerates fixed-width slots at a coarse step; a slot is
	// taken when a booking occupies its exact start.
	ModeFixedGrid Mode = "fixed"
	// ModeDurationAware enumerates starts at a fine step, fitting the service
	// duration and keeping a buffer around existing bookings.
	ModeDurationAware Mode = "duration"
)

const (
	DefaultBufferMinutes    = 10
	DefaultStepMinutes      = 30
	DefaultFixedStepMinutes = 120
)

// Options tunes slot generation. Zero values fall back to the defaults for
// the selected mode.
type Options struct {
	Mode          Mode
	StepMinutes   int
	BufferMinutes int
}

func (o Options) step() time.Duration {
	if o.StepMinutes > 0 {
		return time.Duration(o.StepMinutes) * time.Minute
	}
	if o.Mode == ModeFixedGrid {
		return DefaultFixedStepMinutes * time.Minute
	}
	return DefaultStepMinutes * time.Minute
}

func (o Options) buffer() time.Duration {
	if o.BufferMinutes > 0 {
		return time.Duration(o.BufferMinutes) * time.Minute
	}
	return DefaultBufferMinutes * time.Minute
}

// Slots returns the free start intervals for a day, in ascending order.
// window anchors the business hours to the requested date, durationMin is the
// service length, and busy holds the existing bookings for the same resource
// and date. An empty result means no availability; it is not an error.
func Slots(window Interval, durationMin int, busy []Busy, opts Options) []Interval {
	if opts.Mode == ModeFixedGrid {
		return fixedGridSlots(window, busy, opts.step())
	}
	return durationAwareSlots(window, time.Duration(durationMin)*time.Minute, busy, opts)
}

func fixedGridSlots(window Interval, busy []Busy, step time.Duration) []Interval {
	var slots []Interval
	for t := window.Start; !t.Add(step).After(window.End); t = t.Add(step) {
		taken := false
		for _, b := range busy {
			if b.Start.Equal(t) {
				taken = true
				break
			}
		}
		if !taken {
			slots = append(slots, Interval{Start: t, End: t.Add(step)})
		}
	}
	return slots
}

func durationAwareSlots(window Interval, duration time.Duration, busy []Busy, opts Options) []Interval {
	if duration <= 0 {
		return nil
	}
	step := opts.step()
	buffer := opts.buffer()

	var slots []Interval
	for t := window.Start; !t.Add(duration).After(window.End); t = t.Add(step) {
		candidate := Interval{Start: t, End: t.Add(duration)}
		if !conflicts(candidate, busy, "", buffer) {
			slots = append(slots, candidate)
		}
	}
	return slots
}

// CanBook decides whether the candidate interval may be booked given the
// existing bookings for the same resource and date. excludeID skips the
// appointment being rescheduled so it does not collide with itself.
func CanBook(candidate Interval, busy []Busy, excludeID string, bufferMin int) bool {
	buffer := time.Duration(bufferMin) * time.Minute
	if bufferMin <= 0 {
		buffer = DefaultBufferMinutes * time.Minute
	}
	return !conflicts(candidate, busy, excludeID, buffer)
}

func conflicts(candidate Interval, busy []Busy, excludeID string, buffer time.Duration) bool {
	for _, b := range busy {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if Overlaps(candidate, b.expand(buffer)) {
			return true
		}
	}
	return false
}
