package schedule

import (
	"fmt"
	"time"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval validates and builds an interval. Zero-length and inverted
// ranges are rejected.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, aierrors.Validation(fmt.Sprintf("interval start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339)))
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Valid reports whether Start < End.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether the two half-open intervals share any instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Clip returns the part of i inside bounds, if any.
func (i Interval) Clip(bounds Interval) (Interval, bool) {
	if !i.Overlaps(bounds) {
		return Interval{}, false
	}
	out := i
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out, out.Valid()
}

// BusyEvent is an existing calendar event occupying time.
type BusyEvent struct {
	Interval
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
}

// FreeSlot is a gap inside the working window not covered by any busy event.
type FreeSlot struct {
	Interval
}

// CandidateSlot is a proposed meeting time of exactly the requested
// duration, contained in some FreeSlot.
type CandidateSlot struct {
	Interval
}

// WorkingWindow is the daily range, as offsets from local midnight, in
// which free time is reported.
type WorkingWindow struct {
	Start time.Duration
	End   time.Duration
}

// On returns the window's interval on day's calendar date in day's location.
func (w WorkingWindow) On(day time.Time) Interval {
	return Interval{Start: wallClock(day, w.Start), End: wallClock(day, w.End)}
}

// wallClock builds the wall-clock time offset from midnight so DST days keep 09:00 at 09:00.
func wallClock(day time.Time, offset time.Duration) time.Time {
	y, m, d := day.Date()
	h := int(offset / time.Hour)
	minute := int((offset % time.Hour) / time.Minute)
	return time.Date(y, m, d, h, minute, 0, 0, day.Location())
}

// Length returns the window length.
func (w WorkingWindow) Length() time.Duration {
	return w.End - w.Start
}
