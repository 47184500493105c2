// Package schedule computes free time and candidate meeting slots over a
// day's busy events. It performs no I/O: callers fetch events from the
// calendar and pass them in.
package schedule

import "time"

const (
	// DefaultWindowStart is the first minute of the working window (09:00).
	DefaultWindowStart = 9 * time.Hour

	// DefaultWindowEnd is the exclusive end of the working window (20:00).
	DefaultWindowEnd = 20 * time.Hour

	// DefaultMinGap is the shortest gap between busy events reported as free.
	// The trailing gap before the window end is exempt.
	DefaultMinGap = 30 * time.Minute

	// DefaultStep is the spacing between candidate start times.
	DefaultStep = 30 * time.Minute

	// DefaultDuration is the meeting length when none is requested.
	DefaultDuration = 60 * time.Minute

	// DefaultEventLength is the length of events created without an end time.
	DefaultEventLength = time.Hour
)

// DefaultWindow is the [09:00, 20:00) working window.
var DefaultWindow = WorkingWindow{Start: DefaultWindowStart, End: DefaultWindowEnd}
