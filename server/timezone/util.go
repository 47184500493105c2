// Package timezone provides the wall-clock helpers RunDown schedules with.
//
// All scheduling happens in one configured location; these helpers build
// day boundaries and clock times in that location and format them for replies.
package timezone

import (
	"fmt"
	"time"
)

// UTC is the coordinated universal time timezone.
var UTC = time.UTC

// Load parses an IANA timezone identifier (e.g., "America/New_York").
// If the timezone is invalid, returns UTC and an error.
func Load(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// MustLoad parses a timezone or panics if invalid.
func MustLoad(tz string) *time.Location {
	loc, err := Load(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// At returns the given wall-clock time on t's calendar day.
func At(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDay formats a date as "Monday, January 02, 2006".
func FormatDay(t time.Time) string {
	return t.Format("Monday, January 02, 2006")
}

// FormatClock formats a time as "03:04 PM".
func FormatClock(t time.Time) string {
	return t.Format("03:04 PM")
}

// FormatEventTime formats an event start for listings.
// Rules:
//   - Today: "Today at 03:04 PM"
//   - Otherwise: "Mon, Jan 02 at 03:04 PM"
func FormatEventTime(start, now time.Time) string {
	if SameDay(start, now) {
		return "Today at " + FormatClock(start)
	}
	return start.Format("Mon, Jan 02") + " at " + FormatClock(start)
}

// FormatDayAt formats a timestamp as "Monday, January 02, 2006 at 03:04 PM".
func FormatDayAt(t time.Time) string {
	return FormatDay(t) + " at " + FormatClock(t)
}

// FormatListing formats an event start as "Monday, January 02 at 03:04 PM".
func FormatListing(t time.Time) string {
	return t.Format("Monday, January 02") + " at " + FormatClock(t)
}
