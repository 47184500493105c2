package schedule

import (
	"fmt"
	"strings"
	"time"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

// Preference is a time-of-day bias for candidate slots.
type Preference string

const (
	PreferenceNone      Preference = ""
	PreferenceMorning   Preference = "morning"
	PreferenceAfternoon Preference = "afternoon"
	PreferenceEvening   Preference = "evening"
)

var preferenceAliases = map[string]Preference{
	"morning":   PreferenceMorning,
	"am":        PreferenceMorning,
	"early":     PreferenceMorning,
	"afternoon": PreferenceAfternoon,
	"noon":      PreferenceAfternoon,
	"lunch":     PreferenceAfternoon,
	"evening":   PreferenceEvening,
	"night":     PreferenceEvening,
	"pm":        PreferenceEvening,
	"late":      PreferenceEvening,
}

// ParsePreference maps a free-form preference word to a Preference.
// Empty input is PreferenceNone; unknown words are a validation error.
func ParsePreference(s string) (Preference, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" || s == "any" {
		return PreferenceNone, nil
	}
	if p, ok := preferenceAliases[s]; ok {
		return p, nil
	}
	return PreferenceNone, aierrors.Validation(fmt.Sprintf("unknown time preference %q", s))
}

// Matches reports whether a start time falls in the preference's band:
// morning before 12:00, afternoon 12:00-17:00, evening from 17:00.
func (p Preference) Matches(start time.Time) bool {
	h := start.Hour()
	switch p {
	case PreferenceMorning:
		return h < 12
	case PreferenceAfternoon:
		return h >= 12 && h < 17
	case PreferenceEvening:
		return h >= 17
	default:
		return true
	}
}

// Candidates enumerates start times every step inside each free slot such
// that the meeting fits before the slot ends. The preference filter only
// applies when it keeps at least one candidate; otherwise the unfiltered
// list is returned. Output is chronological, so the first element is the
// recommendation.
func Candidates(slots []FreeSlot, duration time.Duration, pref Preference, step time.Duration) []CandidateSlot {
	if duration <= 0 || step <= 0 {
		return nil
	}

	var all []CandidateSlot
	for _, slot := range slots {
		for start := slot.Start; !start.Add(duration).After(slot.End); start = start.Add(step) {
			all = append(all, CandidateSlot{Interval{Start: start, End: start.Add(duration)}})
		}
	}

	if pref == PreferenceNone {
		return all
	}
	var filtered []CandidateSlot
	for _, c := range all {
		if pref.Matches(c.Start) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return all
	}
	return filtered
}

// Recommend returns the first candidate.
func Recommend(candidates []CandidateSlot) (CandidateSlot, bool) {
	if len(candidates) == 0 {
		return CandidateSlot{}, false
	}
	return candidates[0], true
}

// ValidateDuration rejects non-positive durations and durations longer than
// the working window.
func ValidateDuration(d time.Duration, window WorkingWindow) error {
	if d <= 0 {
		return aierrors.Validation("duration must be positive")
	}
	if d > window.Length() {
		return aierrors.Validation(fmt.Sprintf("duration %s exceeds the %s working window", d, window.Length()))
	}
	return nil
}
