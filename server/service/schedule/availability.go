package schedule

import (
	"sort"
	"time"
)

// FreeSlots returns the gaps between busy events inside the working window
// on day's date.
//
// Events are clipped to the window and swept in (start, end) order with a
// cursor starting at the window start. A gap before an event is emitted only
// when it is at least minGap long; the trailing gap up to the window end is
// always emitted. The result is sorted and pairwise disjoint. With no busy
// events the result is the whole window.
func FreeSlots(busy []BusyEvent, day time.Time, window WorkingWindow, minGap time.Duration) []FreeSlot {
	bounds := window.On(day)
	if !bounds.Valid() {
		return nil
	}

	clipped := clipToWindow(busy, bounds)

	var free []FreeSlot
	cursor := bounds.Start
	for _, ev := range clipped {
		if cursor.Before(ev.Start) && ev.Start.Sub(cursor) >= minGap {
			free = append(free, FreeSlot{Interval{Start: cursor, End: ev.Start}})
		}
		if ev.End.After(cursor) {
			cursor = ev.End
		}
	}

	if cursor.Before(bounds.End) {
		free = append(free, FreeSlot{Interval{Start: cursor, End: bounds.End}})
	}
	return free
}

// EventsOn returns the events overlapping the working window on day's date,
// sorted by start then end. Times are left unclipped for display.
func EventsOn(busy []BusyEvent, day time.Time, window WorkingWindow) []BusyEvent {
	bounds := window.On(day)
	var out []BusyEvent
	for _, ev := range busy {
		if ev.Valid() && ev.Overlaps(bounds) {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out
}

func clipToWindow(busy []BusyEvent, bounds Interval) []Interval {
	clipped := make([]Interval, 0, len(busy))
	for _, ev := range busy {
		if !ev.Valid() {
			continue
		}
		if iv, ok := ev.Interval.Clip(bounds); ok {
			clipped = append(clipped, iv)
		}
	}
	sort.Slice(clipped, func(i, j int) bool {
		if clipped[i].Start.Equal(clipped[j].Start) {
			return clipped[i].End.Before(clipped[j].End)
		}
		return clipped[i].Start.Before(clipped[j].Start)
	})
	return clipped
}

func sortEvents(events []BusyEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].End.Before(events[j].End)
		}
		return events[i].Start.Before(events[j].Start)
	})
}
