package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/service/schedule"
	"github.com/hrygo/rundown/server/timezone"
)

// Usage hints for commands sent without content.
const (
	replyAddUsage     = "Please provide event details. Example: @add Meeting with John tomorrow at 3pm"
	replyRemoveUsage  = "Please provide the event to remove. You can specify a title or an exact event ID."
	replyCheckUsage   = "Please specify a date to check. For example: @check tomorrow"
	replySuggestUsage = "Please describe the event you want to schedule. For example: @suggest time for a coffee break tomorrow"
)

const (
	replyAddFailed       = "I had trouble adding that event. Please try again with a clearer date and time."
	replyDeletedByID     = "✅ Event has been deleted from your calendar."
	replyNoUpcoming      = "You don't have any upcoming events in your calendar."
	replyNothingPending  = "There's nothing waiting for confirmation. Use @suggest to find a time first."
	replyDeclined        = "Okay, I won't add it. Use @suggest to look for another time."
	replyGeneralFailed   = "I couldn't get an answer right now. Please try again in a moment."
	replyNoFreeSlots     = "You have no free time slots available on this day."
	replyBadDurationHint = "Please give a duration between 1 and %d minutes."

	descriptionHeader = "Created via RunDown Chatbot"
)

const helpText = `### Available Commands:

- **@add [event details]** - Add a new event to your calendar
  Example: @add Team meeting tomorrow at 3pm

- **@remove [event name]** - Remove an event from your calendar
  Example: @remove Team meeting

- **@list** - Show your upcoming calendar events

- **@check [date]** - Check your availability on a specific date
  Example: @check tomorrow
  Example: @check Friday

- **@when [event description]** - Find a suitable time for an event
  Example: @when can I schedule a team meeting on Wednesday?

- **@suggest [event description]** - Suggest a free time for an event
  Example: @suggest time for a coffee break tomorrow

- **@help** - Show this help message`

func addedReply(title string, start time.Time, location, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Added to calendar: **%s**\n%s", title, timezone.FormatDayAt(start))
	if location != "" {
		fmt.Fprintf(&b, "\nLocation: %s", location)
	}
	if link != "" {
		fmt.Fprintf(&b, "\n[View in Calendar](%s)", link)
	}
	return b.String()
}

func confirmedReply(title string, start time.Time, link string) string {
	reply := fmt.Sprintf("✅ Added to calendar: **%s**\n📅 %s", title, timezone.FormatDayAt(start))
	if link != "" {
		reply += fmt.Sprintf("\n🔗 [View in Calendar](%s)", link)
	}
	return reply
}

func noMatchReply(query string) string {
	return fmt.Sprintf("I couldn't find any events matching '%s'. Please try a different search or use @list to see your upcoming events.", query)
}

func deletedReply(title string) string {
	return fmt.Sprintf("✅ Deleted event: **%s**", title)
}

func ambiguousRemoveReply(matches []calendar.Event, loc *time.Location, capped bool) string {
	var b strings.Builder
	b.WriteString("I found multiple matching events. Please be more specific or use the event ID:\n\n")
	for i, ev := range matches {
		if i == removeCandidateLimit {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** - %s (ID: `%s`)\n", i+1, ev.Title, timezone.FormatListing(ev.Start.In(loc)), ev.ID)
	}
	if len(matches) > removeCandidateLimit {
		b.WriteString(moreEvents(len(matches)-removeCandidateLimit, capped))
	}
	b.WriteString("\n\nTo delete a specific event, use:\n`@remove EVENT_ID`")
	return b.String()
}

func listReply(events []calendar.Event, loc *time.Location, capped bool) string {
	var b strings.Builder
	b.WriteString("📅 **Upcoming Events**\n\n")
	for i, ev := range events {
		if i == listLimit {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** - %s\n", i+1, ev.Title, timezone.FormatListing(ev.Start.In(loc)))
	}
	if len(events) > listLimit {
		b.WriteString(moreEvents(len(events)-listLimit, capped))
	}
	return b.String()
}

// moreEvents is the trailer for a truncated listing. A capped fetch only
// gives a lower bound.
func moreEvents(n int, capped bool) string {
	if capped {
		return fmt.Sprintf("\n... and at least %d more events.", n)
	}
	return fmt.Sprintf("\n... and %d more events.", n)
}

func availabilityReply(day time.Time, window schedule.WorkingWindow, booked []schedule.BusyEvent, free []schedule.FreeSlot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Availability for %s\n\n", timezone.FormatDay(day))
	if len(booked) == 0 {
		bounds := window.On(day)
		fmt.Fprintf(&b, "You have no events scheduled for this day. You're completely free from %s to %s.",
			bounds.Start.Format("3:04 PM"), bounds.End.Format("3:04 PM"))
		return b.String()
	}

	b.WriteString("**Booked Events:**\n")
	for _, ev := range booked {
		fmt.Fprintf(&b, "- %s: %s\n", ev.Title, clockRange(ev.Interval, day.Location()))
	}
	b.WriteString("\n**Free Time Slots:**\n")
	if len(free) == 0 {
		b.WriteString(replyNoFreeSlots)
		return b.String()
	}
	for i, slot := range free {
		fmt.Fprintf(&b, "%d. %s\n", i+1, clockRange(slot.Interval, day.Location()))
	}
	return b.String()
}

func suggestionReply(title string, slot schedule.CandidateSlot) string {
	return fmt.Sprintf("### Time Suggestion\n\nI suggest scheduling **%s** on **%s** from **%s** to **%s**.\n\nWould you like me to add this to your calendar?",
		title, timezone.FormatDay(slot.Start), timezone.FormatClock(slot.Start), timezone.FormatClock(slot.End))
}

func noSlotReply(title string, duration time.Duration, day time.Time) string {
	return fmt.Sprintf("I couldn't find a suitable time for a %d-minute '%s' on %s. Would you like to check a different day?",
		int(duration/time.Minute), title, timezone.FormatDay(day))
}

func clockRange(iv schedule.Interval, loc *time.Location) string {
	return timezone.FormatClock(iv.Start.In(loc)) + " - " + timezone.FormatClock(iv.End.In(loc))
}
