package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Schema describes one extraction: the JSON shape requested from the
// completion service, the rules it must follow and a worked example.
type Schema struct {
	Kind        Kind
	Instruction string
	Shape       string
	Rules       []string
	Example     string
}

// AddSchema extracts an event to create from a scheduling request.
var AddSchema = Schema{
	Kind:        KindAdd,
	Instruction: "Extract the calendar event the user wants to create.",
	Shape: `{
  "title": "short event title without date or time words",
  "date": "YYYY-MM-DD HH:MM",
  "location": "location name or null",
  "details": "extra details or null"
}`,
	Rules: []string{
		"If no date is given, use tomorrow at 09:00.",
		"If no year is given, use the current year.",
		"If the month is earlier than the current month and no year is given, use next year.",
		"Use 24-hour time.",
	},
	Example: `Input: lunch with Sam at Nopa next friday 12:30
Output: {"title": "Lunch with Sam", "date": "2025-06-13 12:30", "location": "Nopa", "details": null}`,
}

// SuggestSchema extracts what to schedule and when for a time suggestion.
var SuggestSchema = Schema{
	Kind:        KindSuggestTime,
	Instruction: "Extract what the user wants to schedule and on which day.",
	Shape: `{
  "title": "short event title",
  "target_date": "the day as the user said it, e.g. 'tomorrow' or 'friday'",
  "duration": minutes as an integer,
  "preference": "morning", "afternoon", "evening" or null
}`,
	Rules: []string{
		"If no duration is given, use 60.",
		"If no day is given, use 'tomorrow'.",
		"Only set preference when the user names a part of the day.",
	},
	Example: `Input: find an hour for a design review on thursday afternoon
Output: {"title": "Design review", "target_date": "thursday", "duration": 60, "preference": "afternoon"}`,
}

// CandidateEventSchema extracts an actionable event from an email.
var CandidateEventSchema = Schema{
	Kind:        KindCandidateEvent,
	Instruction: "Read the email and decide whether it asks the reader to attend or do something at a specific time.",
	Shape: `{
  "task": "short description of the event or task, or none",
  "event_date": "YYYY-MM-DD HH:MM or none",
  "location": "location or none",
  "is_time_sensitive": true or false
}`,
	Rules: []string{
		"If the email is informational only, set task to 'FYI: ' followed by a short summary.",
		"If no date is stated, set event_date to none.",
		"If no year is given, use the current year.",
	},
	Example: `Input: Subject: Team offsite. Body: Please join us on March 3 at 10am in Room 4.
Output: {"task": "Team offsite", "event_date": "2025-03-03 10:00", "location": "Room 4", "is_time_sensitive": true}`,
}

// DateSchema extracts a single date phrase from prose.
var DateSchema = Schema{
	Kind:        KindDate,
	Instruction: "Find the date and time the text refers to.",
	Shape:       `{"date": "YYYY-MM-DD HH:MM or null"}`,
	Rules: []string{
		"If the text names a day but no time, use 09:00.",
		"If the text contains no date at all, return null.",
	},
	Example: `Input: can we push the retro to the day after tomorrow around 3pm
Output: {"date": "2025-06-04 15:00"}`,
}

// Prompt renders the schema as a completion prompt for text at now.
func (s Schema) Prompt(text string, now time.Time) string {
	var b strings.Builder
	b.WriteString(s.Instruction)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current time: %s (%s)\n", now.Format("2006-01-02 15:04"), now.Format("Monday"))
	fmt.Fprintf(&b, "Timezone: %s\n\n", now.Location())
	b.WriteString("Respond with JSON only, in this shape:\n")
	b.WriteString(s.Shape)
	b.WriteString("\n\nRules:\n")
	for i, r := range s.Rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\nExample:\n")
	b.WriteString(s.Example)
	b.WriteString("\n\nInput: ")
	b.WriteString(text)
	b.WriteString("\nOutput:")
	return b.String()
}
