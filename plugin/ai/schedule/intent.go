// Package schedule turns free text into typed scheduling intents with the
// help of the completion service.
package schedule

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind is the intent a schema extracts.
type Kind string

const (
	KindAdd               Kind = "add"
	KindRemove            Kind = "remove"
	KindList              Kind = "list"
	KindHelp              Kind = "help"
	KindCheckAvailability Kind = "check_availability"
	KindSuggestTime       Kind = "suggest_time"
	// KindCandidateEvent is an event candidate pulled from an email.
	KindCandidateEvent Kind = "candidate_event"
	// KindDate is a bare date phrase pulled from prose.
	KindDate Kind = "date"
)

// Fields holds every optional value an extraction may produce.
// A nil pointer means the completion service did not supply the value.
type Fields struct {
	Title           *string `json:"title,omitempty"`
	Date            *string `json:"date,omitempty"`
	Location        *string `json:"location,omitempty"`
	Details         *string `json:"details,omitempty"`
	TargetDate      *string `json:"target_date,omitempty"`
	Duration        *int    `json:"duration,omitempty"`
	Preference      *string `json:"preference,omitempty"`
	Task            *string `json:"task,omitempty"`
	EventDate       *string `json:"event_date,omitempty"`
	IsTimeSensitive *bool   `json:"is_time_sensitive,omitempty"`
}

// ExtractedIntent is a validated extraction result.
type ExtractedIntent struct {
	Kind    Kind   `json:"kind"`
	RawText string `json:"raw_text"`
	Fields  Fields `json:"fields"`
}

// String returns s's value or "".
func String(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rawFields is the lenient wire shape. Completion output is loosely typed:
// numbers arrive as strings, booleans as "yes", absent values as "none".
type rawFields struct {
	Title           json.RawMessage `json:"title"`
	Date            json.RawMessage `json:"date"`
	Location        json.RawMessage `json:"location"`
	Details         json.RawMessage `json:"details"`
	TargetDate      json.RawMessage `json:"target_date"`
	Duration        json.RawMessage `json:"duration"`
	Preference      json.RawMessage `json:"preference"`
	Task            json.RawMessage `json:"task"`
	EventDate       json.RawMessage `json:"event_date"`
	IsTimeSensitive json.RawMessage `json:"is_time_sensitive"`
}

func (r rawFields) normalize() Fields {
	return Fields{
		Title:           textField(r.Title),
		Date:            textField(r.Date),
		Location:        textField(r.Location),
		Details:         textField(r.Details),
		TargetDate:      textField(r.TargetDate),
		Duration:        intField(r.Duration),
		Preference:      textField(r.Preference),
		Task:            textField(r.Task),
		EventDate:       textField(r.EventDate),
		IsTimeSensitive: boolField(r.IsTimeSensitive),
	}
}

func isAbsent(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null", "n/a", "unknown":
		return true
	}
	return false
}

func textField(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Accept numbers and other scalars as their literal text.
		s = strings.Trim(string(raw), `"`)
		if s == "null" || strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			return nil
		}
	}
	s = strings.TrimSpace(s)
	if isAbsent(s) {
		return nil
	}
	return &s
}

func intField(raw json.RawMessage) *int {
	s := textField(raw)
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(strings.TrimSuffix(strings.ToLower(*s), "minutes"))
	v = strings.TrimSpace(strings.TrimSuffix(v, "min"))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return nil
	}
	n := int(f)
	return &n
}

func boolField(raw json.RawMessage) *bool {
	s := textField(raw)
	if s == nil {
		return nil
	}
	var b bool
	switch strings.ToLower(*s) {
	case "true", "yes", "1":
		b = true
	case "false", "no", "0":
		b = false
	default:
		return nil
	}
	return &b
}
