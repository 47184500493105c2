package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	aischedule "github.com/hrygo/rundown/plugin/ai/schedule"
	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/service/schedule"
	"github.com/hrygo/rundown/store"
)

// SkipReason says why a candidate event was not created.
type SkipReason string

const (
	SkipNone             SkipReason = ""
	SkipExtractionFailed SkipReason = "extraction_failed"
	SkipNoTask           SkipReason = "no_task"
	SkipInformational    SkipReason = "informational"
	SkipDuplicate        SkipReason = "duplicate"
)

const informationalPrefix = "fyi:"

// CandidateOutcome is the result of ProcessCandidateEvent: Created, or
// skipped with a reason.
type CandidateOutcome struct {
	Created bool              `json:"created"`
	Skipped SkipReason        `json:"skipped,omitempty"`
	Title   string            `json:"title,omitempty"`
	Start   time.Time         `json:"start,omitzero"`
	Ref     calendar.EventRef `json:"ref,omitzero"`
	// Duplicate is the existing title that caused a SkipDuplicate.
	Duplicate string `json:"duplicate,omitempty"`
}

// ProcessCandidateEvent extracts an actionable event from text (typically an
// email rendered as subject and body) and creates it unless it is
// informational, empty, or already on the calendar. Only calendar failures
// are returned as errors.
func (d *Dispatcher) ProcessCandidateEvent(ctx context.Context, text string, now time.Time) (CandidateOutcome, error) {
	now = now.In(d.loc)

	intent, err := d.extractor.Extract(ctx, text, aischedule.CandidateEventSchema, now)
	if err != nil {
		slog.Info("candidate extraction failed", "error", err)
		return CandidateOutcome{Skipped: SkipExtractionFailed}, nil
	}
	fields := intent.Fields

	task := strings.TrimSpace(aischedule.String(fields.Task))
	if task == "" {
		return CandidateOutcome{Skipped: SkipNoTask}, nil
	}
	if strings.HasPrefix(strings.ToLower(task), informationalPrefix) {
		return CandidateOutcome{Skipped: SkipInformational, Title: task}, nil
	}

	existing, err := d.calendar.ListUpcoming(ctx, now, upcomingFetchLimit)
	if err != nil {
		return CandidateOutcome{}, err
	}
	if dup, ok := findDuplicate(existing, task); ok {
		return CandidateOutcome{Skipped: SkipDuplicate, Title: task, Duplicate: dup}, nil
	}

	res := d.resolver.Resolve(ctx, aischedule.String(fields.EventDate), now)
	location := aischedule.String(fields.Location)
	description := "Task: " + task
	if location != "" {
		description += "\n\nLocation: " + location
	}

	ref, err := d.calendar.Create(ctx, calendar.NewEvent{
		Title:       task,
		Description: description,
		Location:    location,
		Start:       res.Time,
		End:         res.Time.Add(schedule.DefaultEventLength),
		Reminder:    true,
		Source:      store.EventSourceIngest,
	})
	if err != nil {
		return CandidateOutcome{}, err
	}
	slog.Info("created event from candidate",
		"title", task,
		"tier", res.Tier.String(),
		"time_sensitive", fields.IsTimeSensitive != nil && *fields.IsTimeSensitive)
	return CandidateOutcome{Created: true, Title: task, Start: res.Time, Ref: ref}, nil
}

// findDuplicate reports an existing title that contains task or is contained
// by it, ignoring case.
func findDuplicate(events []calendar.Event, task string) (string, bool) {
	t := strings.ToLower(task)
	for _, ev := range events {
		title := strings.ToLower(strings.TrimSpace(ev.Title))
		if title == "" {
			continue
		}
		if strings.Contains(title, t) || strings.Contains(t, title) {
			return ev.Title, true
		}
	}
	return "", false
}
