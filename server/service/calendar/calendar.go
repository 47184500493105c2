// Package calendar defines the calendar and mailbox collaborators the
// scheduling engine talks to, plus their store-backed and in-memory
// implementations.
package calendar

import (
	"context"
	"time"

	"github.com/hrygo/rundown/server/service/schedule"
)

// Event is a calendar entry.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Link        string    `json:"link,omitempty"`
}

// Busy converts e for availability computations.
func (e Event) Busy() schedule.BusyEvent {
	return schedule.BusyEvent{
		Interval: schedule.Interval{Start: e.Start, End: e.End},
		ID:       e.ID,
		Title:    e.Title,
	}
}

// BusyEvents converts events for availability computations.
func BusyEvents(events []Event) []schedule.BusyEvent {
	out := make([]schedule.BusyEvent, 0, len(events))
	for _, e := range events {
		out = append(out, e.Busy())
	}
	return out
}

// NewEvent is a create request.
type NewEvent struct {
	Title       string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// Reminder asks the backend to attach its default reminder.
	Reminder bool
	// Source tags which path created the event ("chat" or "ingest").
	Source string
}

// EventRef identifies a created event.
type EventRef struct {
	ID   string `json:"id"`
	Link string `json:"link,omitempty"`
}

// Calendar is the calendar collaborator.
type Calendar interface {
	// ListUpcoming returns up to max events ending after since, ordered by start then end.
	ListUpcoming(ctx context.Context, since time.Time, max int) ([]Event, error)

	// Create adds an event.
	Create(ctx context.Context, event NewEvent) (EventRef, error)

	// Delete removes an event. A missing id is a NOT_FOUND error.
	Delete(ctx context.Context, id string) error
}

// MailMessage is a received email.
type MailMessage struct {
	ID         string    `json:"id" yaml:"id"`
	From       string    `json:"from,omitempty" yaml:"from"`
	Subject    string    `json:"subject" yaml:"subject"`
	Body       string    `json:"body" yaml:"body"`
	ReceivedAt time.Time `json:"received_at" yaml:"received_at"`
}

// Mailbox is the mail collaborator.
type Mailbox interface {
	// ListRecent returns messages received at or after since, newest first.
	ListRecent(ctx context.Context, since time.Time) ([]MailMessage, error)
}
