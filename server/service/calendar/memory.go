package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

// MemoryCalendar is an in-process Calendar. It backs tests and demo mode.
type MemoryCalendar struct {
	mu     sync.Mutex
	nextID int
	events map[string]Event
}

// NewMemoryCalendar creates an empty calendar seeded with events, if any.
func NewMemoryCalendar(seed ...Event) *MemoryCalendar {
	c := &MemoryCalendar{events: make(map[string]Event)}
	for _, e := range seed {
		if e.ID == "" {
			c.nextID++
			e.ID = fmt.Sprintf("evt-%d", c.nextID)
		}
		c.events[e.ID] = e
	}
	return c
}

func (c *MemoryCalendar) ListUpcoming(_ context.Context, since time.Time, max int) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	for _, e := range c.events {
		if e.End.After(since) {
			out = append(out, e)
		}
	}
	sortByStart(out)
	if max >= 0 && len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (c *MemoryCalendar) Create(_ context.Context, event NewEvent) (EventRef, error) {
	if !event.Start.Before(event.End) {
		return EventRef{}, aierrors.Validation("event must end after it starts")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := fmt.Sprintf("evt-%d", c.nextID)
	link := "memory://events/" + id
	c.events[id] = Event{
		ID:          id,
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		Start:       event.Start,
		End:         event.End,
		Link:        link,
	}
	return EventRef{ID: id, Link: link}, nil
}

func (c *MemoryCalendar) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.events[id]; !ok {
		return aierrors.NotFound("no event with id " + id)
	}
	delete(c.events, id)
	return nil
}

// All returns every event ordered by start.
func (c *MemoryCalendar) All() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Event, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	sortByStart(out)
	return out
}

func sortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			if events[i].End.Equal(events[j].End) {
				return events[i].ID < events[j].ID
			}
			return events[i].End.Before(events[j].End)
		}
		return events[i].Start.Before(events[j].Start)
	})
}

// MemoryMailbox is an in-process Mailbox.
type MemoryMailbox struct {
	mu       sync.Mutex
	messages []MailMessage
}

// NewMemoryMailbox creates a mailbox holding messages.
func NewMemoryMailbox(messages ...MailMessage) *MemoryMailbox {
	return &MemoryMailbox{messages: messages}
}

// Add appends a message.
func (m *MemoryMailbox) Add(msg MailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *MemoryMailbox) ListRecent(_ context.Context, since time.Time) ([]MailMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MailMessage
	for _, msg := range m.messages {
		if !msg.ReceivedAt.Before(since) {
			out = append(out, msg)
		}
	}
	SortNewestFirst(out)
	return out, nil
}

// SortNewestFirst orders messages by ReceivedAt descending.
func SortNewestFirst(messages []MailMessage) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})
}

var (
	_ Calendar = (*MemoryCalendar)(nil)
	_ Calendar = (*StoreCalendar)(nil)
	_ Mailbox  = (*MemoryMailbox)(nil)
)
