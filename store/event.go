package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrEventNotFound is returned when a delete matches no event.
var ErrEventNotFound = errors.New("event not found")

// Event source values.
const (
	EventSourceChat   = "chat"
	EventSourceIngest = "ingest"
)

// Event is the object representing a calendar event.
type Event struct {
	ID        int32
	UID       string
	CreatedTs int64
	UpdatedTs int64

	Title       string
	Description string
	Location    string
	StartTs     int64
	EndTs       int64
	Reminder    bool
	// Source records which path created the event.
	Source string
}

// FindEvent is the find condition for events.
type FindEvent struct {
	UID *string

	// EndAfter keeps events that end after this timestamp.
	EndAfter *int64
	// StartBefore keeps events that start before this timestamp.
	StartBefore *int64

	Limit *int
}

// DeleteEvent is the delete request for an event.
type DeleteEvent struct {
	UID string
}

// CreateEvent creates a new event.
func (s *Store) CreateEvent(ctx context.Context, create *Event) (*Event, error) {
	return s.driver.CreateEvent(ctx, create)
}

// ListEvents lists events ordered by start, then end.
func (s *Store) ListEvents(ctx context.Context, find *FindEvent) ([]*Event, error) {
	return s.driver.ListEvents(ctx, find)
}

// GetEvent returns the first event matching find, or nil.
func (s *Store) GetEvent(ctx context.Context, find *FindEvent) (*Event, error) {
	list, err := s.driver.ListEvents(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteEvent deletes an event. It returns ErrEventNotFound when nothing matched.
func (s *Store) DeleteEvent(ctx context.Context, delete *DeleteEvent) error {
	return s.driver.DeleteEvent(ctx, delete)
}

// StartTime returns the event start in loc.
func (e *Event) StartTime(loc *time.Location) time.Time {
	return time.Unix(e.StartTs, 0).In(loc)
}

// EndTime returns the event end in loc.
func (e *Event) EndTime(loc *time.Location) time.Time {
	return time.Unix(e.EndTs, 0).In(loc)
}
