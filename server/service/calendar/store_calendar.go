package calendar

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/store"
)

// StoreCalendar keeps events in the SQL store.
type StoreCalendar struct {
	store    *store.Store
	location *time.Location
	linkBase string
}

// NewStoreCalendar creates a Calendar on s. Event times are reported in loc;
// links are instanceURL + "/api/v1/events/{id}".
func NewStoreCalendar(s *store.Store, loc *time.Location, instanceURL string) *StoreCalendar {
	if loc == nil {
		loc = time.UTC
	}
	return &StoreCalendar{
		store:    s,
		location: loc,
		linkBase: strings.TrimRight(instanceURL, "/") + "/api/v1/events/",
	}
}

func (c *StoreCalendar) ListUpcoming(ctx context.Context, since time.Time, max int) ([]Event, error) {
	if max <= 0 {
		return nil, nil
	}
	endAfter := since.Unix()
	list, err := c.store.ListEvents(ctx, &store.FindEvent{EndAfter: &endAfter, Limit: &max})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}

	events := make([]Event, 0, len(list))
	for _, e := range list {
		events = append(events, c.convert(e))
	}
	return events, nil
}

func (c *StoreCalendar) Create(ctx context.Context, event NewEvent) (EventRef, error) {
	if !event.Start.Before(event.End) {
		return EventRef{}, aierrors.Validation("event must end after it starts")
	}
	source := event.Source
	if source == "" {
		source = store.EventSourceChat
	}

	created, err := c.store.CreateEvent(ctx, &store.Event{
		UID:         uuid.NewString(),
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartTs:     event.Start.Unix(),
		EndTs:       event.End.Unix(),
		Reminder:    event.Reminder,
		Source:      source,
	})
	if err != nil {
		return EventRef{}, errors.Wrap(err, "failed to create event")
	}
	return EventRef{ID: created.UID, Link: c.linkBase + created.UID}, nil
}

func (c *StoreCalendar) Delete(ctx context.Context, id string) error {
	err := c.store.DeleteEvent(ctx, &store.DeleteEvent{UID: id})
	if stderrors.Is(err, store.ErrEventNotFound) {
		return aierrors.NotFound("no event with id " + id)
	}
	if err != nil {
		return errors.Wrap(err, "failed to delete event")
	}
	return nil
}

// Get returns a single event by id.
func (c *StoreCalendar) Get(ctx context.Context, id string) (Event, error) {
	e, err := c.store.GetEvent(ctx, &store.FindEvent{UID: &id})
	if err != nil {
		return Event{}, errors.Wrap(err, "failed to get event")
	}
	if e == nil {
		return Event{}, aierrors.NotFound("no event with id " + id)
	}
	return c.convert(e), nil
}

func (c *StoreCalendar) convert(e *store.Event) Event {
	return Event{
		ID:          e.UID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Start:       e.StartTime(c.location),
		End:         e.EndTime(c.location),
		Link:        c.linkBase + e.UID,
	}
}
