// Package ical is a Calendar backed by a single iCalendar (.ics) file.
package ical

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/server/service/calendar"
)

const productID = "-//RunDown//Scheduling Assistant//EN"

// reminderTrigger is the alarm attached to events created with a reminder.
const reminderTrigger = "-PT10M"

// Calendar reads and rewrites one .ics file. Every write replaces the file
// atomically; concurrent callers in this process are serialized.
type Calendar struct {
	path     string
	location *time.Location
	linkBase string

	mu  sync.Mutex
	now func() time.Time
}

// NewCalendar creates a Calendar on path. The file is created on first write.
func NewCalendar(path string, loc *time.Location, instanceURL string) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{
		path:     path,
		location: loc,
		linkBase: strings.TrimRight(instanceURL, "/") + "/api/v1/events/",
		now:      time.Now,
	}
}

func (c *Calendar) ListUpcoming(ctx context.Context, since time.Time, max int) ([]calendar.Event, error) {
	if max <= 0 {
		return nil, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	events, err := c.readEvents(ctx)
	if err != nil {
		return nil, err
	}
	var out []calendar.Event
	for _, e := range events {
		if e.End.After(since) {
			out = append(out, e)
		}
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (c *Calendar) Create(ctx context.Context, event calendar.NewEvent) (calendar.EventRef, error) {
	if !event.Start.Before(event.End) {
		return calendar.EventRef{}, aierrors.Validation("event must end after it starts")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load(ctx)
	if err != nil {
		return calendar.EventRef{}, err
	}

	id := uuid.NewString()
	ve := cal.AddEvent(id)
	ve.SetDtStampTime(c.now().UTC())
	ve.SetSummary(event.Title)
	ve.SetStartAt(event.Start.UTC())
	ve.SetEndAt(event.End.UTC())
	if event.Description != "" {
		ve.SetDescription(event.Description)
	}
	if event.Location != "" {
		ve.SetLocation(event.Location)
	}
	if event.Reminder {
		alarm := ve.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(reminderTrigger)
	}

	if err := c.save(cal); err != nil {
		return calendar.EventRef{}, err
	}
	return calendar.EventRef{ID: id, Link: c.linkBase + id}, nil
}

func (c *Calendar) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cal, err := c.load(ctx)
	if err != nil {
		return err
	}

	// Rebuild without the target so other components survive untouched.
	out := newCalendar()
	found := false
	for _, comp := range cal.Components {
		if ve, ok := comp.(*ics.VEvent); ok && eventUID(ve) == id {
			found = true
			continue
		}
		out.Components = append(out.Components, comp)
	}
	if !found {
		return aierrors.NotFound("no event with id " + id)
	}
	return c.save(out)
}

// Get returns a single event by id.
func (c *Calendar) Get(ctx context.Context, id string) (calendar.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	events, err := c.readEvents(ctx)
	if err != nil {
		return calendar.Event{}, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return calendar.Event{}, aierrors.NotFound("no event with id " + id)
}

// readEvents must be called with the lock held.
func (c *Calendar) readEvents(ctx context.Context) ([]calendar.Event, error) {
	cal, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]calendar.Event, 0)
	for _, ve := range cal.Events() {
		e, err := c.convert(ve)
		if err != nil {
			slog.Warn("skipping unreadable vevent", "path", c.path, "uid", eventUID(ve), "error", err)
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Start.Equal(events[j].Start) {
			return events[i].End.Before(events[j].End)
		}
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func (c *Calendar) convert(ve *ics.VEvent) (calendar.Event, error) {
	id := eventUID(ve)
	if id == "" {
		return calendar.Event{}, errors.New("missing UID")
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "bad DTSTART")
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start.Add(time.Hour)
	}

	e := calendar.Event{
		ID:    id,
		Start: start.In(c.location),
		End:   end.In(c.location),
		Link:  c.linkBase + id,
	}
	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil {
		e.Title = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
		e.Description = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyLocation); p != nil {
		e.Location = p.Value
	}
	return e, nil
}

func (c *Calendar) load(ctx context.Context) (*ics.Calendar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(c.path)
	if os.IsNotExist(err) || (err == nil && len(bytes.TrimSpace(body)) == 0) {
		return newCalendar(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", c.path)
	}
	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", c.path)
	}
	return cal, nil
}

func (c *Calendar) save(cal *ics.Calendar) error {
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".rundown-*.ics")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(cal.Serialize()); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write calendar")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close calendar")
	}
	return errors.Wrap(os.Rename(tmp.Name(), c.path), "failed to replace calendar")
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	return cal
}

func eventUID(ve *ics.VEvent) string {
	if p := ve.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		return p.Value
	}
	return ""
}

var _ calendar.Calendar = (*Calendar)(nil)
