package v1

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/timezone"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 250
	feedEventLimit    = 20
)

// eventGetter is implemented by calendars that can look up one event.
type eventGetter interface {
	Get(ctx context.Context, id string) (calendar.Event, error)
}

// ListEventsResponse is the body of GET /api/v1/events.
type ListEventsResponse struct {
	Events []calendar.Event `json:"events"`
}

// ListEvents returns upcoming events.
// GET /api/v1/events?limit=N
func (s *APIV1Service) ListEvents(c echo.Context) error {
	limit := defaultEventLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return errorJSON(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxEventLimit)
	}

	events, err := s.Calendar.ListUpcoming(c.Request().Context(), s.now(), limit)
	if err != nil {
		return s.errorFromAI(c, "failed to list events", err)
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return c.JSON(http.StatusOK, ListEventsResponse{Events: events})
}

// GetEvent returns one event.
// GET /api/v1/events/:id
func (s *APIV1Service) GetEvent(c echo.Context) error {
	id := c.Param("id")
	event, err := s.findEvent(c.Request().Context(), id)
	if err != nil {
		return s.errorFromAI(c, "failed to get event", err)
	}
	return c.JSON(http.StatusOK, event)
}

func (s *APIV1Service) findEvent(ctx context.Context, id string) (calendar.Event, error) {
	if g, ok := s.Calendar.(eventGetter); ok {
		return g.Get(ctx, id)
	}
	events, err := s.Calendar.ListUpcoming(ctx, s.now(), maxEventLimit)
	if err != nil {
		return calendar.Event{}, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return calendar.Event{}, aierrors.NotFound("event " + id + " not found")
}

// EventsFeed renders upcoming events as an Atom feed.
// GET /api/v1/events/feed
func (s *APIV1Service) EventsFeed(c echo.Context) error {
	now := s.now()
	events, err := s.Calendar.ListUpcoming(c.Request().Context(), now, feedEventLimit)
	if err != nil {
		return s.errorFromAI(c, "failed to list events", err)
	}

	base := strings.TrimSuffix(s.Profile.InstanceURL, "/")
	feed := &feeds.Feed{
		Title:       "RunDown upcoming events",
		Link:        &feeds.Link{Href: base + "/api/v1/events"},
		Description: "Upcoming calendar events",
		Created:     now,
	}
	for _, e := range events {
		link := e.Link
		if link == "" {
			link = base + "/api/v1/events/" + e.ID
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          e.ID,
			Title:       e.Title,
			Link:        &feeds.Link{Href: link},
			Description: feedDescription(e),
			Created:     e.Start,
		})
	}

	atom, err := feed.ToAtom()
	if err != nil {
		return s.errorFromAI(c, "failed to render feed", err)
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

func feedDescription(e calendar.Event) string {
	desc := timezone.FormatDayAt(e.Start)
	if e.Location != "" {
		desc += " @ " + e.Location
	}
	return desc
}
