// Package agent turns chat turns into calendar operations.
//
// A Dispatcher is stateless: the caller hands it the session state and gets
// the next state back. SessionDispatcher adds loading, saving and per-session
// serialization around it.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/rundown/plugin/ai"
	"github.com/hrygo/rundown/plugin/ai/aitime"
	"github.com/hrygo/rundown/plugin/ai/router"
	aischedule "github.com/hrygo/rundown/plugin/ai/schedule"
	"github.com/hrygo/rundown/plugin/ai/session"
	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/service/schedule"
)

const (
	// upcomingFetchLimit bounds the events fetched for duplicate checks.
	upcomingFetchLimit = 100

	// searchFetchLimit bounds the events fetched for listing and title search.
	// A listing that fills it reports a lower bound.
	searchFetchLimit = 1000

	// dayFetchLimit bounds the events fetched for one day's availability.
	dayFetchLimit = 250

	// listLimit is how many events a listing shows.
	listLimit = 8

	// removeCandidateLimit is how many matches an ambiguous remove shows.
	removeCandidateLimit = 5

	defaultTitle = "New Event"
)

// Effects records what a turn did besides replying.
type Effects struct {
	Intent  router.Intent
	Created []calendar.EventRef
	Deleted []string
	// Err is the failure the reply explains, if any.
	Err error
}

// Failed reports whether the turn hit an error.
func (e Effects) Failed() bool {
	return e.Err != nil
}

// turn is the per-message working set handed to a handler.
type turn struct {
	state   *session.State
	content string
	now     time.Time
	effects *Effects
}

func (t *turn) fail(err error) {
	t.effects.Err = err
}

type handler func(ctx context.Context, t *turn) string

// Dispatcher routes chat turns to command handlers.
type Dispatcher struct {
	calendar   calendar.Calendar
	mailbox    calendar.Mailbox
	completion ai.CompletionService
	extractor  *aischedule.Extractor
	resolver   *aitime.Resolver
	router     router.RouterService
	loc        *time.Location

	window schedule.WorkingWindow
	minGap time.Duration
	step   time.Duration

	handlers map[router.Intent]handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMailbox enables mail context in general answers.
func WithMailbox(m calendar.Mailbox) Option {
	return func(d *Dispatcher) { d.mailbox = m }
}

// WithWindow overrides the working window.
func WithWindow(w schedule.WorkingWindow) Option {
	return func(d *Dispatcher) { d.window = w }
}

// WithRouter overrides the command router.
func WithRouter(r router.RouterService) Option {
	return func(d *Dispatcher) { d.router = r }
}

// NewDispatcher creates a Dispatcher scheduling in loc. completion may be
// nil, in which case extraction falls back to defaults and general answers
// are unavailable.
func NewDispatcher(cal calendar.Calendar, completion ai.CompletionService, loc *time.Location, opts ...Option) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	extractor := aischedule.NewExtractor(completion)
	d := &Dispatcher{
		calendar:   cal,
		completion: completion,
		extractor:  extractor,
		resolver:   aitime.NewResolver(aitime.NewParser(loc), extractor),
		router:     router.NewService(),
		loc:        loc,
		window:     schedule.DefaultWindow,
		minGap:     schedule.DefaultMinGap,
		step:       schedule.DefaultStep,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.handlers = map[router.Intent]handler{
		router.IntentAdd:               d.handleAdd,
		router.IntentRemove:            d.handleRemove,
		router.IntentList:              d.handleList,
		router.IntentHelp:              d.handleHelp,
		router.IntentCheckAvailability: d.handleCheck,
		router.IntentSuggestTime:       d.handleSuggest,
		router.IntentConfirm:           d.handleConfirm,
		router.IntentDecline:           d.handleDecline,
		router.IntentGeneral:           d.handleGeneral,
	}
	return d
}

// Location returns the timezone the dispatcher schedules in.
func (d *Dispatcher) Location() *time.Location {
	return d.loc
}

// HandleMessage answers one chat turn. state is not modified; the returned
// state is what the caller should persist. It never fails: collaborator
// errors become an explanatory reply and are reported in Effects.Err.
func (d *Dispatcher) HandleMessage(ctx context.Context, state *session.State, text string, now time.Time) (string, *session.State, Effects) {
	next := state.Clone()
	if next == nil {
		next = session.NewState("")
	}
	now = now.In(d.loc)
	dropExpired(next, now)

	route := d.router.Route(text)
	effects := Effects{Intent: route.Intent}
	t := &turn{state: next, content: route.Content, now: now, effects: &effects}

	h, ok := d.handlers[route.Intent]
	if !ok {
		h = d.handleGeneral
	}
	reply := h(ctx, t)

	next.UpdatedAt = now
	if effects.Err != nil {
		slog.Warn("chat turn failed",
			"intent", route.Intent,
			"error", effects.Err)
	}
	return reply, next, effects
}

// dropExpired clears a suggestion older than the pending TTL.
func dropExpired(state *session.State, now time.Time) {
	if state.Pending != nil && now.Sub(state.Pending.CreatedAt) > pendingTTL {
		slog.Debug("dropping expired suggestion", "title", state.Pending.Title)
		state.Pending = nil
	}
}
