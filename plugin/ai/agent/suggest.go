package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	aischedule "github.com/hrygo/rundown/plugin/ai/schedule"
	"github.com/hrygo/rundown/plugin/ai/session"
	"github.com/hrygo/rundown/plugin/ai/timeout"
	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/service/schedule"
	"github.com/hrygo/rundown/server/timezone"
	"github.com/hrygo/rundown/store"
)

const pendingTTL = timeout.PendingSuggestionTTL

// dayBusy fetches the events that can overlap day's working window.
func (d *Dispatcher) dayBusy(ctx context.Context, day time.Time) ([]schedule.BusyEvent, error) {
	events, err := d.calendar.ListUpcoming(ctx, timezone.StartOfDay(day), dayFetchLimit)
	if err != nil {
		return nil, err
	}
	return calendar.BusyEvents(events), nil
}

func (d *Dispatcher) handleCheck(ctx context.Context, t *turn) string {
	if t.content == "" {
		return replyCheckUsage
	}
	res := d.resolver.Resolve(ctx, t.content, t.now)
	day := res.Time

	busy, err := d.dayBusy(ctx, day)
	if err != nil {
		t.fail(err)
		return failureReply("check your availability", err)
	}
	booked := schedule.EventsOn(busy, day, d.window)
	free := schedule.FreeSlots(busy, day, d.window, d.minGap)
	slog.Debug("computed availability",
		"day", day.Format("2006-01-02"),
		"tier", res.Tier.String(),
		"booked", len(booked),
		"free", len(free))
	return availabilityReply(day, d.window, booked, free)
}

func (d *Dispatcher) handleSuggest(ctx context.Context, t *turn) string {
	if t.content == "" {
		return replySuggestUsage
	}

	var fields aischedule.Fields
	intent, err := d.extractor.Extract(ctx, t.content, aischedule.SuggestSchema, t.now)
	if err != nil {
		slog.Info("suggest extraction failed, using defaults", "error", err)
	} else {
		fields = intent.Fields
	}

	title := aischedule.String(fields.Title)
	if title == "" {
		title = defaultTitle
	}

	duration := schedule.DefaultDuration
	if fields.Duration != nil {
		duration = time.Duration(*fields.Duration) * time.Minute
		if err := schedule.ValidateDuration(duration, d.window); err != nil {
			t.fail(err)
			return fmt.Sprintf(replyBadDurationHint, int(d.window.Length()/time.Minute))
		}
	}

	pref, err := schedule.ParsePreference(aischedule.String(fields.Preference))
	if err != nil {
		slog.Info("ignoring time preference", "error", err)
		pref = schedule.PreferenceNone
	}

	target := aischedule.String(fields.TargetDate)
	if target == "" {
		target = t.content
	}
	day := d.resolver.Resolve(ctx, target, t.now).Time

	busy, err := d.dayBusy(ctx, day)
	if err != nil {
		t.fail(err)
		return failureReply("suggest a time", err)
	}
	free := schedule.FreeSlots(busy, day, d.window, d.minGap)
	candidates := notBefore(schedule.Candidates(free, duration, pref, d.step), t.now)

	best, ok := schedule.Recommend(candidates)
	if !ok {
		return noSlotReply(title, duration, day)
	}

	t.state.Pending = &session.PendingSuggestion{
		Title:     title,
		Start:     best.Start,
		End:       best.End,
		CreatedAt: t.now,
	}
	return suggestionReply(title, best)
}

// notBefore drops candidates that start before now.
func notBefore(candidates []schedule.CandidateSlot, now time.Time) []schedule.CandidateSlot {
	out := candidates[:0:0]
	for _, c := range candidates {
		if !c.Start.Before(now) {
			out = append(out, c)
		}
	}
	return out
}

func (d *Dispatcher) handleConfirm(ctx context.Context, t *turn) string {
	if !t.state.AwaitingConfirmation() {
		return replyNothingPending
	}
	pending := *t.state.Pending
	t.state.Pending = nil

	ref, err := d.calendar.Create(ctx, calendar.NewEvent{
		Title:       pending.Title,
		Description: descriptionHeader + "\n\nScheduled on " + t.now.Format("2006-01-02 15:04:05"),
		Start:       pending.Start,
		End:         pending.End,
		Reminder:    true,
		Source:      store.EventSourceChat,
	})
	if err != nil {
		t.fail(err)
		return failureReply("add the event to your calendar", err)
	}
	t.effects.Created = append(t.effects.Created, ref)
	return confirmedReply(pending.Title, pending.Start.In(d.loc), ref.Link)
}

func (d *Dispatcher) handleDecline(_ context.Context, t *turn) string {
	if !t.state.AwaitingConfirmation() {
		return replyNothingPending
	}
	t.state.Pending = nil
	return replyDeclined
}
