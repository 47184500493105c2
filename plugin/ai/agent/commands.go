package agent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	aierrors "github.com/hrygo/rundown/internal/errors"
	aischedule "github.com/hrygo/rundown/plugin/ai/schedule"
	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/service/schedule"
	"github.com/hrygo/rundown/store"
)

var gmailMessagePattern = regexp.MustCompile(`mail/u/\d+/#inbox/([a-zA-Z0-9]+)`)

func (d *Dispatcher) handleAdd(ctx context.Context, t *turn) string {
	if t.content == "" {
		return replyAddUsage
	}

	var fields aischedule.Fields
	intent, err := d.extractor.Extract(ctx, t.content, aischedule.AddSchema, t.now)
	if err != nil {
		slog.Info("add extraction failed, using defaults", "error", err)
	} else {
		fields = intent.Fields
	}

	title := aischedule.String(fields.Title)
	if title == "" {
		title = defaultTitle
	}
	res := d.resolver.ResolveExplicit(ctx, aischedule.String(fields.Date), t.now)
	if !res.Resolved() {
		res = d.resolver.Resolve(ctx, t.content, t.now)
	}
	slog.Debug("resolved add time", "tier", res.Tier.String(), "time", res.Time)

	location := aischedule.String(fields.Location)
	ref, err := d.calendar.Create(ctx, calendar.NewEvent{
		Title:       title,
		Description: addDescription(aischedule.String(fields.Details), location, gmailMessageID(t.content)),
		Location:    location,
		Start:       res.Time,
		End:         res.Time.Add(schedule.DefaultEventLength),
		Reminder:    true,
		Source:      store.EventSourceChat,
	})
	if err != nil {
		t.fail(err)
		return replyAddFailed
	}
	t.effects.Created = append(t.effects.Created, ref)
	return addedReply(title, res.Time, location, ref.Link)
}

func addDescription(details, location, emailID string) string {
	var b strings.Builder
	b.WriteString(descriptionHeader + "\n\n")
	if details != "" {
		b.WriteString("Details: " + details + "\n\n")
	}
	if location != "" {
		b.WriteString("Location: " + location + "\n\n")
	}
	if emailID != "" {
		b.WriteString("Email ID: " + emailID + "\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func gmailMessageID(text string) string {
	if m := gmailMessagePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func (d *Dispatcher) handleRemove(ctx context.Context, t *turn) string {
	query := t.content
	if query == "" {
		return replyRemoveUsage
	}

	// An exact id deletes directly; anything else is a title search.
	err := d.calendar.Delete(ctx, query)
	if err == nil {
		t.effects.Deleted = append(t.effects.Deleted, query)
		return replyDeletedByID
	}
	if !aierrors.IsCode(err, aierrors.ErrCodeNotFound) {
		t.fail(err)
		return failureReply("remove that event", err)
	}

	events, err := d.calendar.ListUpcoming(ctx, t.now, searchFetchLimit)
	if err != nil {
		t.fail(err)
		return failureReply("remove that event", err)
	}
	matches := matchTitle(events, query)

	switch len(matches) {
	case 0:
		return noMatchReply(query)
	case 1:
		ev := matches[0]
		if err := d.calendar.Delete(ctx, ev.ID); err != nil {
			t.fail(err)
			return failureReply("remove that event", err)
		}
		t.effects.Deleted = append(t.effects.Deleted, ev.ID)
		return deletedReply(ev.Title)
	default:
		return ambiguousRemoveReply(matches, d.loc, len(events) >= searchFetchLimit)
	}
}

// matchTitle returns events whose title contains query, ignoring case.
func matchTitle(events []calendar.Event, query string) []calendar.Event {
	q := strings.ToLower(query)
	var out []calendar.Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), q) {
			out = append(out, ev)
		}
	}
	return out
}

func (d *Dispatcher) handleList(ctx context.Context, t *turn) string {
	events, err := d.calendar.ListUpcoming(ctx, t.now, searchFetchLimit)
	if err != nil {
		t.fail(err)
		return failureReply("list your events", err)
	}
	if len(events) == 0 {
		return replyNoUpcoming
	}
	return listReply(events, d.loc, len(events) >= searchFetchLimit)
}

func (d *Dispatcher) handleHelp(_ context.Context, _ *turn) string {
	return helpText
}
