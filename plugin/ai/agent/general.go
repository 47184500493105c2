package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/rundown/plugin/ai/timeout"
	"github.com/hrygo/rundown/server/timezone"
)

const (
	// mailContextTrigger switches the answer context from calendar to mail.
	mailContextTrigger = "@email"

	mailLookback      = 7 * 24 * time.Hour
	contextEventLimit = 10
	contextMailLimit  = 10
)

const generalPromptTemplate = `You are an AI assistant for RunDown, a task management application. You have access to the following information:

%s
The user can use the following commands:
- @add [event details] - Add an event to calendar (e.g., "@add Meeting with John tomorrow at 3pm")
- @remove [event ID or description] - Remove an event from calendar
- @list - List upcoming events
- @check [date] - Check availability on a date
- @suggest [event description] - Suggest a free time for an event
- @help - Show available commands

Refer to the above details and answer the upcoming questions. Prefer a concise answer.
If the user is asking about adding or removing events, suggest using the appropriate command.

Current time: %s

User Query: %s`

// handleGeneral answers free text with read-only calendar or mail context.
// The pending suggestion, if any, is left in place.
func (d *Dispatcher) handleGeneral(ctx context.Context, t *turn) string {
	if d.completion == nil {
		return replyGeneralFailed
	}

	prompt := fmt.Sprintf(generalPromptTemplate,
		d.answerContext(ctx, t),
		t.now.Format("2006-01-02 15:04 (Monday)"),
		t.content)

	ctx, cancel := context.WithTimeout(ctx, timeout.CompletionTimeout)
	defer cancel()
	answer, err := d.completion.Complete(ctx, prompt)
	if err != nil {
		t.fail(err)
		return replyGeneralFailed
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		slog.Warn("empty general answer", "query_len", len(t.content))
		return replyGeneralFailed
	}
	return answer
}

// answerContext renders the relevant data block. Lookup failures leave it empty.
func (d *Dispatcher) answerContext(ctx context.Context, t *turn) string {
	if strings.Contains(strings.ToLower(t.content), mailContextTrigger) && d.mailbox != nil {
		msgs, err := d.mailbox.ListRecent(ctx, t.now.Add(-mailLookback))
		if err != nil {
			slog.Warn("failed to load mail context", "error", err)
			return ""
		}
		if len(msgs) == 0 {
			return ""
		}
		var b strings.Builder
		b.WriteString("**Relevant Data:** recent emails\n")
		for i, m := range msgs {
			if i == contextMailLimit {
				break
			}
			fmt.Fprintf(&b, "- %s (%s)\n", m.Subject, m.ReceivedAt.In(d.loc).Format("Jan 02"))
		}
		return b.String()
	}

	events, err := d.calendar.ListUpcoming(ctx, t.now, contextEventLimit)
	if err != nil {
		slog.Warn("failed to load calendar context", "error", err)
		return ""
	}
	if len(events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**Relevant Data:** upcoming events\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "- %s: %s\n", ev.Title, timezone.FormatListing(ev.Start.In(d.loc)))
	}
	return b.String()
}
