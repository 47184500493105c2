package calendar

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

// guardedCalendar bounds every call by a timeout and maps backend failures
// to COLLABORATOR_UNAVAILABLE. NOT_FOUND and VALIDATION pass through.
type guardedCalendar struct {
	next    Calendar
	timeout time.Duration
}

// WithTimeout wraps c so each call is bounded by d.
func WithTimeout(c Calendar, d time.Duration) Calendar {
	return &guardedCalendar{next: c, timeout: d}
}

func (g *guardedCalendar) ListUpcoming(ctx context.Context, since time.Time, max int) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	events, err := g.next.ListUpcoming(ctx, since, max)
	return events, classify("calendar", "list", err)
}

func (g *guardedCalendar) Create(ctx context.Context, event NewEvent) (EventRef, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ref, err := g.next.Create(ctx, event)
	return ref, classify("calendar", "create", err)
}

func (g *guardedCalendar) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return classify("calendar", "delete", g.next.Delete(ctx, id))
}

type guardedMailbox struct {
	next    Mailbox
	timeout time.Duration
}

// MailboxWithTimeout wraps m so each call is bounded by d.
func MailboxWithTimeout(m Mailbox, d time.Duration) Mailbox {
	return &guardedMailbox{next: m, timeout: d}
}

func (g *guardedMailbox) ListRecent(ctx context.Context, since time.Time) ([]MailMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	messages, err := g.next.ListRecent(ctx, since)
	return messages, classify("mailbox", "list", err)
}

func classify(collaborator, op string, err error) error {
	if err == nil {
		return nil
	}
	var aiErr *aierrors.AIError
	if stderrors.As(err, &aiErr) {
		switch aiErr.Code {
		case aierrors.ErrCodeNotFound, aierrors.ErrCodeValidation, aierrors.ErrCodeCollaboratorUnavailable:
			return err
		}
	}

	slog.Warn("collaborator call failed",
		"collaborator", collaborator,
		"op", op,
		"error", err)
	if ctxErr := aierrors.FromContextErr(err); ctxErr != nil {
		return aierrors.CollaboratorUnavailable(collaborator, ctxErr)
	}
	return aierrors.CollaboratorUnavailable(collaborator, err)
}
