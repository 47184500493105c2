package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/rundown/internal/profile"
	"github.com/hrygo/rundown/plugin/ai"
	"github.com/hrygo/rundown/plugin/ai/agent"
	"github.com/hrygo/rundown/plugin/ai/cache"
	"github.com/hrygo/rundown/plugin/ai/session"
	"github.com/hrygo/rundown/plugin/ai/timeout"
	"github.com/hrygo/rundown/plugin/ical"
	"github.com/hrygo/rundown/plugin/mailbox"
	"github.com/hrygo/rundown/server/runner/ingest"
	"github.com/hrygo/rundown/server/service/calendar"
	"github.com/hrygo/rundown/server/timezone"
	"github.com/hrygo/rundown/store"
	"github.com/hrygo/rundown/store/db"
)

// app holds the wired collaborators shared by all commands.
type app struct {
	profile *profile.Profile
	loc     *time.Location

	store    *store.Store
	backend  calendar.Calendar
	mailbox  calendar.Mailbox
	cache    *cache.Service
	agent    *agent.Dispatcher
	chat     *agent.SessionDispatcher
	ingester *ingest.Runner
}

func newApp(ctx context.Context, p *profile.Profile) (*app, error) {
	loc, err := timezone.Load(p.Timezone)
	if err != nil {
		return nil, err
	}
	a := &app{profile: p, loc: loc}

	switch p.Calendar {
	case profile.CalendarICS:
		a.backend = ical.NewCalendar(p.ICSPath, loc, p.InstanceURL)
		slog.Info("using ics calendar", "path", p.ICSPath)
	default:
		driver, err := db.NewDBDriver(p)
		if err != nil {
			return nil, err
		}
		a.store = store.New(driver, p)
		if err := a.store.Migrate(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		a.backend = calendar.NewStoreCalendar(a.store, loc, p.InstanceURL)
		slog.Info("using store calendar", "driver", p.Driver)
	}

	opts := []agent.Option{}
	if p.MailboxPath != "" {
		a.mailbox = calendar.MailboxWithTimeout(mailbox.New(p.MailboxPath), timeout.MailTimeout)
		opts = append(opts, agent.WithMailbox(a.mailbox))
	}

	var completion ai.CompletionService
	if p.IsLLMEnabled() {
		completion, err = ai.NewCompletionService(ai.NewLLMConfigFromProfile(p))
		if err != nil {
			slog.Warn("completion service disabled", "error", err)
			completion = nil
		}
	} else {
		slog.Warn("no completion backend configured; extraction falls back to defaults")
	}

	a.agent = agent.NewDispatcher(calendar.WithTimeout(a.backend, timeout.CalendarTimeout), completion, loc, opts...)
	a.cache = cache.NewService(cache.ConfigFor(timeout.SessionTTL))
	a.chat = agent.NewSessionDispatcher(a.agent, session.NewSessionStore(a.cache))

	if a.mailbox != nil {
		a.ingester = ingest.NewRunner(a.mailbox, a.agent, ingest.Config{
			Schedule:  p.IngestSchedule,
			Lookback:  time.Duration(p.IngestDays) * 24 * time.Hour,
			Interests: p.Interests,
		})
	}
	return a, nil
}

// Close releases the database, if any.
func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("failed to close store", "error", err)
	}
}
