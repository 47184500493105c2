// Package ingest scans the mailbox on a schedule and turns actionable mail
// into calendar events.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/rundown/plugin/ai/agent"
	"github.com/hrygo/rundown/plugin/ai/timeout"
	"github.com/hrygo/rundown/server/service/calendar"
)

// DefaultSchedule runs ingestion every 50 minutes.
const DefaultSchedule = "@every 50m"

// Processor creates events from candidate text.
type Processor interface {
	ProcessCandidateEvent(ctx context.Context, text string, now time.Time) (agent.CandidateOutcome, error)
}

// Config tunes a Runner.
type Config struct {
	// Schedule is a cron spec; empty means DefaultSchedule.
	Schedule string
	// Lookback is how far back each run reads mail.
	Lookback time.Duration
	// Interests are lower-case keywords; mail matching none is ignored.
	// Empty accepts all mail.
	Interests []string
	// Concurrency bounds messages processed at once.
	Concurrency int
}

// Report summarizes one run.
type Report struct {
	Scanned    int `json:"scanned"`
	Uninterest int `json:"uninteresting"`
	Seen       int `json:"already_processed"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Runner is the ingestion driver.
type Runner struct {
	mailbox   calendar.Mailbox
	processor Processor
	cfg       Config
	now       func() time.Time

	// runMu serializes runs so the processed set is consistent.
	runMu     sync.Mutex
	mu        sync.Mutex
	processed map[string]struct{}
}

// NewRunner creates a Runner.
func NewRunner(mailbox calendar.Mailbox, processor Processor, cfg Config) *Runner {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 3 * 24 * time.Hour
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Runner{
		mailbox:   mailbox,
		processor: processor,
		cfg:       cfg,
		now:       time.Now,
		processed: make(map[string]struct{}),
	}
}

// WithClock replaces the clock.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes RunOnce on the cron schedule until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(r.cfg.Schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, timeout.IngestRunTimeout)
		defer cancel()
		if _, err := r.RunOnce(runCtx); err != nil {
			slog.Error("ingest run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid ingest schedule %q: %w", r.cfg.Schedule, err)
	}

	slog.Info("ingest runner started", "schedule", r.cfg.Schedule)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("ingest runner stopped")
	return nil
}

// RunOnce scans recent mail once. A message is remembered as processed once
// it is created or skipped; failures are retried on the next run.
func (r *Runner) RunOnce(ctx context.Context) (Report, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	now := r.now()
	msgs, err := r.mailbox.ListRecent(ctx, now.Add(-r.cfg.Lookback))
	if err != nil {
		return Report{}, fmt.Errorf("failed to list mail: %w", err)
	}

	var report Report
	report.Scanned = len(msgs)
	var todo []calendar.MailMessage
	for _, msg := range msgs {
		switch {
		case r.seen(msg.ID):
			report.Seen++
		case !MatchesInterests(msg, r.cfg.Interests):
			report.Uninterest++
		default:
			todo = append(todo, msg)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for _, msg := range todo {
		g.Go(func() error {
			out, err := r.processor.ProcessCandidateEvent(gctx, MessageText(msg), now)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				slog.Warn("failed to process message", "message_id", msg.ID, "error", err)
				return nil
			}
			r.markSeen(msg.ID)
			if out.Created {
				report.Created++
				slog.Info("ingested event", "message_id", msg.ID, "title", out.Title)
			} else {
				report.Skipped++
				slog.Debug("skipped message", "message_id", msg.ID, "reason", out.Skipped)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	slog.Info("ingest run complete",
		"scanned", report.Scanned,
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report, ctx.Err()
}

func (r *Runner) seen(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.processed[id]
	return ok
}

func (r *Runner) markSeen(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[id] = struct{}{}
}

// MatchesInterests reports whether subject or body contains any interest,
// ignoring case. No interests matches everything.
func MatchesInterests(msg calendar.MailMessage, interests []string) bool {
	if len(interests) == 0 {
		return true
	}
	text := strings.ToLower(msg.Subject + " " + msg.Body)
	for _, interest := range interests {
		if interest != "" && strings.Contains(text, strings.ToLower(interest)) {
			return true
		}
	}
	return false
}

// MessageText renders a message for extraction.
func MessageText(msg calendar.MailMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	if msg.From != "" {
		fmt.Fprintf(&b, "From: %s\n", msg.From)
	}
	b.WriteString("\n")
	b.WriteString(msg.Body)
	return b.String()
}
