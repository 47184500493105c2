// Package aitime resolves natural-language date/time phrases into absolute
// timestamps through an ordered ladder of resolution tiers.
package aitime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Tier identifies which resolution stage produced a timestamp.
type Tier int

const (
	// TierNone marks an unresolved phrase.
	TierNone Tier = iota
	// TierStrict is the exact "YYYY-MM-DD HH:MM" layout.
	TierStrict
	// TierLenient is the free-form English parser.
	TierLenient
	// TierExtracted is a date phrase pulled from prose by the completion service.
	TierExtracted
	// TierDefault is tomorrow at 09:00.
	TierDefault
)

func (t Tier) String() string {
	switch t {
	case TierStrict:
		return "strict"
	case TierLenient:
		return "lenient"
	case TierExtracted:
		return "extracted"
	case TierDefault:
		return "default"
	default:
		return "none"
	}
}

// Result is the outcome of a resolution. A zero Result is unresolved.
type Result struct {
	Time time.Time
	Tier Tier
}

// Resolved reports whether any tier produced a timestamp.
func (r Result) Resolved() bool {
	return r.Tier != TierNone
}

// DateExtractor pulls a date phrase out of free prose.
// Implementations return an empty phrase when the prose carries no date.
type DateExtractor interface {
	ExtractDate(ctx context.Context, text string, now time.Time) (string, error)
}

const (
	// proseMinWords is the word count at which text counts as prose
	// rather than a bare date fragment, making the extraction tier eligible.
	proseMinWords = 5

	maxPast   = 24 * time.Hour
	maxFuture = 5 * 365 * 24 * time.Hour
)

type tierFunc func(ctx context.Context, text string, now time.Time) (time.Time, bool)

// Resolver runs the tier ladder. It is safe for concurrent use.
type Resolver struct {
	parser    *Parser
	extractor DateExtractor
	tiers     []tier
}

type tier struct {
	id Tier
	fn tierFunc
}

// NewResolver creates a resolver. extractor may be nil, which disables the
// extraction tier.
func NewResolver(parser *Parser, extractor DateExtractor) *Resolver {
	r := &Resolver{parser: parser, extractor: extractor}
	r.tiers = []tier{
		{TierStrict, r.strict},
		{TierLenient, r.lenient},
		{TierExtracted, r.extracted},
	}
	return r
}

// Location returns the resolver's timezone.
func (r *Resolver) Location() *time.Location {
	return r.parser.Location()
}

// Resolve runs every tier in order and falls back to tomorrow at 09:00.
// It never returns an unresolved result.
func (r *Resolver) Resolve(ctx context.Context, text string, now time.Time) Result {
	if res := r.ResolveExplicit(ctx, text, now); res.Resolved() {
		return res
	}
	return Result{Time: DefaultTime(now.In(r.Location())), Tier: TierDefault}
}

// ResolveExplicit runs the strict, lenient and extraction tiers only.
// Empty text is unresolved without consulting any tier.
func (r *Resolver) ResolveExplicit(ctx context.Context, text string, now time.Time) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}
	}
	now = now.In(r.Location())

	for _, t := range r.tiers {
		ts, ok := r.runTier(ctx, t, text, now)
		if !ok {
			continue
		}
		if !inRange(ts, now) {
			slog.Debug("resolved time out of range",
				"tier", t.id.String(),
				"text", text,
				"time", ts.Format(StrictLayout))
			continue
		}
		return Result{Time: ts, Tier: t.id}
	}
	return Result{}
}

// runTier isolates a tier so a panic inside a parser counts as tier failure.
func (r *Resolver) runTier(ctx context.Context, t tier, text string, now time.Time) (ts time.Time, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("time resolution tier panicked",
				"tier", t.id.String(),
				"panic", fmt.Sprint(rec))
			ts, ok = time.Time{}, false
		}
	}()
	return t.fn(ctx, text, now)
}

func (r *Resolver) strict(_ context.Context, text string, _ time.Time) (time.Time, bool) {
	ts, err := r.parser.ParseStrict(text)
	return ts, err == nil
}

func (r *Resolver) lenient(_ context.Context, text string, now time.Time) (time.Time, bool) {
	ts, err := r.parser.Parse(text, now)
	return ts, err == nil
}

func (r *Resolver) extracted(ctx context.Context, text string, now time.Time) (time.Time, bool) {
	if r.extractor == nil || !isProse(text) {
		return time.Time{}, false
	}
	phrase, err := r.extractor.ExtractDate(ctx, text, now)
	if err != nil {
		slog.Debug("date extraction failed", "error", err)
		return time.Time{}, false
	}
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, false
	}
	if ts, err := r.parser.ParseStrict(phrase); err == nil {
		return ts, true
	}
	ts, err := r.parser.Parse(phrase, now)
	return ts, err == nil
}

// DefaultTime is tomorrow at 09:00 in now's location.
func DefaultTime(now time.Time) time.Time {
	tomorrow := now.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), DefaultHour, 0, 0, 0, now.Location())
}

func isProse(text string) bool {
	return len(strings.Fields(text)) >= proseMinWords
}

func inRange(ts, now time.Time) bool {
	return !ts.Before(now.Add(-maxPast)) && !ts.After(now.Add(maxFuture))
}
