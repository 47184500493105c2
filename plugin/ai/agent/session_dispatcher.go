package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/internal/observability"
	"github.com/hrygo/rundown/plugin/ai/router"
	"github.com/hrygo/rundown/plugin/ai/session"
)

// Response is one answered turn.
type Response struct {
	SessionID string                     `json:"session_id"`
	Reply     string                     `json:"reply"`
	Intent    router.Intent              `json:"intent"`
	Pending   *session.PendingSuggestion `json:"pending,omitempty"`
	Effects   Effects                    `json:"-"`
}

// SessionDispatcher runs a Dispatcher against persisted session state.
// Turns of one session are serialized; different sessions run concurrently.
type SessionDispatcher struct {
	dispatcher *Dispatcher
	sessions   session.SessionService
	locker     *session.Locker
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewSessionDispatcher creates a SessionDispatcher recording into
// observability.GlobalMetrics.
func NewSessionDispatcher(d *Dispatcher, sessions session.SessionService) *SessionDispatcher {
	return &SessionDispatcher{
		dispatcher: d,
		sessions:   sessions,
		locker:     session.NewLocker(),
		metrics:    observability.GlobalMetrics(),
		now:        time.Now,
	}
}

// WithMetrics replaces the metrics sink.
func (s *SessionDispatcher) WithMetrics(m *observability.Metrics) *SessionDispatcher {
	s.metrics = m
	return s
}

// WithClock replaces the clock.
func (s *SessionDispatcher) WithClock(now func() time.Time) *SessionDispatcher {
	s.now = now
	return s
}

// Handle answers text within sessionID. Errors are limited to session
// storage failures; everything else is in the reply.
func (s *SessionDispatcher) Handle(ctx context.Context, sessionID, text string) (*Response, error) {
	if sessionID == "" {
		return nil, aierrors.Validation("session id is required")
	}
	reqCtx := observability.FromContextOrNew(ctx, sessionID)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	start := time.Now()
	reply, next, effects := s.dispatcher.HandleMessage(ctx, state, text, s.now())
	next.SessionID = sessionID
	elapsed := time.Since(start)

	command := string(effects.Intent)
	reqCtx.SetCommand(command)
	s.metrics.RecordRequest(command)
	s.metrics.RecordDuration(command, elapsed)
	for range effects.Created {
		s.metrics.RecordEventCreated()
	}

	if effects.Failed() {
		s.metrics.RecordFailure(command)
		reqCtx.Warn("turn failed",
			slog.String(observability.LogFieldErrorCode, string(aierrors.GetCodeFromError(effects.Err, aierrors.ErrCodeCollaboratorUnavailable))),
			slog.String("error", effects.Err.Error()))
	}
	reqCtx.Info("turn handled",
		slog.Int(observability.LogFieldMessageLen, len(text)),
		slog.Int64(observability.LogFieldDuration, elapsed.Milliseconds()),
		slog.Int("created", len(effects.Created)),
		slog.Int("deleted", len(effects.Deleted)),
		slog.Bool("pending", next.AwaitingConfirmation()))

	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &Response{
		SessionID: sessionID,
		Reply:     reply,
		Intent:    effects.Intent,
		Pending:   next.Pending,
		Effects:   effects,
	}, nil
}

// Reset drops a session's state.
func (s *SessionDispatcher) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locker.Lock(sessionID)
	defer unlock()
	return s.sessions.Delete(ctx, sessionID)
}

// Dispatcher returns the underlying dispatcher.
func (s *SessionDispatcher) Dispatcher() *Dispatcher {
	return s.dispatcher
}
