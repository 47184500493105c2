package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/rundown/plugin/ai/cache"
	"github.com/hrygo/rundown/plugin/ai/timeout"
)

const cachePrefix = "session:"

// sessionStore implements SessionService on a CacheService.
type sessionStore struct {
	cache      cache.CacheService
	ttl        time.Duration
	pendingTTL time.Duration
	now        func() time.Time
}

// NewSessionStore creates a cache-backed session store. Sessions expire after
// timeout.SessionTTL of inactivity; a pending suggestion older than
// timeout.PendingSuggestionTTL is dropped on load.
func NewSessionStore(c cache.CacheService) SessionService {
	return &sessionStore{
		cache:      c,
		ttl:        timeout.SessionTTL,
		pendingTTL: timeout.PendingSuggestionTTL,
		now:        time.Now,
	}
}

// NewSessionStoreWithClock is NewSessionStore with an injected clock.
func NewSessionStoreWithClock(c cache.CacheService, now func() time.Time) SessionService {
	s := NewSessionStore(c).(*sessionStore)
	s.now = now
	return s
}

func (s *sessionStore) Load(ctx context.Context, sessionID string) (*State, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}

	data, ok := s.cache.Get(ctx, cachePrefix+sessionID)
	if !ok {
		return NewState(sessionID), nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt entry is treated as a fresh session rather than failing the turn.
		slog.Warn("failed to unmarshal session state", "session_id", sessionID, "error", err)
		return NewState(sessionID), nil
	}
	state.SessionID = sessionID

	if state.Pending != nil && s.now().Sub(state.Pending.CreatedAt) > s.pendingTTL {
		slog.Debug("dropping stale pending suggestion",
			"session_id", sessionID,
			"title", state.Pending.Title)
		state.Pending = nil
	}
	return &state, nil
}

func (s *sessionStore) Save(ctx context.Context, state *State) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session state requires a session id")
	}
	state.UpdatedAt = s.now()

	data, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session state")
	}
	return s.cache.Set(ctx, cachePrefix+state.SessionID, data, s.ttl)
}

func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.cache.Delete(ctx, cachePrefix+sessionID)
}
