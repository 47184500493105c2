package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rundown/plugin/ai/cache"
)

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	store := NewSessionStoreWithClock(cache.NewService(cache.ConfigFor(time.Hour)), func() time.Time { return now })

	state, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, state.AwaitingConfirmation())

	state.Pending = &PendingSuggestion{
		Title:     "Coffee",
		Start:     now.Add(24 * time.Hour),
		End:       now.Add(25 * time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, loaded.AwaitingConfirmation())
	assert.Equal(t, "Coffee", loaded.Pending.Title)
	assert.Equal(t, time.Hour, loaded.Pending.Duration())
	assert.True(t, loaded.Pending.Start.Equal(state.Pending.Start))

	other, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.False(t, other.AwaitingConfirmation(), "sessions are isolated")

	require.NoError(t, store.Delete(ctx, "s1"))
	gone, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, gone.AwaitingConfirmation())
}

func TestSessionStore_StalePendingDropped(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	clock := now
	store := NewSessionStoreWithClock(cache.NewService(cache.ConfigFor(time.Hour)), func() time.Time { return clock })

	state := NewState("s1")
	state.Pending = &PendingSuggestion{Title: "Coffee", Start: now, End: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, store.Save(ctx, state))

	clock = now.Add(31 * time.Minute)
	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, loaded.AwaitingConfirmation())
}

func TestSessionStore_Validation(t *testing.T) {
	store := NewSessionStore(cache.NewService(cache.ConfigFor(time.Hour)))
	_, err := store.Load(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, store.Save(context.Background(), &State{}))
}

func TestState_Clone(t *testing.T) {
	s := &State{SessionID: "s", Pending: &PendingSuggestion{Title: "a"}}
	c := s.Clone()
	c.Pending.Title = "b"
	assert.Equal(t, "a", s.Pending.Title)
	assert.Nil(t, (*State)(nil).Clone())
}

func TestLocker_SerializesPerSession(t *testing.T) {
	l := NewLocker()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("s1")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Len(), "idle locks are released")
}

func TestLocker_IndependentSessions(t *testing.T) {
	l := NewLocker()
	unlockA := l.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		unlock() // second call is a no-op
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another session blocked")
	}
}
