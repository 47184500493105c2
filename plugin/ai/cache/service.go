package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	defaultMaxEntries = 10000
	minSweepEvery     = time.Second
)

// Config sizes a Service.
type Config struct {
	// MaxEntries bounds the live entries. The least recently used goes first.
	MaxEntries int
	// EntryTTL applies to a Set without its own ttl.
	EntryTTL time.Duration
	// SweepEvery is how often Run drops expired entries.
	SweepEvery time.Duration
}

// ConfigFor sizes a cache whose entries idle out after ttl. Run sweeps four
// times per ttl so an abandoned entry is reclaimed soon after it expires.
func ConfigFor(ttl time.Duration) Config {
	return Config{
		MaxEntries: defaultMaxEntries,
		EntryTTL:   ttl,
		SweepEvery: max(ttl/4, minSweepEvery),
	}
}

// Stats counts lookups and reclaimed entries since the Service was created.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Swept   int64 `json:"swept"`
}

// Service is a CacheService backed by an LRUCache.
// Expired entries are invisible to Get; Run reclaims their memory.
type Service struct {
	lru        *LRUCache
	sweepEvery time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	swept  atomic.Int64
}

func NewService(cfg Config) *Service {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.SweepEvery < minSweepEvery {
		cfg.SweepEvery = minSweepEvery
	}
	return &Service{
		lru:        NewLRUCache(cfg.MaxEntries, cfg.EntryTTL),
		sweepEvery: cfg.SweepEvery,
	}
}

// WithClock replaces the clock used for expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.lru.WithClock(now)
	return s
}

func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := s.lru.Get(key)
	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return v, ok
}

func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

func (s *Service) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}

func (s *Service) Stats() Stats {
	return Stats{
		Entries: s.lru.Len(),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Swept:   s.swept.Load(),
	}
}

// Sweep drops expired entries now and returns how many went.
func (s *Service) Sweep() int {
	n := s.lru.CleanupExpired()
	s.swept.Add(int64(n))
	return n
}

// Run sweeps on the configured interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("swept expired cache entries", "removed", n, "remaining", s.lru.Len())
			}
		}
	}
}

var _ CacheService = (*Service)(nil)
