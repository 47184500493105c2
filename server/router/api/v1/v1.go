package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/rundown/internal/observability"
	"github.com/hrygo/rundown/internal/profile"
	"github.com/hrygo/rundown/plugin/ai/agent"
	ratelimit "github.com/hrygo/rundown/server/middleware"
	"github.com/hrygo/rundown/server/runner/ingest"
	"github.com/hrygo/rundown/server/service/calendar"
)

// maxConcurrentTurns caps chat and ingest requests in flight. Each may wait
// on the completion service.
const maxConcurrentTurns = 8

// APIV1Service serves the JSON API under /api/v1.
type APIV1Service struct {
	Profile  *profile.Profile
	Chat     *agent.SessionDispatcher
	Calendar calendar.Calendar
	// Ingest is optional; nil disables POST /api/v1/ingest/run.
	Ingest  *ingest.Runner
	Metrics *observability.Metrics

	tokens      *sessionTokens
	renderer    *markdownRenderer
	limiter     *ratelimit.RateLimiter
	turnLimiter *semaphore.Weighted
	now         func() time.Time
}

// NewAPIV1Service creates the API service. cal is used for event reads and
// may be the unguarded backend.
func NewAPIV1Service(p *profile.Profile, chat *agent.SessionDispatcher, cal calendar.Calendar, runner *ingest.Runner) *APIV1Service {
	return &APIV1Service{
		Profile:     p,
		Chat:        chat,
		Calendar:    cal,
		Ingest:      runner,
		Metrics:     observability.GlobalMetrics(),
		tokens:      newSessionTokens(p.SessionSecret),
		renderer:    newMarkdownRenderer(),
		limiter:     ratelimit.NewRateLimiter(ratelimit.DefaultRateLimitConfig()),
		turnLimiter: semaphore.NewWeighted(maxConcurrentTurns),
		now:         time.Now,
	}
}

// RegisterRoutes mounts the API on e.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	limited := ratelimit.RateLimit(s.limiter, s.rateLimitKey)
	g.POST("/chat", s.SendMessage, limited)
	g.DELETE("/chat/session", s.ResetSession)
	g.POST("/ingest", s.IngestText, limited)
	g.POST("/ingest/run", s.RunIngest)

	g.GET("/events", s.ListEvents)
	g.GET("/events/feed", s.EventsFeed)
	g.GET("/events/:id", s.GetEvent)

	g.GET("/metrics", s.GetMetrics)
	g.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": s.Profile.Version})
	})
}

// RunLimiterSweeper drops idle rate-limit buckets until ctx is done.
func (s *APIV1Service) RunLimiterSweeper(ctx context.Context) {
	s.limiter.Run(ctx, 5*time.Minute)
}

// rateLimitKey keys by session when the bearer token is valid, else by client IP.
func (s *APIV1Service) rateLimitKey(c echo.Context) string {
	if sessionID, err := s.tokens.FromRequest(c.Request(), s.now()); err == nil && sessionID != "" {
		return "session:" + sessionID
	}
	return "ip:" + c.RealIP()
}

// acquireTurn waits for a slot; the returned func releases it.
func (s *APIV1Service) acquireTurn(ctx context.Context) (func(), error) {
	if err := s.turnLimiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { s.turnLimiter.Release(1) }, nil
}
