package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/rundown/plugin/ai/agent"
	"github.com/hrygo/rundown/plugin/ai/timeout"
	"github.com/hrygo/rundown/server/runner/ingest"
)

// IngestRequest is the body of POST /api/v1/ingest.
type IngestRequest struct {
	Text string `json:"text"`
}

// IngestText turns one piece of text, typically a forwarded email, into an
// event when it carries an actionable task.
// POST /api/v1/ingest
func (s *APIV1Service) IngestText(c echo.Context) error {
	var req IngestRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, http.StatusBadRequest, "text is required")
	}
	if len(req.Text) > maxMessageLength {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "text is too long")
	}

	ctx := c.Request().Context()
	release, err := s.acquireTurn(ctx)
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, "request canceled")
	}
	defer release()

	outcome, err := s.Chat.Dispatcher().ProcessCandidateEvent(ctx, req.Text, s.now())
	if err != nil {
		return s.errorFromAI(c, "failed to ingest text", err)
	}
	if outcome.Created {
		s.Metrics.RecordEventCreated()
	}
	return c.JSON(http.StatusOK, outcome)
}

// RunIngest scans the mailbox once.
// POST /api/v1/ingest/run
func (s *APIV1Service) RunIngest(c echo.Context) error {
	if s.Ingest == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "mailbox ingestion is not configured")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout.IngestRunTimeout)
	defer cancel()

	report, err := s.Ingest.RunOnce(ctx)
	if err != nil {
		return s.errorFromAI(c, "ingest run failed", err)
	}
	return c.JSON(http.StatusOK, report)
}

var _ ingest.Processor = (*agent.Dispatcher)(nil)
