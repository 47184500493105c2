package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/rundown/internal/errors"
	"github.com/hrygo/rundown/plugin/ai/router"
	"github.com/hrygo/rundown/plugin/ai/session"
	"github.com/hrygo/rundown/plugin/ai/timeout"
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is one answered chat turn.
type ChatResponse struct {
	SessionID string                     `json:"session_id"`
	Token     string                     `json:"token"`
	Reply     string                     `json:"reply"`
	ReplyHTML string                     `json:"reply_html,omitempty"`
	Intent    router.Intent              `json:"intent"`
	Pending   *session.PendingSuggestion `json:"pending,omitempty"`
}

// SendMessage answers one chat message. Without a bearer token a new
// session is started and its token returned.
// POST /api/v1/chat
func (s *APIV1Service) SendMessage(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, http.StatusBadRequest, "message is required")
	}
	if len(req.Message) > maxMessageLength {
		return errorJSON(c, http.StatusRequestEntityTooLarge, "message is too long")
	}

	now := s.now()
	sessionID, err := s.tokens.FromRequest(c.Request(), now)
	switch {
	case errors.Is(err, errNoToken):
		sessionID = NewSessionID()
	case err != nil:
		slog.Debug("rejected session token", "error", err)
		return errorJSON(c, http.StatusUnauthorized, "invalid session token")
	}

	ctx := c.Request().Context()
	release, err := s.acquireTurn(ctx)
	if err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, "request canceled")
	}
	defer release()

	resp, err := s.Chat.Handle(ctx, sessionID, req.Message)
	if err != nil {
		return s.errorFromAI(c, "chat turn failed", err)
	}

	token, err := s.tokens.Issue(sessionID, now)
	if err != nil {
		return s.errorFromAI(c, "failed to issue session token", err)
	}

	html, err := s.renderer.Render(resp.Reply)
	if err != nil {
		slog.Warn("failed to render reply", "session_id", sessionID, "error", err)
	}

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: resp.SessionID,
		Token:     token,
		Reply:     resp.Reply,
		ReplyHTML: html,
		Intent:    resp.Intent,
		Pending:   resp.Pending,
	})
}

// ResetSession forgets the caller's session state.
// DELETE /api/v1/chat/session
func (s *APIV1Service) ResetSession(c echo.Context) error {
	sessionID, err := s.tokens.FromRequest(c.Request(), s.now())
	if err != nil {
		return errorJSON(c, http.StatusUnauthorized, "session token required")
	}
	if err := s.Chat.Reset(c.Request().Context(), sessionID); err != nil {
		return s.errorFromAI(c, "failed to reset session", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// maxMessageLength bounds chat and ingest text.
const maxMessageLength = 16 * 1024

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// errorFromAI maps an error code to an HTTP status.
func (s *APIV1Service) errorFromAI(c echo.Context, msg string, err error) error {
	code := aierrors.GetCodeFromError(err, "")
	status := http.StatusInternalServerError
	switch code {
	case aierrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case aierrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case aierrors.ErrCodeCollaboratorUnavailable:
		status = http.StatusBadGateway
	case aierrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case aierrors.ErrCodeContextCanceled:
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		slog.Error(msg, "error", err, "error_code", code)
	}
	body := map[string]string{"error": truncate(err.Error(), timeout.MaxTruncateLength)}
	if code != "" {
		body["code"] = string(code)
	}
	return c.JSON(status, body)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
