package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/rundown/internal/observability"
	"github.com/hrygo/rundown/internal/profile"
	"github.com/hrygo/rundown/plugin/ai/agent"
	"github.com/hrygo/rundown/plugin/ai/cache"
	"github.com/hrygo/rundown/plugin/ai/router"
	"github.com/hrygo/rundown/plugin/ai/session"
	"github.com/hrygo/rundown/server/runner/ingest"
	"github.com/hrygo/rundown/server/service/calendar"
)

var testNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

type testServer struct {
	e       *echo.Echo
	svc     *APIV1Service
	cal     *calendar.MemoryCalendar
	mailbox *calendar.MemoryMailbox
}

func newTestServer(t *testing.T, withRunner bool) *testServer {
	t.Helper()
	clock := func() time.Time { return testNow }

	cal := calendar.NewMemoryCalendar()
	mailbox := calendar.NewMemoryMailbox()
	d := agent.NewDispatcher(cal, nil, time.UTC, agent.WithMailbox(mailbox))
	sessions := session.NewSessionStoreWithClock(cache.NewService(cache.ConfigFor(time.Hour)), clock)
	chat := agent.NewSessionDispatcher(d, sessions).
		WithMetrics(observability.NewMetrics(100)).
		WithClock(clock)

	var runner *ingest.Runner
	if withRunner {
		runner = ingest.NewRunner(mailbox, d, ingest.Config{}).WithClock(clock)
	}

	p := &profile.Profile{Version: "test", InstanceURL: "http://localhost:8081", SessionSecret: "test-secret"}
	svc := NewAPIV1Service(p, chat, cal, runner)
	svc.Metrics = observability.NewMetrics(100)
	svc.now = clock

	e := echo.New()
	svc.RegisterRoutes(e)
	return &testServer{e: e, svc: svc, cal: cal, mailbox: mailbox}
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestChat_StartsAndContinuesSession(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodPost, "/api/v1/chat", `{"message": "@help"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[ChatResponse](t, rec)
	assert.NotEmpty(t, first.SessionID)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, router.IntentHelp, first.Intent)
	assert.Contains(t, first.ReplyHTML, "<")

	rec = ts.do(http.MethodPost, "/api/v1/chat", `{"message": "@list"}`, first.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[ChatResponse](t, rec)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, router.IntentList, second.Intent)
}

func TestChat_RejectsBadRequests(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodPost, "/api/v1/chat", `{"message": "  "}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/chat", `{"message": "@help"}`, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/chat", `{"message": "`+strings.Repeat("a", maxMessageLength+1)+`"}`, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestChat_AddThenReadEvents(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodPost, "/api/v1/chat", `{"message": "@add dentist tomorrow 3pm"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, router.IntentAdd, decode[ChatResponse](t, rec).Intent)
	require.Len(t, ts.cal.All(), 1)
	created := ts.cal.All()[0]

	rec = ts.do(http.MethodGet, "/api/v1/events", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ListEventsResponse](t, rec)
	require.Len(t, list.Events, 1)
	assert.Equal(t, created.ID, list.Events[0].ID)

	rec = ts.do(http.MethodGet, "/api/v1/events/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Title, decode[calendar.Event](t, rec).Title)

	rec = ts.do(http.MethodGet, "/api/v1/events/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/events?limit=zero", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/events/feed", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/atom+xml")
	assert.Contains(t, rec.Body.String(), created.Title)
}

func TestResetSession(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodDelete, "/api/v1/chat/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/v1/chat", `{"message": "@help"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[ChatResponse](t, rec).Token

	rec = ts.do(http.MethodDelete, "/api/v1/chat/session", "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIngest(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodPost, "/api/v1/ingest", `{"text": ""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Without a completion service extraction fails and the text is skipped.
	rec = ts.do(http.MethodPost, "/api/v1/ingest", `{"text": "Subject: Offsite\n\nJoin us Friday"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	outcome := decode[agent.CandidateOutcome](t, rec)
	assert.False(t, outcome.Created)
	assert.Equal(t, agent.SkipExtractionFailed, outcome.Skipped)

	rec = ts.do(http.MethodPost, "/api/v1/ingest/run", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIngestRun(t *testing.T) {
	ts := newTestServer(t, true)
	ts.mailbox.Add(calendar.MailMessage{ID: "m1", Subject: "Lunch", Body: "Friday noon", ReceivedAt: testNow.Add(-time.Hour)})

	rec := ts.do(http.MethodPost, "/api/v1/ingest/run", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[ingest.Report](t, rec)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Skipped)
}

func TestGetMetrics(t *testing.T) {
	ts := newTestServer(t, false)
	ts.svc.Metrics.RecordRequest("help")
	ts.svc.Metrics.RecordRequest("add")
	ts.svc.Metrics.RecordFailure("add")

	rec := ts.do(http.MethodGet, "/api/v1/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[MetricsOverviewResponse](t, rec)
	assert.Equal(t, int64(2), overview.TotalRequests)
	assert.Equal(t, int64(1), overview.ErrorCount)
	assert.InDelta(t, 50.0, overview.SuccessRate, 0.001)
	assert.Len(t, overview.Commands, 2)

	rec = ts.do(http.MethodGet, "/api/v1/metrics?command=add", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[MetricsOverviewResponse](t, rec).Commands, 1)

	rec = ts.do(http.MethodGet, "/api/v1/metrics?command=nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionTokens(t *testing.T) {
	tokens := newSessionTokens("secret")

	raw, err := tokens.Issue("abc", testNow)
	require.NoError(t, err)

	id, err := tokens.Parse(raw, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = tokens.Parse(raw, testNow.Add(25*time.Hour))
	assert.Error(t, err, "expired")

	_, err = newSessionTokens("other").Parse(raw, testNow)
	assert.Error(t, err, "wrong secret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = tokens.FromRequest(req, testNow)
	assert.ErrorIs(t, err, errNoToken)

	req.Header.Set(echo.HeaderAuthorization, "Basic abc")
	_, err = tokens.FromRequest(req, testNow)
	assert.Error(t, err)
}

func TestRunLimiterSweeperStops(t *testing.T) {
	ts := newTestServer(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ts.svc.RunLimiterSweeper(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
