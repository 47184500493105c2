package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/rundown/internal/observability"
)

// MetricsOverviewResponse represents the overview of chat metrics.
type MetricsOverviewResponse struct {
	TotalRequests int64   `json:"total_requests"`
	SuccessRate   float64 `json:"success_rate"`
	ErrorCount    int64   `json:"error_count"`
	EventsCreated int64   `json:"events_created"`
	// Commands is keyed by classified intent.
	Commands map[string]*observability.CommandMetricsSnapshot `json:"commands"`
}

// GetMetrics returns chat metrics. With ?command=X only that command is
// included.
// GET /api/v1/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	snap := s.Metrics.Snapshot()

	commands := snap.Commands
	if command := c.QueryParam("command"); command != "" {
		cm, ok := snap.Commands[command]
		if !ok {
			return errorJSON(c, http.StatusNotFound, "no metrics for command "+command)
		}
		commands = map[string]*observability.CommandMetricsSnapshot{command: cm}
	}

	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests: snap.RequestTotal,
		SuccessRate:   snap.SuccessRate(),
		ErrorCount:    snap.RequestFailed,
		EventsCreated: snap.EventsCreated,
		Commands:      commands,
	})
}
