package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-command counters for chat turns.
type Metrics struct {
	mu sync.Mutex

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	eventsCreated atomic.Int64

	commandMetrics map[string]*CommandMetrics

	// Sliding window of recent durations.
	durations    []time.Duration
	maxDurations int
}

// CommandMetrics represents metrics for a specific command.
type CommandMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // milliseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000
	}
	return &Metrics{
		commandMetrics: make(map[string]*CommandMetrics),
		durations:      make([]time.Duration, 0, maxDurations),
		maxDurations:   maxDurations,
	}
}

var globalMetrics = NewMetrics(1000)

// GlobalMetrics returns the global metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a handled turn.
func (m *Metrics) RecordRequest(command string) {
	m.requestTotal.Add(1)
	m.forCommand(command).executionCount.Add(1)
}

// RecordFailure records a turn that ended in a collaborator or validation failure.
func (m *Metrics) RecordFailure(command string) {
	m.requestFailed.Add(1)
	m.forCommand(command).errorCount.Add(1)
}

// RecordEventCreated counts an event materialized in the calendar.
func (m *Metrics) RecordEventCreated() {
	m.eventsCreated.Add(1)
}

// RecordDuration records a turn duration.
func (m *Metrics) RecordDuration(command string, duration time.Duration) {
	cm := m.forCommand(command)
	cm.totalDuration.Add(duration.Milliseconds())

	m.mu.Lock()
	if len(m.durations) >= m.maxDurations {
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, duration)
	m.mu.Unlock()
}

// GetRequestTotal returns the total number of requests.
func (m *Metrics) GetRequestTotal() int64 {
	return m.requestTotal.Load()
}

// GetRequestFailed returns the total number of failed requests.
func (m *Metrics) GetRequestFailed() int64 {
	return m.requestFailed.Load()
}

// GetEventsCreated returns the number of events created.
func (m *Metrics) GetEventsCreated() int64 {
	return m.eventsCreated.Load()
}

func (m *Metrics) forCommand(command string) *CommandMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	cm, ok := m.commandMetrics[command]
	if !ok {
		cm = &CommandMetrics{}
		m.commandMetrics[command] = cm
	}
	return cm
}

// GetAverageDuration returns the average duration in milliseconds for a command.
func (m *Metrics) GetAverageDuration(command string) int64 {
	cm := m.forCommand(command)
	count := cm.executionCount.Load()
	if count == 0 {
		return 0
	}
	return cm.totalDuration.Load() / count
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.eventsCreated.Store(0)

	m.mu.Lock()
	m.commandMetrics = make(map[string]*CommandMetrics)
	m.durations = make([]time.Duration, 0, m.maxDurations)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	commands := make(map[string]*CommandMetricsSnapshot, len(m.commandMetrics))
	for command, cm := range m.commandMetrics {
		snap := &CommandMetricsSnapshot{
			ExecutionCount: cm.executionCount.Load(),
			TotalDuration:  cm.totalDuration.Load(),
			ErrorCount:     cm.errorCount.Load(),
		}
		if snap.ExecutionCount > 0 {
			snap.AverageDuration = snap.TotalDuration / snap.ExecutionCount
		}
		commands[command] = snap
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		EventsCreated: m.eventsCreated.Load(),
		Commands:      commands,
		DurationCount: len(m.durations),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                              `json:"request_total"`
	RequestFailed int64                              `json:"request_failed"`
	EventsCreated int64                              `json:"events_created"`
	Commands      map[string]*CommandMetricsSnapshot `json:"commands"`
	DurationCount int                                `json:"duration_count"`
}

// CommandMetricsSnapshot represents metrics for a specific command.
type CommandMetricsSnapshot struct {
	ExecutionCount  int64 `json:"execution_count"`
	TotalDuration   int64 `json:"total_duration_ms"`
	ErrorCount      int64 `json:"error_count"`
	AverageDuration int64 `json:"average_duration_ms"`
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
