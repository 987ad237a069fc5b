// Package metrics exposes the Prometheus instruments of the shop bot.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/fish-shop-bot/internal/state"
)

var (
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total number of conversation events labeled by resolved state and status",
		},
		[]string{"state", "status"},
	)
	eventDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_event_duration_seconds",
			Help:    "Duration of conversation event handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"state"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of persisted state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	commerceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_requests_total",
			Help: "Total number of commerce API requests by operation and status",
		},
		[]string{"operation", "status"},
	)
	commerceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "commerce_request_duration_seconds",
			Help:    "Commerce API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	tokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commerce_token_refreshes_total",
			Help: "Total number of bearer token refreshes by status",
		},
		[]string{"status"},
	)
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of Telegram updates received by kind and status",
		},
		[]string{"kind", "status"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of stored conversation sessions",
		},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of stored sessions per state",
		},
		[]string{"state"},
	)
)

// RecordEvent counts a handled event and its duration.
func RecordEvent(st, status string, duration time.Duration) {
	st = labelOrUnknown(st)
	eventsTotal.WithLabelValues(st, labelOrUnknown(status)).Inc()
	eventDurationSeconds.WithLabelValues(st).Observe(duration.Seconds())
}

// RecordStateTransition tracks persisted FSM transitions.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(labelOrUnknown(from), labelOrUnknown(to)).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	errorsTotal.WithLabelValues(labelOrUnknown(code), labelOrUnknown(severity)).Inc()
}

// RecordCommerceRequest tracks a call to the commerce backend.
func RecordCommerceRequest(operation, status string, duration time.Duration) {
	operation = labelOrUnknown(operation)
	commerceRequestsTotal.WithLabelValues(operation, labelOrUnknown(status)).Inc()
	commerceRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordTokenRefresh tracks bearer token refresh attempts.
func RecordTokenRefresh(status string) {
	tokenRefreshesTotal.WithLabelValues(labelOrUnknown(status)).Inc()
}

// RecordUpdate counts a Telegram update before it is queued.
func RecordUpdate(kind, status string) {
	updatesTotal.WithLabelValues(labelOrUnknown(kind), labelOrUnknown(status)).Inc()
}

func labelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

// StateCollector periodically gathers session counts and emits gauge metrics.
type StateCollector struct {
	storage  state.Storage
	interval time.Duration
	log      *slog.Logger
}

// NewStateCollector builds a metrics collector bound to the session storage.
func NewStateCollector(storage state.Storage, interval time.Duration, log *slog.Logger) *StateCollector {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &StateCollector{storage: storage, interval: interval, log: log}
}

// Run polls the storage until ctx is cancelled.
func (c *StateCollector) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		if err := c.Collect(ctx); err != nil {
			c.log.Warn("session metrics collection failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Collect updates the session gauges once.
func (c *StateCollector) Collect(ctx context.Context) error {
	sessions, err := c.storage.GetAllStates(ctx)
	if err != nil {
		return err
	}

	activeSessions.Set(float64(len(sessions)))

	counts := make(map[state.State]int, len(sessions))
	for _, s := range sessions {
		if s != nil {
			counts[s.CurrentState]++
		}
	}

	for _, st := range state.All() {
		sessionsByState.WithLabelValues(st.String()).Set(float64(counts[st]))
	}

	return nil
}
