// Package metrics exposes the application's Prometheus instruments. The
// Metrics struct is constructed once at process start and passed down by
// reference; nothing here is a package-level singleton, so tests can build
// isolated instances against their own registries.
package metrics

import (
	"github.com/formpulse/formpulse-backend/internal/access"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every instrument the application records.
type Metrics struct {
	AccessDecisions    *prometheus.CounterVec
	ResponsesOpened    prometheus.Counter
	ResponsesSubmitted prometheus.Counter
	AnswersAutosaved   prometheus.Counter
	WorkerBatchFlushes *prometheus.CounterVec
	WorkerBatchSize    *prometheus.HistogramVec
	LiveConnections    prometheus.Gauge
}

// New creates and registers all instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_access_decisions_total",
			Help: "Access evaluations by decision reason",
		}, []string{"reason"}),
		ResponsesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_responses_opened_total",
			Help: "Responses opened by respondents",
		}),
		ResponsesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_responses_submitted_total",
			Help: "Responses submitted as completed",
		}),
		AnswersAutosaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "survey_answers_autosaved_total",
			Help: "Single answers written to the autosave buffer",
		}),
		WorkerBatchFlushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "survey_worker_batch_flushes_total",
			Help: "Persistence worker batch flushes by worker and outcome",
		}, []string{"worker", "outcome"}),
		WorkerBatchSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "survey_worker_batch_size",
			Help:    "Items per persistence worker flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100},
		}, []string{"worker"}),
		LiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "survey_live_connections",
			Help: "Open live-results WebSocket connections",
		}),
	}

	reg.MustRegister(
		m.AccessDecisions,
		m.ResponsesOpened,
		m.ResponsesSubmitted,
		m.AnswersAutosaved,
		m.WorkerBatchFlushes,
		m.WorkerBatchSize,
		m.LiveConnections,
	)
	return m
}

// ObserveDecision records one access evaluation outcome.
func (m *Metrics) ObserveDecision(reason access.Reason) {
	m.AccessDecisions.WithLabelValues(string(reason)).Inc()
}
