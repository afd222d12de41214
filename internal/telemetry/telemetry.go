// Package telemetry provides OpenTelemetry instrumentation for the report
// classifier. It exports Prometheus metrics and tracing.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "report-classifier"

// Metrics holds all classifier Prometheus metrics.
type Metrics struct {
	// Pipeline metrics
	ReportsProcessed   *prometheus.CounterVec
	ReportsFailed      *prometheus.CounterVec
	ReportsFlagged     prometheus.Counter
	ProcessingDuration prometheus.Histogram

	// Decision metrics
	DecisionTotal *prometheus.CounterVec

	// Queue metrics
	QueueWaiting  prometheus.Gauge
	QueueDelayed  prometheus.Gauge
	QueueFailed   prometheus.Gauge
	ActiveWorkers prometheus.Gauge
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initPipelineMetrics(m)
	initDecisionMetrics(m)
	initQueueMetrics(m)
	return m
}

func initPipelineMetrics(m *Metrics) {
	m.ReportsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classifier_reports_processed_total",
		Help: "Total reports that completed classification",
	}, []string{"final_category"})

	m.ReportsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classifier_reports_failed_total",
		Help: "Total reports whose classification attempt failed",
	}, []string{"stage"})

	m.ReportsFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classifier_reports_flagged_total",
		Help: "Total reports suppressed by the content safety screen",
	})

	m.ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "classifier_processing_duration_seconds",
		Help:    "Time to classify a single report end to end",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
}

func initDecisionMetrics(m *Metrics) {
	m.DecisionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classifier_decision_total",
		Help: "Final category decisions by ladder rung",
	}, []string{"source"})
}

func initQueueMetrics(m *Metrics) {
	m.QueueWaiting = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classifier_queue_waiting",
		Help: "Jobs currently on the wait list",
	})

	m.QueueDelayed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classifier_queue_delayed",
		Help: "Jobs currently waiting out a retry backoff",
	})

	m.QueueFailed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classifier_queue_failed",
		Help: "Jobs parked after exhausting their attempts",
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "classifier_active_workers",
		Help: "Currently active worker goroutines",
	})
}

// RecordProcessed records one completed report.
func (p *Provider) RecordProcessed(finalCategory string, duration time.Duration) {
	p.Metrics.ReportsProcessed.WithLabelValues(finalCategory).Inc()
	p.Metrics.ProcessingDuration.Observe(duration.Seconds())
}

// RecordFailure records a failed classification attempt at the given stage.
func (p *Provider) RecordFailure(stage string) {
	p.Metrics.ReportsFailed.WithLabelValues(stage).Inc()
}

// RecordFlagged records a report suppressed by the safety screen.
func (p *Provider) RecordFlagged() {
	p.Metrics.ReportsFlagged.Inc()
}

// RecordDecision records the ladder rung that produced a final category.
func (p *Provider) RecordDecision(source string) {
	p.Metrics.DecisionTotal.WithLabelValues(source).Inc()
}

// SetQueueDepths publishes a queue depth snapshot.
func (p *Provider) SetQueueDepths(waiting, delayed, failed int64) {
	p.Metrics.QueueWaiting.Set(float64(waiting))
	p.Metrics.QueueDelayed.Set(float64(delayed))
	p.Metrics.QueueFailed.Set(float64(failed))
}

// SetActiveWorkers sets the current active worker count.
func (p *Provider) SetActiveWorkers(count int) {
	p.Metrics.ActiveWorkers.Set(float64(count))
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
