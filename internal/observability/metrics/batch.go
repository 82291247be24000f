package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/civic-digest/internal/core/domain"
	"github.com/kirillkom/civic-digest/internal/core/ports"
)

// BatchMetrics records one pipeline run. A batch job has no scrape
// endpoint, so the registry is written out as a node-exporter textfile.
type BatchMetrics struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	documentDuration *prometheus.HistogramVec
	completionsTotal *prometheus.CounterVec
	completionTime   prometheus.Histogram
	lastRunDocuments *prometheus.GaugeVec
	lastRunTimestamp prometheus.Gauge
}

func NewBatchMetrics(profile string) *BatchMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"profile": profile}

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "digest",
			Name:        "documents_total",
			Help:        "Documents handled by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	documentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "digest",
			Name:        "document_duration_seconds",
			Help:        "Time spent on one document by status.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	completionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "digest",
			Name:        "completion_calls_total",
			Help:        "Summarization calls by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)
	completionTime := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "digest",
			Name:        "completion_duration_seconds",
			Help:        "Summarization call latency.",
			Buckets:     []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			ConstLabels: constLabels,
		},
	)
	lastRunDocuments := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   "digest",
			Name:        "last_run_documents",
			Help:        "Document counts of the most recent run by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	lastRunTimestamp := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "digest",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the most recent run finished.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(documentsTotal, documentDuration, completionsTotal, completionTime, lastRunDocuments, lastRunTimestamp)

	return &BatchMetrics{
		registry:         registry,
		documentsTotal:   documentsTotal,
		documentDuration: documentDuration,
		completionsTotal: completionsTotal,
		completionTime:   completionTime,
		lastRunDocuments: lastRunDocuments,
		lastRunTimestamp: lastRunTimestamp,
	}
}

func (m *BatchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *BatchMetrics) ObserveDocument(result domain.DocumentResult) {
	status := string(result.Status)
	m.documentsTotal.WithLabelValues(status).Inc()
	m.documentDuration.WithLabelValues(status).Observe(result.Duration.Seconds())
}

func (m *BatchMetrics) ObserveBatch(report domain.BatchReport) {
	m.lastRunDocuments.WithLabelValues(string(domain.StatusProcessed)).Set(float64(report.Processed))
	m.lastRunDocuments.WithLabelValues(string(domain.StatusSkipped)).Set(float64(report.Skipped))
	m.lastRunDocuments.WithLabelValues(string(domain.StatusExisting)).Set(float64(report.Existing))
	m.lastRunTimestamp.SetToCurrentTime()
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *BatchMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// InstrumentCompleter counts and times every call made through next.
func (m *BatchMetrics) InstrumentCompleter(next ports.Completer) ports.Completer {
	return &instrumentedCompleter{next: next, metrics: m}
}

type instrumentedCompleter struct {
	next    ports.Completer
	metrics *BatchMetrics
}

func (c *instrumentedCompleter) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	started := time.Now()
	reply, err := c.next.Complete(ctx, req)
	c.metrics.completionTime.Observe(time.Since(started).Seconds())
	c.metrics.completionsTotal.WithLabelValues(outcome(err)).Inc()
	return reply, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrTemporary):
		return "temporary"
	case domain.IsKind(err, domain.ErrMalformedReply):
		return "malformed"
	default:
		return "error"
	}
}
