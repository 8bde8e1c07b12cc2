package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder receives service, query and document read outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	ObserveQuery(query string, success bool, duration time.Duration)
	ObserveDocument(document, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) Observe(context.Context, string, bool, time.Duration) {}
func (noopRecorder) ObserveQuery(string, bool, time.Duration)             {}
func (noopRecorder) ObserveDocument(string, string)                       {}

// PrometheusRecorder exports service metrics through a prometheus registry.
type PrometheusRecorder struct {
	operations *prometheus.HistogramVec
	queries    *prometheus.HistogramVec
	documents  *prometheus.CounterVec
}

// NewPrometheusRecorder registers the buildhealth collectors with reg. A nil
// reg uses a fresh private registry.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &PrometheusRecorder{
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildhealth",
			Name:      "service_operation_seconds",
			Help:      "Duration of service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "buildhealth",
			Name:      "result_query_seconds",
			Help:      "Duration of result store queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query", "status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "buildhealth",
			Name:      "metadata_document_reads_total",
			Help:      "Metadata document reads by document and outcome.",
		}, []string{"document", "outcome"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.queries, r.documents} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Observe records a service operation outcome.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, status(success)).Observe(duration.Seconds())
}

// ObserveQuery records a result store query.
func (r *PrometheusRecorder) ObserveQuery(query string, success bool, duration time.Duration) {
	r.queries.WithLabelValues(query, status(success)).Observe(duration.Seconds())
}

// ObserveDocument counts a metadata document read.
func (r *PrometheusRecorder) ObserveDocument(document, outcome string) {
	r.documents.WithLabelValues(document, outcome).Inc()
}
