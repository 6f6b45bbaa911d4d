// Package metrics provides Prometheus metrics for the query pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	QueriesTotal     *prometheus.CounterVec
	QueryDuration    *prometheus.HistogramVec
	ActCatalogBuilds prometheus.Counter
	LLMCallsTotal    *prometheus.CounterVec
	BlobRetriesTotal prometheus.Counter
	IndexedDocuments *prometheus.CounterVec
}

// New creates the metrics and registers them on reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalqa_queries_total",
				Help: "Total number of library queries by operation and status",
			},
			[]string{"operation", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "legalqa_query_duration_seconds",
				Help:    "Duration of library queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		ActCatalogBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legalqa_act_catalog_builds_total",
			Help: "Number of act catalog rebuilds (cache misses)",
		}),
		LLMCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalqa_llm_calls_total",
				Help: "Language model calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		BlobRetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "legalqa_blob_retries_total",
			Help: "Blob storage read retries after transient failures",
		}),
		IndexedDocuments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "legalqa_indexed_documents_total",
				Help: "Documents processed by the indexing pipeline by status",
			},
			[]string{"status"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.QueriesTotal, m.QueryDuration, m.ActCatalogBuilds, m.LLMCallsTotal, m.BlobRetriesTotal, m.IndexedDocuments)
	}
	return m
}

// ObserveQuery records one finished query.
func (m *Metrics) ObserveQuery(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.QueriesTotal.WithLabelValues(operation, status).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveLLMCall(operation string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.LLMCallsTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) CatalogBuilt() {
	if m == nil {
		return
	}
	m.ActCatalogBuilds.Inc()
}

func (m *Metrics) BlobRetried() {
	if m == nil {
		return
	}
	m.BlobRetriesTotal.Inc()
}

func (m *Metrics) DocumentIndexed(status string) {
	if m == nil {
		return
	}
	m.IndexedDocuments.WithLabelValues(status).Inc()
}
