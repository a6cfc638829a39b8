// Package metrics provides Prometheus metrics for aroresolve
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nainya/aroresolve/pkg/engine"
	"github.com/nainya/aroresolve/pkg/ontology"
)

// Metrics holds all Prometheus metrics for aroresolve
type Metrics struct {
	// gRPC request metrics
	GrpcRequestsTotal    *prometheus.CounterVec
	GrpcRequestDuration  *prometheus.HistogramVec
	GrpcRequestsInFlight prometheus.Gauge

	// Query metrics
	ResolutionsTotal   *prometheus.CounterVec
	SearchQueriesTotal prometheus.Counter
	SearchResultsTotal prometheus.Counter

	// Generation metrics
	ReloadsTotal        *prometheus.CounterVec
	ReloadDuration      prometheus.Histogram
	GenerationNumber    prometheus.Gauge
	GenerationEntries   prometheus.Gauge
	GenerationEdges     prometheus.Gauge
	DataQualityWarnings *prometheus.GaugeVec

	// Server metrics
	ServerUptimeSeconds prometheus.GaugeFunc
	ServerStartTime     time.Time
}

// NewMetrics creates all metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.GrpcRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aroresolve_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "code"},
	)

	m.GrpcRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aroresolve_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method"},
	)

	m.GrpcRequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "aroresolve_grpc_requests_in_flight",
			Help: "Number of gRPC requests currently being processed",
		},
	)

	m.ResolutionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aroresolve_resolutions_total",
			Help: "Total number of resolutions by query kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	m.SearchQueriesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "aroresolve_search_queries_total",
			Help: "Total number of search queries",
		},
	)

	m.SearchResultsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "aroresolve_search_results_total",
			Help: "Total number of search results returned",
		},
	)

	m.ReloadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aroresolve_reloads_total",
			Help: "Total number of ontology loads by status",
		},
		[]string{"status"},
	)

	m.ReloadDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aroresolve_reload_duration_seconds",
			Help:    "Duration of ontology loads in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	m.GenerationNumber = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "aroresolve_generation",
			Help: "Number of the generation currently serving",
		},
	)

	m.GenerationEntries = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "aroresolve_generation_entries",
			Help: "Entries in the generation currently serving",
		},
	)

	m.GenerationEdges = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "aroresolve_generation_edges",
			Help: "Hierarchy edges in the generation currently serving",
		},
	)

	m.DataQualityWarnings = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aroresolve_data_quality_warnings",
			Help: "Data quality warnings of the generation currently serving, by kind",
		},
		[]string{"kind"},
	)

	m.ServerUptimeSeconds = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "aroresolve_server_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.ServerStartTime).Seconds() },
	)

	return m
}

// RecordGrpcRequest records a gRPC request with its status code
func (m *Metrics) RecordGrpcRequest(method string, code string, duration time.Duration) {
	m.GrpcRequestsTotal.WithLabelValues(method, code).Inc()
	m.GrpcRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordResolution counts one resolver answer
func (m *Metrics) RecordResolution(kind, outcome string) {
	m.ResolutionsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordSearch counts one search and its result size
func (m *Metrics) RecordSearch(results int) {
	m.SearchQueriesTotal.Inc()
	m.SearchResultsTotal.Add(float64(results))
}

// RecordReload records a load attempt. Generation gauges move only when a
// generation was published.
func (m *Metrics) RecordReload(gen *engine.Generation, duration time.Duration, err error) {
	m.ReloadDuration.Observe(duration.Seconds())
	if err != nil || gen == nil {
		m.ReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	m.ReloadsTotal.WithLabelValues("success").Inc()

	stats := gen.Stats()
	m.GenerationNumber.Set(float64(gen.Number))
	m.GenerationEntries.Set(float64(stats.Entries))
	m.GenerationEdges.Set(float64(stats.Edges))

	m.DataQualityWarnings.Reset()
	for _, kind := range []ontology.WarningKind{
		ontology.WarnDuplicateAccession,
		ontology.WarnEmptyNormalizedName,
		ontology.WarnCyclicEdge,
		ontology.WarnAmbiguousParent,
		ontology.WarnUnresolvedParent,
		ontology.WarnUnresolvedDrugClass,
	} {
		m.DataQualityWarnings.WithLabelValues(string(kind)).Set(float64(stats.Warnings[kind]))
	}
}
