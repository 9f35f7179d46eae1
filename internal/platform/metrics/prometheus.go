package metrics

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/listing-wizard/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the wizard's Prometheus metrics on a private registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	SubmissionsTotal      *prometheus.CounterVec
	CatalogFetchErrors    *prometheus.CounterVec
	StaleResponsesDropped *prometheus.CounterVec
	GeolocationFailures   *prometheus.CounterVec
	DraftConflictsTotal   prometheus.Counter
	HTTPRequestLatency    *prometheus.HistogramVec
	ActiveSessions        prometheus.Gauge
}

// NewMetricsManager initializes and registers the metrics under the given namespace.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Listing submissions by outcome.",
		}, []string{"outcome"}),
		CatalogFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_errors_total",
			Help:      "Failed catalog fetches by list.",
		}, []string{"list"}),
		StaleResponsesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_stale_responses_total",
			Help:      "Catalog responses discarded because a newer request superseded them.",
		}, []string{"list"}),
		GeolocationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geolocation_failures_total",
			Help:      "Location detection failures by kind.",
		}, []string{"kind"}),
		DraftConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_revision_conflicts_total",
			Help:      "Draft writes rejected because another writer saved first.",
		}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "Latency of wizard API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Wizard sessions currently held in memory.",
		}),
	}

	registry.MustRegister(
		m.SubmissionsTotal,
		m.CatalogFetchErrors,
		m.StaleResponsesDropped,
		m.GeolocationFailures,
		m.DraftConflictsTotal,
		m.HTTPRequestLatency,
		m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StartMetricsServer exposes /metrics on the given port and blocks.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
