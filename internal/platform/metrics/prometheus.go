package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsManager holds the service's Prometheus collectors.
type MetricsManager struct {
	Registry            *prometheus.Registry
	DrinksCreatedTotal  prometheus.Counter
	DrinksDeletedTotal  prometheus.Counter
	ReviewsCreatedTotal prometheus.Counter
	ReviewUpdatesTotal  prometheus.Counter
	ReviewDeletesTotal  prometheus.Counter
	APIErrorsTotal      *prometheus.CounterVec   // by route and status class
	APILatency          *prometheus.HistogramVec // by route and method
}

// NewMetricsManager registers all collectors on a private registry.
func NewMetricsManager(serviceName string) *MetricsManager {
	namespace := sanitizeNamespace(serviceName)
	registry := prometheus.NewRegistry()

	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
	}

	m := &MetricsManager{
		Registry:            registry,
		DrinksCreatedTotal:  counter("drinks_created_total", "Total number of drinks created."),
		DrinksDeletedTotal:  counter("drinks_deleted_total", "Total number of drinks deleted."),
		ReviewsCreatedTotal: counter("reviews_created_total", "Total number of reviews created."),
		ReviewUpdatesTotal:  counter("review_updates_total", "Total number of reviews updated."),
		ReviewDeletesTotal:  counter("review_deletes_total", "Total number of reviews deleted."),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "Total number of API errors by route.",
		}, []string{"route", "error_type"}),
		APILatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.DrinksCreatedTotal,
		m.DrinksDeletedTotal,
		m.ReviewsCreatedTotal,
		m.ReviewUpdatesTotal,
		m.ReviewDeletesTotal,
		m.APIErrorsTotal,
		m.APILatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records latency and, for 4xx/5xx, an error sample.
func (m *MetricsManager) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.APILatency.WithLabelValues(route, method).Observe(elapsed.Seconds())
	if status >= http.StatusBadRequest {
		m.APIErrorsTotal.WithLabelValues(route, strconv.Itoa(status/100)+"xx").Inc()
	}
}

// ObserveEvent counts a published domain event by subject.
func (m *MetricsManager) ObserveEvent(subject string) {
	switch subject {
	case "drink.created":
		m.DrinksCreatedTotal.Inc()
	case "drink.deleted":
		m.DrinksDeletedTotal.Inc()
	case "review.created":
		m.ReviewsCreatedTotal.Inc()
	case "review.updated":
		m.ReviewUpdatesTotal.Inc()
	case "review.deleted":
		m.ReviewDeletesTotal.Inc()
	}
}

// Handler exposes the registry.
func (m *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// NewMetricsServer builds the /metrics server; the caller runs ListenAndServe
// and Shutdown. Returns nil when port is empty.
func NewMetricsServer(port string, appLogger *logger.Logger, m *MetricsManager) *http.Server {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	appLogger.Info("Prometheus metrics server configured", zap.String("port", port), zap.String("path", "/metrics"))
	return server
}

// prometheus namespaces may not contain dashes.
func sanitizeNamespace(name string) string {
	out := []byte(name)
	for i, c := range out {
		if c == '-' || c == '.' {
			out[i] = '_'
		}
	}
	return string(out)
}
