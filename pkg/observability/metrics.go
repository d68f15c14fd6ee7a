package observability

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Business metrics
	BoardsTotal      prometheus.Gauge
	TasksTotal       prometheus.Gauge
	ActiveUsersTotal prometheus.Gauge
	APITokensActive  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskboard_authz_decisions_total",
				Help: "Authorization decisions by entity, operation, and outcome",
			},
			[]string{"entity", "operation", "decision"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskboard_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskboard_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		BoardsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskboard_boards_total",
				Help: "Total number of boards",
			},
		),
		TasksTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskboard_tasks_total",
				Help: "Total number of tasks",
			},
		),
		ActiveUsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskboard_active_users_total",
				Help: "Total number of active users",
			},
		),
		APITokensActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskboard_api_tokens_active",
				Help: "Number of active API tokens",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthzDecisionsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.BoardsTotal,
		m.TasksTotal,
		m.ActiveUsersTotal,
		m.APITokensActive,
	)

	return m
}

// RecordAuthzDecision counts one authorization decision
func (m *Metrics) RecordAuthzDecision(entity, operation, decision string) {
	m.AuthzDecisionsTotal.WithLabelValues(entity, operation, decision).Inc()
}

// UpdateDBStats refreshes the connection pool gauges
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// CollectBusinessStats refreshes the business gauges from current row counts.
// Intended to run on the maintenance scheduler.
func (m *Metrics) CollectBusinessStats(ctx context.Context, db *sql.DB) error {
	query := `
		SELECT
			(SELECT COUNT(*) FROM boards),
			(SELECT COUNT(*) FROM tasks),
			(SELECT COUNT(*) FROM users WHERE is_active = true),
			(SELECT COUNT(*) FROM api_tokens
			 WHERE revoked_at IS NULL AND (expires_at IS NULL OR expires_at > NOW()))
	`

	var boardCount, taskCount, userCount, tokenCount int64
	err := db.QueryRowContext(ctx, query).Scan(&boardCount, &taskCount, &userCount, &tokenCount)
	if err != nil {
		return fmt.Errorf("failed to collect business stats: %w", err)
	}

	m.BoardsTotal.Set(float64(boardCount))
	m.TasksTotal.Set(float64(taskCount))
	m.ActiveUsersTotal.Set(float64(userCount))
	m.APITokensActive.Set(float64(tokenCount))
	return nil
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
