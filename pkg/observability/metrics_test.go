package observability

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuthzDecision(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.RecordAuthzDecision("board", "read", "allow")
	metrics.RecordAuthzDecision("board", "read", "allow")
	metrics.RecordAuthzDecision("task", "delete", "forbidden")

	assert.Equal(t, float64(2), testutil.ToFloat64(
		metrics.AuthzDecisionsTotal.WithLabelValues("board", "read", "allow")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.AuthzDecisionsTotal.WithLabelValues("task", "delete", "forbidden")))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/boards", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	count, err := testutil.GatherAndCount(registry, "taskboard_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpdateDBStats(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.UpdateDBStats(sql.DBStats{InUse: 4, Idle: 6})

	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.DBConnectionsActive))
	assert.Equal(t, float64(6), testutil.ToFloat64(metrics.DBConnectionsIdle))
}

func TestCollectBusinessStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM boards`).
		WillReturnRows(sqlmock.NewRows([]string{"boards", "tasks", "users", "tokens"}).
			AddRow(3, 17, 5, 8))

	metrics := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, metrics.CollectBusinessStats(context.Background(), db))

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.BoardsTotal))
	assert.Equal(t, float64(17), testutil.ToFloat64(metrics.TasksTotal))
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.ActiveUsersTotal))
	assert.Equal(t, float64(8), testutil.ToFloat64(metrics.APITokensActive))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectBusinessStatsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM boards`).
		WillReturnError(errors.New("connection reset"))

	metrics := NewMetrics(prometheus.NewRegistry())
	err = metrics.CollectBusinessStats(context.Background(), db)
	assert.Error(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.BoardsTotal))
}
