package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordResolution(ResolutionExamSession, OutcomeHit)
	m.RecordResolution(ResolutionExamSession, OutcomeHit)
	m.RecordResolution(ResolutionSubjectOffering, OutcomeUnmapped)
	m.RecordMarksUpload(true)
	m.AddBackfillRows("marks", 40)
	m.AddBackfillRows("marks", 0)
	m.RecordSummary("fallback")
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.resolutions.WithLabelValues(ResolutionExamSession, OutcomeHit)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.resolutions.WithLabelValues(ResolutionSubjectOffering, OutcomeUnmapped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.marksUploads.WithLabelValues("true")))
	assert.Equal(t, float64(40), testutil.ToFloat64(m.backfillRows.WithLabelValues("marks")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.summaries.WithLabelValues("fallback")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestTotal.WithLabelValues(http.MethodGet, "/health", "200")))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.RecordSummary("ai")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `performance_summaries_total{source="ai"} 1`)
}

func TestMetricsServiceNilReceiver(t *testing.T) {
	var m *MetricsService
	m.RecordResolution(ResolutionAdminScope, OutcomeMiss)
	m.ObserveDBQuery("marks", time.Millisecond)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsServiceRegisterDB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewMetricsService()
	require.NoError(t, m.RegisterDB(db, "performance_analyzer"))
	assert.Error(t, m.RegisterDB(db, "performance_analyzer"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `go_sql_max_open_connections{db_name="performance_analyzer"}`)
}
