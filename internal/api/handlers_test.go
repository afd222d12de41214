package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/queue"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

type stubReports struct {
	report   *domain.Report
	byStatus map[string]int
}

func (s *stubReports) GetByID(_ context.Context, _ string) (*domain.Report, error) {
	if s.report == nil {
		return nil, domain.ErrReportNotFound
	}
	return s.report, nil
}

func (s *stubReports) CountByAIStatus(_ context.Context) (map[string]int, error) {
	return s.byStatus, nil
}

type stubQueue struct {
	stats    queue.Stats
	jobID    string
	enqueued []string
}

func (s *stubQueue) Enqueue(_ context.Context, reportID string) (string, error) {
	s.enqueued = append(s.enqueued, reportID)
	return s.jobID, nil
}

func (s *stubQueue) Stats(_ context.Context) (queue.Stats, error) {
	return s.stats, nil
}

func newTestRouter(t *testing.T, reports *stubReports, q *stubQueue, checks []ReadyCheck) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(
		reports,
		q,
		classifier.NewKeywordClassifier(logging.NewNop()),
		nil,
		checks,
		"test",
		logging.NewNop(),
	)

	router := gin.New()
	SetupRoutes(router, handler)
	return router
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t, &stubReports{}, &stubQueue{}, nil)

	rec := perform(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestReadyCheckReportsFailures(t *testing.T) {
	checks := []ReadyCheck{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
		{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	}
	router := newTestRouter(t, &stubReports{}, &stubQueue{}, checks)

	rec := perform(router, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Contains(t, body.Checks["redis"], "connection refused")
}

func TestReadyCheckAllHealthy(t *testing.T) {
	checks := []ReadyCheck{
		{Name: "postgres", Check: func(context.Context) error { return nil }},
	}
	router := newTestRouter(t, &stubReports{}, &stubQueue{}, checks)

	rec := perform(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetQueueStats(t *testing.T) {
	reports := &stubReports{byStatus: map[string]int{"completed": 7, "pending": 2}}
	q := &stubQueue{stats: queue.Stats{Waiting: 2, Delayed: 1, Failed: 3, Completed: 7}}
	router := newTestRouter(t, reports, q, nil)

	rec := perform(router, http.MethodGet, "/api/v1/queue/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body QueueStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(2), body.Waiting)
	assert.Equal(t, int64(1), body.Delayed)
	assert.Equal(t, int64(3), body.Failed)
	assert.Equal(t, int64(7), body.Completed)
	assert.Equal(t, 7, body.ReportsByStatus["completed"])
}

func TestReprocessReport(t *testing.T) {
	reports := &stubReports{report: &domain.Report{ID: "rep-1"}}
	q := &stubQueue{jobID: "job-42"}
	router := newTestRouter(t, reports, q, nil)

	rec := perform(router, http.MethodPost, "/api/v1/reports/rep-1/reprocess", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body ReprocessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "job-42", body.JobID)
	assert.Equal(t, "rep-1", body.ReportID)
	assert.Equal(t, []string{"rep-1"}, q.enqueued)
}

func TestReprocessUnknownReport(t *testing.T) {
	q := &stubQueue{jobID: "job-42"}
	router := newTestRouter(t, &stubReports{}, q, nil)

	rec := perform(router, http.MethodPost, "/api/v1/reports/nope/reprocess", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, q.enqueued)
}

func TestPreviewClassification(t *testing.T) {
	router := newTestRouter(t, &stubReports{}, &stubQueue{}, nil)

	rec := perform(router, http.MethodPost, "/api/v1/classify/preview",
		`{"description": "large pothole on the main road", "image_url": "https://cdn.example.com/uploads/pothole-main-st.jpg"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Text)
	assert.Equal(t, taxonomy.RoadInfrastructure, body.Text.MainCategory)
	require.NotNil(t, body.Image)
	assert.Equal(t, taxonomy.RoadInfrastructure, body.Image.MainCategory)
	assert.Equal(t, domain.SourcePath, body.Image.Source)
}

func TestPreviewRequiresInput(t *testing.T) {
	router := newTestRouter(t, &stubReports{}, &stubQueue{}, nil)

	rec := perform(router, http.MethodPost, "/api/v1/classify/preview", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
