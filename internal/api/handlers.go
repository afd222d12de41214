// Package api exposes the ops surface of the classifier: health probes,
// queue statistics, manual reprocessing, and an offline classification
// preview.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/queue"
	"github.com/civicpulse/classifier/internal/telemetry"
)

// ReportReader is the read-only report access the API needs.
type ReportReader interface {
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	CountByAIStatus(ctx context.Context) (map[string]int, error)
}

// JobQueue is the queue surface the API needs.
type JobQueue interface {
	Enqueue(ctx context.Context, reportID string) (string, error)
	Stats(ctx context.Context) (queue.Stats, error)
}

// ReadyCheck is one named dependency probe run by GET /ready.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler handles HTTP requests for the classifier ops API.
type Handler struct {
	reports   ReportReader
	queue     JobQueue
	keywords  *classifier.KeywordClassifier
	telemetry *telemetry.Provider
	checks    []ReadyCheck
	version   string
	logger    logging.Logger
}

// NewHandler creates a new API handler. telemetry may be nil.
func NewHandler(
	reports ReportReader,
	jobQueue JobQueue,
	keywords *classifier.KeywordClassifier,
	tp *telemetry.Provider,
	checks []ReadyCheck,
	version string,
	logger logging.Logger,
) *Handler {
	return &Handler{
		reports:   reports,
		queue:     jobQueue,
		keywords:  keywords,
		telemetry: tp,
		checks:    checks,
		version:   version,
		logger:    logger,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "report-classifier",
		"version": h.version,
	})
}

// ReadyCheck handles GET /ready by probing every registered dependency.
func (h *Handler) ReadyCheck(c *gin.Context) {
	results := gin.H{}
	ready := true

	for _, check := range h.checks {
		if err := check.Check(c.Request.Context()); err != nil {
			h.logger.Warn("readiness check failed",
				logging.String("check", check.Name),
				logging.Error(err))
			results[check.Name] = err.Error()
			ready = false
			continue
		}
		results[check.Name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}

	c.JSON(status, gin.H{"status": state, "checks": results})
}

// GetQueueStats handles GET /api/v1/queue/stats.
func (h *Handler) GetQueueStats(c *gin.Context) {
	stats, err := h.queue.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("loading queue stats failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load queue stats"})
		return
	}

	byStatus, err := h.reports.CountByAIStatus(c.Request.Context())
	if err != nil {
		h.logger.Error("counting reports by status failed", logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count reports"})
		return
	}

	c.JSON(http.StatusOK, QueueStatsResponse{
		Waiting:         stats.Waiting,
		Delayed:         stats.Delayed,
		Failed:          stats.Failed,
		Completed:       stats.Completed,
		ReportsByStatus: byStatus,
	})
}

// ReprocessReport handles POST /api/v1/reports/:id/reprocess. It re-enqueues
// the report for a fresh classification pass.
func (h *Handler) ReprocessReport(c *gin.Context) {
	reportID := c.Param("id")

	if _, err := h.reports.GetByID(c.Request.Context(), reportID); err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("loading report for reprocess failed",
			logging.String("report_id", reportID),
			logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	jobID, err := h.queue.Enqueue(c.Request.Context(), reportID)
	if err != nil {
		h.logger.Error("enqueueing report failed",
			logging.String("report_id", reportID),
			logging.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue report"})
		return
	}

	h.logger.Info("report queued for reprocessing",
		logging.String("report_id", reportID),
		logging.String("job_id", jobID))

	c.JSON(http.StatusAccepted, ReprocessResponse{JobID: jobID, ReportID: reportID})
}

// PreviewClassification handles POST /api/v1/classify/preview. The preview
// never calls the remote model: it runs the deterministic keyword and path
// classifiers so operators can inspect the fallback behavior.
func (h *Handler) PreviewClassification(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Description == "" && req.ImageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description or image_url is required"})
		return
	}

	var resp PreviewResponse
	if req.Description != "" {
		text := h.keywords.Classify(req.Description)
		resp.Text = &text
	}
	if req.ImageURL != "" {
		image := classifier.ClassifyImagePath(req.ImageURL)
		resp.Image = &image
	}

	c.JSON(http.StatusOK, resp)
}
