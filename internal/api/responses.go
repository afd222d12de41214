package api

import (
	"github.com/civicpulse/classifier/internal/domain"
)

// QueueStatsResponse is the payload of GET /api/v1/queue/stats.
type QueueStatsResponse struct {
	Waiting         int64          `json:"waiting"`
	Delayed         int64          `json:"delayed"`
	Failed          int64          `json:"failed"`
	Completed       int64          `json:"completed"`
	ReportsByStatus map[string]int `json:"reports_by_status"`
}

// ReprocessResponse is the payload of POST /api/v1/reports/:id/reprocess.
type ReprocessResponse struct {
	JobID    string `json:"job_id"`
	ReportID string `json:"report_id"`
}

// PreviewRequest is the body of POST /api/v1/classify/preview. At least one
// of the fields must be present.
type PreviewRequest struct {
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

// PreviewResponse holds the offline classification of each provided input.
type PreviewResponse struct {
	Text  *domain.ClassificationResult `json:"text,omitempty"`
	Image *domain.ClassificationResult `json:"image,omitempty"`
}
