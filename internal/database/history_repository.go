package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/civicpulse/classifier/internal/domain"
)

// HistoryRepository stores one audit row per completed analysis pass.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts an analysis history record.
func (r *HistoryRepository) Create(ctx context.Context, h *domain.AnalysisHistory) error {
	query := `
		INSERT INTO analysis_history (
			report_id,
			image_category, image_confidence,
			text_category, text_confidence,
			voice_category, voice_confidence,
			best_category, best_confidence, best_source,
			consensus_category, consensus_confidence, consensus_votes,
			final_category, decision_source, flagged, processing_time_ms
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		h.ReportID,
		h.ImageCategory, h.ImageConfidence,
		h.TextCategory, h.TextConfidence,
		h.VoiceCategory, h.VoiceConfidence,
		h.BestCategory, h.BestConfidence, h.BestSource,
		h.ConsensusCategory, h.ConsensusConfidence, h.ConsensusVotes,
		h.FinalCategory, h.DecisionSource, h.Flagged, h.ProcessingTimeMs,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		return fmt.Errorf("create analysis history for report %s: %w", h.ReportID, err)
	}

	return nil
}

// ListByReportID returns the newest analysis passes for one report.
func (r *HistoryRepository) ListByReportID(ctx context.Context, reportID string, limit int) ([]domain.AnalysisHistory, error) {
	var rows []domain.AnalysisHistory
	query := `
		SELECT id, report_id,
		       image_category, image_confidence,
		       text_category, text_confidence,
		       voice_category, voice_confidence,
		       best_category, best_confidence, best_source,
		       consensus_category, consensus_confidence, consensus_votes,
		       final_category, decision_source, flagged, processing_time_ms,
		       created_at
		FROM analysis_history
		WHERE report_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &rows, query, reportID, limit); err != nil {
		return nil, fmt.Errorf("list analysis history for report %s: %w", reportID, err)
	}

	return rows, nil
}
