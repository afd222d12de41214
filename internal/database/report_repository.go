package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/civicpulse/classifier/internal/domain"
)

// ReportRepository handles database operations for reports. Only the
// classification-owned columns are written here.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `
	id, status, description, photo_url, voice_url, voice_transcript,
	user_category, ai_status, ai_category, ai_category_confidence,
	ai_category_image, ai_category_image_confidence,
	ai_category_text, ai_category_text_confidence,
	ai_category_voice, ai_category_voice_confidence,
	ai_category_consensus, ai_category_consensus_confidence,
	final_category, content_safety_flag, content_safety_reason,
	needs_manual_review, flagged, flagged_reason,
	ai_attempts, ai_error, ai_raw_response, assigned_department,
	created_at, updated_at`

// GetByID fetches a report by id. Returns domain.ErrReportNotFound when the
// id does not exist.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	var report domain.Report
	query := `SELECT` + reportColumns + ` FROM reports WHERE id = $1`

	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("report %s: %w", id, domain.ErrReportNotFound)
		}
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	return &report, nil
}

// SetAIStatus updates only the processing status column.
func (r *ReportRepository) SetAIStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET ai_status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set ai status for report %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", id, domain.ErrReportNotFound)
	}
	return nil
}

// Update persists every classification-owned field of the report.
func (r *ReportRepository) Update(ctx context.Context, report *domain.Report) error {
	query := `
		UPDATE reports SET
			status = :status,
			voice_transcript = :voice_transcript,
			user_category = :user_category,
			ai_status = :ai_status,
			ai_category = :ai_category,
			ai_category_confidence = :ai_category_confidence,
			ai_category_image = :ai_category_image,
			ai_category_image_confidence = :ai_category_image_confidence,
			ai_category_text = :ai_category_text,
			ai_category_text_confidence = :ai_category_text_confidence,
			ai_category_voice = :ai_category_voice,
			ai_category_voice_confidence = :ai_category_voice_confidence,
			ai_category_consensus = :ai_category_consensus,
			ai_category_consensus_confidence = :ai_category_consensus_confidence,
			final_category = :final_category,
			content_safety_flag = :content_safety_flag,
			content_safety_reason = :content_safety_reason,
			needs_manual_review = :needs_manual_review,
			flagged = :flagged,
			flagged_reason = :flagged_reason,
			ai_attempts = :ai_attempts,
			ai_error = :ai_error,
			ai_raw_response = :ai_raw_response,
			assigned_department = :assigned_department,
			updated_at = NOW()
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, report)
	if err != nil {
		return fmt.Errorf("update report %s: %w", report.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", report.ID, domain.ErrReportNotFound)
	}
	return nil
}

// CountByAIStatus returns how many reports carry each processing status.
func (r *ReportRepository) CountByAIStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT ai_status, COUNT(*) FROM reports GROUP BY ai_status`,
	)
	if err != nil {
		return nil, fmt.Errorf("count reports by ai status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan ai status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ai status counts: %w", err)
	}

	return counts, nil
}
