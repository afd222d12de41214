package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/civicpulse/classifier/internal/domain"
)

// NotificationRepository persists in-app notifications for department admins.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts one notification and fills in its id and timestamp.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications (user_id, report_id, title, message, read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		n.UserID, n.ReportID, n.Title, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification for user %d: %w", n.UserID, err)
	}

	return nil
}
