// Package routing assigns classified reports to the department owning
// their final category and notifies that department's admins.
package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
)

// DepartmentStore resolves categories to departments.
type DepartmentStore interface {
	GetByCategory(ctx context.Context, category string) (*domain.Department, error)
	ListAdminIDs(ctx context.Context, departmentID int64) ([]int64, error)
}

// NotificationStore persists admin notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// Router performs best-effort department assignment. Routing failures are
// logged and swallowed: a report with no department is still classified.
type Router struct {
	departments   DepartmentStore
	notifications NotificationStore
	logger        logging.Logger
}

// NewRouter creates a router.
func NewRouter(departments DepartmentStore, notifications NotificationStore, logger logging.Logger) *Router {
	return &Router{
		departments:   departments,
		notifications: notifications,
		logger:        logger,
	}
}

// Assign resolves the department for category and notifies its admins.
// Returns the department name, or an empty string when no active department
// owns the category or the lookup failed.
func (r *Router) Assign(ctx context.Context, reportID, category string) string {
	dept, err := r.departments.GetByCategory(ctx, category)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("no department for category",
				logging.String("report_id", reportID),
				logging.String("category", category))
		} else {
			r.logger.Warn("department lookup failed",
				logging.String("report_id", reportID),
				logging.Error(err))
		}
		return ""
	}

	admins, err := r.departments.ListAdminIDs(ctx, dept.ID)
	if err != nil {
		r.logger.Warn("listing department admins failed",
			logging.String("department", dept.Name),
			logging.Error(err))
		return dept.Name
	}

	for _, userID := range admins {
		n := &domain.Notification{
			UserID:   userID,
			ReportID: reportID,
			Title:    "New report assigned",
			Message:  fmt.Sprintf("Report %s was categorized as %s and assigned to %s.", reportID, category, dept.Name),
		}
		if err := r.notifications.Create(ctx, n); err != nil {
			r.logger.Warn("admin notification failed",
				logging.String("report_id", reportID),
				logging.Int64("user_id", userID),
				logging.Error(err))
		}
	}

	r.logger.Info("report routed",
		logging.String("report_id", reportID),
		logging.String("category", category),
		logging.String("department", dept.Name),
		logging.Int("admins_notified", len(admins)))

	return dept.Name
}
