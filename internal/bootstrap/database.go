package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/database"
	"github.com/civicpulse/classifier/internal/logging"
)

// DatabaseComponents holds the database connection and repositories.
type DatabaseComponents struct {
	DB            *sqlx.DB
	Reports       *database.ReportRepository
	Departments   *database.DepartmentRepository
	Notifications *database.NotificationRepository
	History       *database.HistoryRepository
}

// SetupDatabase creates the database connection and repositories.
func SetupDatabase(cfg *config.Config, logger logging.Logger) (*DatabaseComponents, error) {
	logger.Info("connecting to postgres",
		logging.String("host", cfg.Database.Host),
		logging.Int("port", cfg.Database.Port),
		logging.String("database", cfg.Database.Database))

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &DatabaseComponents{
		DB:            db,
		Reports:       database.NewReportRepository(db),
		Departments:   database.NewDepartmentRepository(db),
		Notifications: database.NewNotificationRepository(db),
		History:       database.NewHistoryRepository(db),
	}, nil
}
