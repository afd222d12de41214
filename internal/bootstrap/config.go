// Package bootstrap composes the service from its parts. The binaries in
// cmd/ stay thin and delegate here.
package bootstrap

import (
	"fmt"
	"log"

	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/logging"
)

// LoadConfig loads configuration. Uses defaults if the file doesn't exist.
func LoadConfig() (*config.Config, error) {
	path := config.GetConfigPath("config.yml")

	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("Warning: failed to load config file (%s), using defaults: %v", path, err)
		return config.Defaults(), nil
	}
	return cfg, nil
}

// CreateLogger creates a logger instance from configuration.
func CreateLogger(cfg *config.Config) (logging.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Service.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger.With(logging.String("service", cfg.Service.Name)), nil
}
