package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"WaterMonitoring.influxDB/internal/repository"
)

// BootstrapService selects the database once per process.
type BootstrapService struct {
	repo repository.Repository
	log  *zap.Logger
}

// NewBootstrapService creates a new BootstrapService.
func NewBootstrapService(repo repository.Repository, log *zap.Logger) *BootstrapService {
	return &BootstrapService{repo: repo, log: log}
}

// SelectDatabase creates the named database if the store does not have it yet and
// selects it for all subsequent reads and writes.
func (s *BootstrapService) SelectDatabase(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("database name is required")
	}

	databases, err := s.repo.Databases(ctx)
	if err != nil {
		return fmt.Errorf("listing databases: %w", err)
	}

	exists := false
	for _, db := range databases {
		if db == name {
			exists = true
			break
		}
	}

	if !exists {
		s.log.Info("Database does not exist, creating it", zap.String("database", name))
		if err := s.repo.CreateDatabase(ctx, name); err != nil {
			return fmt.Errorf("creating database %q: %w", name, err)
		}
	}

	s.repo.SelectDatabase(name)
	s.log.Info("Database selected", zap.String("database", name), zap.Bool("created", !exists))
	return nil
}
