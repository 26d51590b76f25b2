package runstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yewpar-go/yewpar/internal/repository"
	"github.com/yewpar-go/yewpar/pkg/config"
)

// Store defines the interface for run-history operations. Mirrors the
// shape of the teacher's repository.TaskRepository: context-first
// methods, errors wrapped with operation context.
type Store interface {
	// SaveRun inserts a completed (or failed) run record.
	SaveRun(ctx context.Context, run *Run) error

	// GetRunByUUID retrieves a run by its UUID.
	GetRunByUUID(ctx context.Context, uuid string) (*Run, error)

	// ListRuns retrieves the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
}

// GormStore implements Store using GORM, adapted directly from the
// teacher's GormTaskRepository (same WithContext/error-wrapping shape,
// a single table instead of four).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// SaveRun inserts a completed (or failed) run record.
func (s *GormStore) SaveRun(ctx context.Context, run *Run) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRunByUUID retrieves a run by its UUID.
func (s *GormStore) GetRunByUUID(ctx context.Context, uuid string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("run not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *GormStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	var runs []*Run
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// OpenDB opens a GORM connection for the run store, delegating to the
// teacher's repository.NewGormDB for postgres/mysql and adding a
// sqlite dialector (via config.DatabaseConfig.Type == "sqlite") for
// the single-process CLI's default local database, then migrating the
// Run table.
func OpenDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.Type == "sqlite" {
		db, err := openSQLite(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&Run{}); err != nil {
			return nil, fmt.Errorf("failed to migrate run store schema: %w", err)
		}
		return db, nil
	}

	db, err := repository.NewGormDB(&repository.DBConfig{
		Type:     cfg.Type,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
		MaxConns: cfg.MaxConns,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("failed to migrate run store schema: %w", err)
	}
	return db, nil
}
