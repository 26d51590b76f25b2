package runstore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yewpar-go/yewpar/pkg/config"
)

// openSQLite opens a sqlite-backed GORM connection, the CLI's default
// store for single-process local runs where standing up Postgres or
// MySQL would be disproportionate. cfg.Database is the database file
// path, or ":memory:" for an ephemeral store.
func openSQLite(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	path := cfg.Database
	if path == "" {
		path = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite run store: %w", err)
	}
	return db, nil
}
