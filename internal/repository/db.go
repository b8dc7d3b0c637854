package repository

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"linecheck/internal/model"
)

// NewDB opens the SQLite store at dsn and migrates the schema.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "linecheck.db"
	}

	if !memoryDSN(dsn) {
		if err := ensureParentDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if memoryDSN(dsn) {
		// Every pooled connection gets its own in-memory database, so the
		// schema must be migrated on the only connection queries will use.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("configure db pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Session{},
		&model.Location{},
		&model.TaskList{},
		&model.Task{},
		&model.TaskInstance{},
		&model.TaskCompletion{},
		&model.Checkout{},
		&model.AuditRecord{},
	)
	if err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

func memoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// ensureParentDir creates the directory for a file-backed DSN. SQLite will
// not create missing intermediate directories on its own.
func ensureParentDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
