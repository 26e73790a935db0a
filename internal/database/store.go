package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"member-admin-api/internal/config"
	"member-admin-api/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// StoreModels lists every table managed by AutoMigrate, in dependency order.
var StoreModels = []interface{}{
	&models.Role{},
	&models.User{},
	&models.Member{},
	&models.ActivityLog{},
}

// OpenStore opens the relational store selected by cfg.DBDriver and migrates the schema.
func OpenStore(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	logger.Info("Initializing domain store...", zap.String("driver", cfg.DBDriver))

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		if err := ensureSQLiteDir(cfg.DatabaseDSN, logger); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(sqliteDSN(cfg.DatabaseDSN))
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(logger, cfg.DBSlowQueryLimit),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		logger.Error("Failed to open domain store", zap.String("driver", cfg.DBDriver), zap.Error(err))
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access store pool: %w", err)
	}
	if cfg.DBDriver == "sqlite" {
		// SQLite serialises writers; a single connection avoids SQLITE_BUSY under concurrent requests.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		logger.Error("Failed to migrate domain store", zap.Error(err))
		return nil, err
	}

	logger.Info("Domain store initialized successfully", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// Migrate creates or updates the domain tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(StoreModels...); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	return nil
}

// CloseStore releases the pool behind db.
func CloseStore(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_foreign_keys=on&_busy_timeout=5000"
}

func ensureSQLiteDir(dsn string, logger *zap.Logger) error {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." || dir == "/" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Error("Failed to create store directory", zap.String("path", dir), zap.Error(err))
		return fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}
	return nil
}
