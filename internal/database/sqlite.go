package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite Driver
	"go.uber.org/zap"
)

const createLogTableSQL = `
CREATE TABLE IF NOT EXISTS tbl_log (
id INTEGER PRIMARY KEY AUTOINCREMENT,
timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
level TEXT NOT NULL,
message TEXT NOT NULL,
fields TEXT -- Store additional zap fields as JSON string
);
`

// InitLogDB opens the local SQLite log sink at path and ensures tbl_log exists.
// The directory part of path is created when missing.
func InitLogDB(path string, logger *zap.Logger) (*sql.DB, error) {
	logger.Info("Initializing SQLite log database...", zap.String("path", path))

	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("Failed to create SQLite log directory", zap.String("path", dir), zap.Error(err))
			return nil, fmt.Errorf("failed to create sqlite log directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		logger.Error("Failed to open SQLite log database", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("failed to open sqlite log database at %s: %w", path, err)
	}

	// One writer is enough for log rows.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		logger.Error("Failed to ping SQLite log database after open", zap.Error(err))
		return nil, fmt.Errorf("failed to ping sqlite log database: %w", err)
	}

	if _, err := db.Exec(createLogTableSQL); err != nil {
		db.Close()
		logger.Error("Failed to create tbl_log in SQLite", zap.Error(err))
		return nil, fmt.Errorf("failed to create sqlite table tbl_log: %w", err)
	}

	logger.Info("SQLite log database initialized successfully", zap.String("path", path))
	return db, nil
}
