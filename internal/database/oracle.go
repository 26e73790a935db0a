package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/godror/godror" // Oracle Driver
	"go.uber.org/zap"
)

// ErrArchiveDisabled is returned by InitLogArchive when no archive connection is configured.
var ErrArchiveDisabled = errors.New("log archive is not configured")

// InitLogArchive opens the Oracle pool that receives shipped log batches.
// The handle is returned even when the first ping fails; database/sql
// reconnects lazily and the log processor retries on connection errors.
func InitLogArchive(connString string, logger *zap.Logger) (*sql.DB, error) {
	if connString == "" {
		return nil, ErrArchiveDisabled
	}
	logger.Info("Initializing Oracle log archive pool...")

	db, err := sql.Open("godror", connString)
	if err != nil {
		logger.Error("Failed to open Oracle log archive pool", zap.Error(err))
		return nil, fmt.Errorf("failed to configure oracle connection pool: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = db.PingContext(ctx)
	cancel()
	if err != nil {
		logger.Warn("Initial Oracle archive ping failed, pool created but connection may establish later", zap.Error(err))
		return db, nil
	}

	logger.Info("Oracle log archive pool initialized and initial ping successful.")
	return db, nil
}
