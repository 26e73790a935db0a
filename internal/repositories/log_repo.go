package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"member-admin-api/internal/models"

	"go.uber.org/zap"
)

// ErrArchiveConnection is returned when an archive operation fails because the Oracle pool is unreachable.
var ErrArchiveConnection = errors.New("log archive connection error")

// LogRepository stores log rows in the local SQLite sink and ships them to the archive.
type LogRepository interface {
	InsertLog(ctx context.Context, entry models.LogEntry) error
	PendingLogs(ctx context.Context, limit int) ([]models.LogEntry, error)
	DeleteLogsByID(ctx context.Context, ids []int64) error
	ArchiveBatch(ctx context.Context, logs []models.LogEntry) error

	SetSinkDB(db *sql.DB)
	SetArchiveDB(db *sql.DB)
}

type logRepositoryImpl struct {
	mu        sync.RWMutex
	sinkDB    *sql.DB
	archiveDB *sql.DB // nil when archiving is disabled or not yet connected
	logger    *zap.Logger
}

// NewLogRepository creates a new LogRepository. Either handle may be nil and set later.
func NewLogRepository(sinkDB, archiveDB *sql.DB, logger *zap.Logger) LogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logRepositoryImpl{
		sinkDB:    sinkDB,
		archiveDB: archiveDB,
		logger:    logger,
	}
}

func (r *logRepositoryImpl) sink() *sql.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sinkDB
}

func (r *logRepositoryImpl) archive() *sql.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.archiveDB
}

// InsertLog writes one row into tbl_log. It is a no-op error while the sink is not open yet.
// It must not log through the SQLite logger, which calls back into it.
func (r *logRepositoryImpl) InsertLog(ctx context.Context, entry models.LogEntry) error {
	db := r.sink()
	if db == nil {
		return errors.New("sqlite log sink is not initialized")
	}
	fieldsJSON := entry.Fields
	if fieldsJSON == "" {
		fieldsJSON = "{}"
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO tbl_log (timestamp, level, message, fields) VALUES (?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Level, entry.Message, fieldsJSON)
	if err != nil {
		return fmt.Errorf("sqlite insert failed: %w", err)
	}
	return nil
}

// PendingLogs returns up to limit oldest rows from tbl_log.
func (r *logRepositoryImpl) PendingLogs(ctx context.Context, limit int) ([]models.LogEntry, error) {
	db := r.sink()
	if db == nil {
		return nil, errors.New("sqlite log sink is not initialized")
	}
	rows, err := db.QueryContext(ctx, `SELECT id, timestamp, level, message, fields FROM tbl_log ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		r.logger.Error("Failed to query logs from SQLite", zap.Error(err))
		return nil, fmt.Errorf("sqlite query failed: %w", err)
	}
	defer rows.Close()

	var logs []models.LogEntry
	for rows.Next() {
		var (
			entry  models.LogEntry
			tsStr  string
			fields sql.NullString
		)
		if err := rows.Scan(&entry.ID, &tsStr, &entry.Level, &entry.Message, &fields); err != nil {
			r.logger.Error("Failed to scan log row from SQLite", zap.Error(err))
			continue
		}
		entry.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			r.logger.Warn("Failed to parse timestamp from SQLite", zap.String("raw_ts", tsStr), zap.Error(err))
			entry.Timestamp = time.Now().UTC()
		}
		entry.Fields = "{}"
		if fields.Valid {
			entry.Fields = fields.String
		}
		logs = append(logs, entry)
	}
	if err = rows.Err(); err != nil {
		r.logger.Error("Error during iteration over SQLite log rows", zap.Error(err))
		return nil, fmt.Errorf("sqlite row iteration error: %w", err)
	}
	return logs, nil
}

// DeleteLogsByID removes shipped rows from tbl_log.
func (r *logRepositoryImpl) DeleteLogsByID(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	db := r.sink()
	if db == nil {
		return errors.New("sqlite log sink is not initialized")
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`DELETE FROM tbl_log WHERE id IN (%s)`, strings.Join(placeholders, ","))
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete logs from SQLite", zap.Error(err))
		return fmt.Errorf("sqlite delete failed: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	r.logger.Debug("Deleted logs from SQLite", zap.Int64("rows_affected", rowsAffected), zap.Int("id_count", len(ids)))
	return nil
}

// ArchiveBatch inserts logs into the Oracle tbl_log in one transaction.
// Connection failures are wrapped with ErrArchiveConnection so callers can retry.
func (r *logRepositoryImpl) ArchiveBatch(ctx context.Context, logs []models.LogEntry) error {
	if len(logs) == 0 {
		return nil
	}
	db := r.archive()
	if db == nil {
		return fmt.Errorf("archive handle is nil: %w", ErrArchiveConnection)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err := db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		r.logger.Warn("Archive ping failed before batch insert", zap.Error(err))
		return fmt.Errorf("archive ping failed: %w", ErrArchiveConnection)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return r.wrapArchiveErr("begin tx", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tbl_log (log_timestamp, log_level, log_message, log_details) VALUES (:1, :2, :3, :4)`)
	if err != nil {
		return r.wrapArchiveErr("prepare", err)
	}
	defer stmt.Close()

	for _, entry := range logs {
		fieldsData := entry.Fields
		if fieldsData == "" {
			fieldsData = "{}"
		}
		if _, err := stmt.ExecContext(ctx, entry.Timestamp, entry.Level, entry.Message, fieldsData); err != nil {
			r.logger.Error("Archive batch insert failed", zap.Error(err), zap.Int64("sqlite_id", entry.ID))
			return r.wrapArchiveErr("exec", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return r.wrapArchiveErr("commit", err)
	}
	r.logger.Debug("Archived log batch", zap.Int("batch_size", len(logs)))
	return nil
}

func (r *logRepositoryImpl) wrapArchiveErr(op string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("archive %s failed: %w: %w", op, err, ErrArchiveConnection)
	}
	return fmt.Errorf("archive %s failed: %w", op, err)
}

// SetSinkDB installs the SQLite handle once it is opened.
func (r *logRepositoryImpl) SetSinkDB(db *sql.DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinkDB = db
}

// SetArchiveDB replaces the archive handle (e.g. after the processor reconnects) and closes the previous one.
// Only the log processor uses the archive handle, so nothing else can hold the old pool.
func (r *logRepositoryImpl) SetArchiveDB(db *sql.DB) {
	r.mu.Lock()
	old := r.archiveDB
	r.archiveDB = db
	r.mu.Unlock()
	if old != nil && old != db {
		if err := old.Close(); err != nil {
			r.logger.Warn("Failed to close replaced archive handle", zap.Error(err))
		}
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, ErrArchiveConnection) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{"ora-03113", "ora-03114", "ora-125", "connection refused", "network error", "i/o error", "broken pipe", "reset by peer", "timeout"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
