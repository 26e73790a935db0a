package logging

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"member-admin-api/internal/config"
	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"go.uber.org/zap"
)

var errProcessorStopped = errors.New("processor stopped")

// ArchiveConnector opens a fresh archive pool; the processor calls it after connection errors.
type ArchiveConnector func() (*sql.DB, error)

// LogProcessor moves tbl_log rows from the SQLite sink into the Oracle archive.
type LogProcessor struct {
	logRepo    repositories.LogRepository
	logger     *zap.Logger
	connect    ArchiveConnector
	interval   time.Duration
	batchSize  int
	attempts   int
	retryDelay time.Duration

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewLogProcessor creates a new LogProcessor instance
func NewLogProcessor(cfg *config.Config, logRepo repositories.LogRepository, connect ArchiveConnector, logger *zap.Logger) *LogProcessor {
	p := &LogProcessor{
		logRepo:    logRepo,
		logger:     logger.With(zap.String("component", "log_processor")),
		connect:    connect,
		interval:   cfg.LogBatchInterval,
		batchSize:  cfg.LogProcessorBatchSize,
		attempts:   cfg.LogProcessorOracleRetryAttempts,
		retryDelay: time.Duration(cfg.LogProcessorOracleRetryDelaySeconds) * time.Second,
	}
	if p.interval <= 0 {
		p.interval = time.Minute
	}
	if p.batchSize <= 0 {
		p.batchSize = 100
	}
	if p.attempts <= 0 {
		p.attempts = 1
	}
	return p
}

// Start begins the log processing loop in a separate goroutine
func (p *LogProcessor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.logger.Warn("Log processor already running")
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stopChan, p.done)
	p.logger.Info("SQLite to archive log processor started", zap.Duration("interval", p.interval))
}

// Stop terminates the loop, then ships one final batch.
func (p *LogProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		p.logger.Warn("Log processor not running")
		return
	}
	p.running = false
	close(p.stopChan)
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Info("Processing final log batch before shutdown...")
	ctx, cancel := context.WithTimeout(context.Background(), p.retryDelay+5*time.Second)
	defer cancel()
	p.ProcessBatch(ctx, nil)
	p.logger.Info("Log processor stopped.")
}

func (p *LogProcessor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			p.ProcessBatch(ctx, stop)
			cancel()
		case <-stop:
			return
		}
	}
}

// ProcessBatch ships one batch. Rows are deleted from SQLite only after the archive commit succeeds.
// stop may be nil.
func (p *LogProcessor) ProcessBatch(ctx context.Context, stop <-chan struct{}) int {
	logs, err := p.logRepo.PendingLogs(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("Failed to read pending logs from SQLite", zap.Error(err))
		return 0
	}
	if len(logs) == 0 {
		return 0
	}

	if err := p.archiveWithRetry(ctx, stop, logs); err != nil {
		p.logger.Warn("Failed to archive log batch; rows kept in SQLite", zap.Error(err), zap.Int("log_count", len(logs)))
		return 0
	}

	ids := make([]int64, len(logs))
	for i, entry := range logs {
		ids[i] = entry.ID
	}
	if err := p.logRepo.DeleteLogsByID(ctx, ids); err != nil {
		p.logger.Error("Failed to delete archived logs from SQLite; rows will be archived again", zap.Error(err), zap.Int64s("log_ids", ids))
		return 0
	}
	p.logger.Info("Processed and transferred log batch", zap.Int("count", len(logs)))
	return len(logs)
}

func (p *LogProcessor) archiveWithRetry(ctx context.Context, stop <-chan struct{}, logs []models.LogEntry) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = p.logRepo.ArchiveBatch(ctx, logs)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, repositories.ErrArchiveConnection) || attempt == p.attempts {
			return lastErr
		}

		p.logger.Warn("Archive insert failed (connection issue), reconnecting before retry",
			zap.Error(lastErr), zap.Int("attempt", attempt), zap.Int("max_attempts", p.attempts))
		p.reconnect(ctx)

		select {
		case <-time.After(p.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return errProcessorStopped
		}
	}
	return lastErr
}

func (p *LogProcessor) reconnect(ctx context.Context) {
	if p.connect == nil {
		return
	}
	db, err := p.connect()
	if err != nil || db == nil {
		p.logger.Error("Processor failed to open archive connection", zap.Error(err))
		return
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		p.logger.Error("Archive handle opened but ping failed", zap.Error(err))
		db.Close()
		return
	}
	p.logRepo.SetArchiveDB(db)
	p.logger.Info("Archive connection re-established")
}
