package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"member-admin-api/internal/config"
	"member-admin-api/internal/models"
	"member-admin-api/internal/repositories"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	globalFileLogger   *zap.Logger
	globalSQLiteLogger *zap.Logger // Can be nil
	globalLoggersMu    sync.RWMutex
)

func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = "\x1b[35m" // Magenta
	case zapcore.InfoLevel:
		color = "\x1b[32m" // Green
	case zapcore.WarnLevel:
		color = "\x1b[33m" // Yellow
	default:
		color = "\x1b[31m" // Red
	}
	enc.AppendString(color + "[" + level.CapitalString() + "]\x1b[0m")
}

// CreateFileConsoleEncoderConfigs sets up the encoder configurations.
func CreateFileConsoleEncoderConfigs() (zapcore.EncoderConfig, zapcore.EncoderConfig) {
	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.EncodeLevel = customColorLevelEncoder
	consoleEncoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	fileEncoderCfg := zap.NewProductionEncoderConfig()
	fileEncoderCfg.EncodeLevel = customLevelEncoder
	fileEncoderCfg.TimeKey = "timestamp"
	fileEncoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	fileEncoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	return consoleEncoderCfg, fileEncoderCfg
}

func parseLevel(raw string, fallback zapcore.Level) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(raw)); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Invalid log level '%s', defaulting to %s: %v\n", raw, fallback, err)
		return fallback
	}
	return lvl
}

// NewFileLogger builds the console + file logger. fileSyncer is normally a timberjack writer.
func NewFileLogger(cfg *config.Config, fileSyncer zapcore.WriteSyncer) *zap.Logger {
	level := parseLevel(cfg.LogLevel, zapcore.InfoLevel)
	consoleEncoderCfg, fileEncoderCfg := CreateFileConsoleEncoderConfigs()

	consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderCfg), zapcore.Lock(os.Stdout), level)
	fileCore := zapcore.NewCore(zapcore.NewConsoleEncoder(fileEncoderCfg), fileSyncer, level)

	logger := zap.New(zapcore.NewTee(consoleCore, fileCore), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	logger.Info("File/Console application logger initialized",
		zap.String("environment", cfg.AppEnv),
		zap.String("effectiveLevel", level.String()),
		zap.String("logFile", cfg.LogFilePath),
	)
	return logger
}

// NewSQLiteLogger builds the dedicated logger writing into tbl_log through repo.
// It returns a no-op logger when SQLite logging is disabled.
func NewSQLiteLogger(cfg *config.Config, repo repositories.LogRepository) *zap.Logger {
	if !cfg.SQLLiteLogEnabled || repo == nil {
		return zap.NewNop()
	}
	level := parseLevel(cfg.SQLLiteLogLevel, zapcore.InfoLevel)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	core := NewSQLiteCore(level, zapcore.NewJSONEncoder(encoderCfg), encoderCfg, repo)
	return zap.New(core, zap.AddCaller())
}

// --- Custom SQLite Zap Core ---

// sqliteCore implements zapcore.Core and writes logs to SQLite via a LogRepository.
type sqliteCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	cfg     zapcore.EncoderConfig
	repo    repositories.LogRepository
	fields  []zapcore.Field // Fields added via logger.With()
}

// NewSQLiteCore creates a new core for writing logs to SQLite.
func NewSQLiteCore(enab zapcore.LevelEnabler, enc zapcore.Encoder, cfg zapcore.EncoderConfig, repo repositories.LogRepository) zapcore.Core {
	return &sqliteCore{
		LevelEnabler: enab,
		encoder:      enc.Clone(),
		cfg:          cfg,
		repo:         repo,
	}
}

func (c *sqliteCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *sqliteCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write flattens the accumulated fields into a JSON object and stores the entry.
// Insert failures go to stderr; logging must never fail the caller.
func (c *sqliteCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	mapEncoder := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(mapEncoder)
	}
	for _, field := range fields {
		field.AddTo(mapEncoder)
	}

	logEntry := models.LogEntry{
		Timestamp: ent.Time,
		Level:     ent.Level.String(),
		Message:   ent.Message,
		Fields:    "{}",
	}
	if len(mapEncoder.Fields) > 0 {
		if b, err := json.Marshal(mapEncoder.Fields); err == nil {
			logEntry.Fields = string(b)
		} else {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to marshal fields for SQLite log: %v\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.repo.InsertLog(ctx, logEntry); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to insert log entry into SQLite: %v\n", err)
	}
	return nil
}

func (c *sqliteCore) Sync() error {
	return nil
}

func (c *sqliteCore) clone() *sqliteCore {
	return &sqliteCore{
		LevelEnabler: c.LevelEnabler,
		encoder:      c.encoder.Clone(),
		cfg:          c.cfg,
		repo:         c.repo,
		fields:       append([]zapcore.Field(nil), c.fields...),
	}
}

// --- Global Logger Access ---

// SetGlobalLoggers sets the fallback logger instances used outside request scope.
func SetGlobalLoggers(fileLogger, sqliteLogger *zap.Logger) {
	globalLoggersMu.Lock()
	defer globalLoggersMu.Unlock()
	globalFileLogger = fileLogger
	if sqliteLogger != nil {
		globalSQLiteLogger = sqliteLogger
	} else {
		globalSQLiteLogger = zap.NewNop()
	}
}

// GetFileLogger returns the global file/console logger, or a no-op logger before startup.
func GetFileLogger() *zap.Logger {
	globalLoggersMu.RLock()
	l := globalFileLogger
	globalLoggersMu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// GetSQLiteLogger returns the global SQLite logger.
// Returns a Nop logger if SQLite logging was disabled or not initialized.
func GetSQLiteLogger() *zap.Logger {
	globalLoggersMu.RLock()
	l := globalSQLiteLogger
	globalLoggersMu.RUnlock()
	if l == nil {
		return zap.NewNop()
	}
	return l
}
