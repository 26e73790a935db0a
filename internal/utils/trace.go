package utils

import (
	"member-admin-api/internal/config"

	"go.uber.org/zap"
)

// TraceConfigDetails logs the effective configuration at debug level with secrets masked.
func TraceConfigDetails(logger *zap.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Debug("Loaded application configuration details",
		zap.String("AppEnv", cfg.AppEnv),
		zap.String("AppName", cfg.AppName),
		zap.String("Port", cfg.Port),
		zap.Bool("Prefork", cfg.Prefork),
		zap.String("JWTSecret", MaskSecret(cfg.JWTSecret)),
		zap.Duration("JWTTTL", cfg.JWTTTL),
		zap.Int("BcryptCost", cfg.BcryptCost),
		zap.String("DBDriver", cfg.DBDriver),
		zap.String("DatabaseDSN", MaskDSN(cfg.DatabaseDSN)),
		zap.Int("DBMaxOpenConns", cfg.DBMaxOpenConns),
		zap.Int("DBMaxIdleConns", cfg.DBMaxIdleConns),
		zap.Duration("DBSlowQueryLimit", cfg.DBSlowQueryLimit),
		zap.String("SQLiteDBPath", cfg.SQLiteDBPath),
		zap.Bool("SQLiteLogEnabled", cfg.SQLLiteLogEnabled),
		zap.String("SQLiteLogLevel", cfg.SQLLiteLogLevel),
		zap.String("LogArchiveOracleConn", MaskDSN(cfg.LogArchiveOracleConn)),
		zap.String("LogFilePath", cfg.LogFilePath),
		zap.String("LogLevel", cfg.LogLevel),
		zap.Int("LogRotateIntervalHours", cfg.LogRotateInterval),
		zap.Int("LogMaxSizeMB", cfg.LogMaxSize),
		zap.Int("LogMaxBackups", cfg.LogMaxBackups),
		zap.Int("LogMaxAgeDays", cfg.LogMaxAge),
		zap.Bool("LogCompress", cfg.LogCompress),
		zap.Duration("LogProcessor_BatchInterval", cfg.LogBatchInterval),
		zap.Int("LogProcessor_BatchSize", cfg.LogProcessorBatchSize),
		zap.String("UploadDir", cfg.UploadDir),
		zap.Int64("UploadMaxBytes", cfg.UploadMaxBytes),
		zap.Bool("DashboardRequireAuth", cfg.DashboardRequireAuth),
		zap.Int("DashboardRecentLimit", cfg.DashboardRecentLimit),
		zap.Bool("MetricsEnabled", cfg.MetricsEnabled),
		zap.String("CORS_AllowOrigins", cfg.CORSAllowOrigins),
	)
}
