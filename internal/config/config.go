package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap" // Use logger for loading errors
)

// ErrMissingJWTSecret is returned when no token signing key is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

// Config holds all configuration for the application
type Config struct {
	AppEnv           string
	AppName          string
	Port             string
	Prefork          bool
	CORSAllowOrigins string
	CORSAllowMethods string
	CORSAllowHeaders string

	// --- Auth ---
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	// --- Domain store (gorm) ---
	DBDriver         string // sqlite | postgres
	DatabaseDSN      string
	DBMaxOpenConns   int
	DBMaxIdleConns   int
	DBSlowQueryLimit time.Duration

	// --- Log sink / archive ---
	SQLiteDBPath                        string
	SQLLiteLogEnabled                   bool
	SQLLiteLogLevel                     string
	LogArchiveOracleConn                string
	LogFilePath                         string
	LogLevel                            string
	LogRotateInterval                   int // Hour
	LogMaxSize                          int // MB
	LogMaxBackups                       int
	LogMaxAge                           int // Days
	LogCompress                         bool
	LogBatchInterval                    time.Duration
	LogProcessorBatchSize               int // Number of logs per batch transfer
	LogProcessorOracleRetryAttempts     int // Max retries for Oracle insert on connection error
	LogProcessorOracleRetryDelaySeconds int // Delay between retries in seconds

	// --- Uploads ---
	UploadDir      string
	UploadMaxBytes int64

	// --- Dashboard / metrics ---
	DashboardRequireAuth bool
	DashboardRecentLimit int
	MetricsEnabled       bool
}

// LoadConfig reads configuration from environment variables or .env file
func LoadConfig(logger *zap.Logger) (*Config, error) { // logger can be nil here
	if logger == nil {
		logger = zap.NewNop()
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "local"
	}

	envFileName := fmt.Sprintf(".env.%s", appEnv)
	if _, err := os.Stat(envFileName); err == nil {
		if err := godotenv.Load(envFileName); err != nil {
			logger.Warn("Error loading .env file, continuing with environment variables", zap.String("file", envFileName), zap.Error(err))
		} else {
			logger.Info("Loaded configuration", zap.String("file", envFileName))
		}
	} else if appEnv == "local" {
		logger.Warn(".env.local not found, relying on environment variables or defaults")
	} else {
		logger.Warn("No specific .env file found for environment, relying on environment variables or defaults", zap.String("environment", appEnv))
	}

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "local"),
		AppName: getEnv("APP_NAME", "member-admin-api"),
		Port:    getEnv("PORT", "5000"),
		Prefork: getEnvAsBool("PREFORK", false),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		JWTTTL:     time.Duration(getEnvAsInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		// --- Load Store Settings ---
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseDSN:      getEnv("DATABASE_DSN", "./data/members.db"),
		DBMaxOpenConns:   getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		DBMaxIdleConns:   getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBSlowQueryLimit: time.Duration(getEnvAsInt("DB_SLOW_QUERY_MS", 200)) * time.Millisecond,
		// --- End Load Store Settings ---

		SQLiteDBPath:         getEnv("SQLITE_DB_PATH", "./logs/logs.db"),
		SQLLiteLogEnabled:    getEnvAsBool("SQLITE_LOG_ENABLED", true),
		SQLLiteLogLevel:      strings.ToLower(getEnv("SQLITE_LOG_LEVEL", "info")),
		LogArchiveOracleConn: getEnv("LOG_ARCHIVE_ORACLE_CONN", ""),
		LogFilePath:          getEnv("LOG_FILE_PATH", "./logs/app.log"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogRotateInterval:    getEnvAsInt("LOG_ROTATE_INTERVAL", 24),
		LogMaxSize:           getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups:        getEnvAsInt("LOG_MAX_BACKUPS", 5),
		LogMaxAge:            getEnvAsInt("LOG_MAX_AGE", 30),
		LogCompress:          getEnvAsBool("LOG_COMPRESS", false),

		UploadDir:      getEnv("UPLOAD_DIR", "./uploads"),
		UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),

		DashboardRequireAuth: getEnvAsBool("DASHBOARD_REQUIRE_AUTH", true),
		DashboardRecentLimit: getEnvAsInt("DASHBOARD_RECENT_LIMIT", 10),
		MetricsEnabled:       getEnvAsBool("METRICS_ENABLED", true),

		// --- Load CORS Settings ---
		// Default AllowOrigins to "*" for local, empty for others (forcing explicit setting)
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", func() string {
			if getEnv("APP_ENV", "local") == "local" || getEnv("APP_ENV", "local") == "development" {
				return "*"
			}
			return ""
		}()),
		CORSAllowMethods: getEnv("CORS_ALLOW_METHODS", "GET,POST,HEAD,PUT,DELETE,PATCH"),
		CORSAllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Type,Accept,Authorization"),
		// --- End Load CORS ---

		// --- Load Log Processor Settings ---
		LogProcessorBatchSize:               getEnvAsInt("LOG_PROCESSOR_BATCH_SIZE", 100),
		LogProcessorOracleRetryAttempts:     getEnvAsInt("LOG_PROCESSOR_ORACLE_RETRY_ATTEMPTS", 3),
		LogProcessorOracleRetryDelaySeconds: getEnvAsInt("LOG_PROCESSOR_ORACLE_RETRY_DELAY_SECONDS", 30),
		// --- End Load Log Processor ---
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "dpanic": true, "panic": true, "fatal": true}
	if !validLevels[cfg.LogLevel] {
		logger.Warn("Invalid LOG_LEVEL specified, defaulting to 'info'", zap.String("invalidLevel", cfg.LogLevel))
		cfg.LogLevel = "info"
	}
	if !validLevels[cfg.SQLLiteLogLevel] {
		logger.Warn("Invalid SQLITE_LOG_LEVEL specified, defaulting to 'info'", zap.String("invalidLevel", cfg.SQLLiteLogLevel))
		cfg.SQLLiteLogLevel = "info"
	}

	batchIntervalSec := getEnvAsInt("LOG_BATCH_INTERVAL_SECONDS", 60)
	cfg.LogBatchInterval = time.Duration(batchIntervalSec) * time.Second

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return nil, err
	}

	// Create upload directory if it doesnt exist
	if _, err := os.Stat(cfg.UploadDir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
			logger.Error("Failed to create upload directory", zap.String("path", cfg.UploadDir), zap.Error(err))
			return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.UploadDir, err)
		}
		logger.Info("Created upload directory", zap.String("path", cfg.UploadDir))
	}

	return cfg, nil
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected sqlite or postgres)", c.DBDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.AppEnv != "local" && c.AppEnv != "development" && c.AppEnv != "test" && (c.CORSAllowOrigins == "*" || c.CORSAllowOrigins == "") {
		return fmt.Errorf("CORS_ALLOW_ORIGINS must be set explicitly in production environments")
	}
	return nil
}

// Helper function to get env var or default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper function to get env var as int or default
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper function to get env var as bool or default
func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
