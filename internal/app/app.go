package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"member-admin-api/internal/bootstrap"
	"member-admin-api/internal/config"
	"member-admin-api/internal/database"
	"member-admin-api/internal/logging"
	"member-admin-api/internal/repositories"
	"member-admin-api/internal/utils"

	"github.com/DeRuina/timberjack"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const shutdownTimeout = 60 * time.Second

// Run initializes and starts the application
func Run() {
	var (
		fileLogger   *zap.Logger
		sqliteLogger *zap.Logger
		logDB        *sql.DB
		archiveDB    *sql.DB
		store        *gorm.DB
		cfg          *config.Config
		err          error
		components   *bootstrap.AppComponents
		logRepo      repositories.LogRepository
	)

	initAppStartTime := time.Now()

	// --- 1. Load Configuration ---
	tempConfigLogger, _ := zap.NewProduction(zap.ErrorOutput(zapcore.Lock(os.Stderr)))
	defer tempConfigLogger.Sync()

	cfg, err = config.LoadConfig(tempConfigLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- 2. Create shared file writer (timberjack) ---
	logDir := filepath.Dir(cfg.LogFilePath)
	if logDir != "." && logDir != "/" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: Failed to ensure log directory %s exists: %v\n", logDir, err)
			os.Exit(1)
		}
	}
	timberJackLogger := &timberjack.Logger{
		Filename:         cfg.LogFilePath,
		MaxSize:          cfg.LogMaxSize,
		MaxBackups:       cfg.LogMaxBackups,
		MaxAge:           cfg.LogMaxAge,
		Compress:         cfg.LogCompress,
		LocalTime:        true,
		RotationInterval: time.Duration(cfg.LogRotateInterval) * time.Hour,
	}
	defer timberJackLogger.Close()

	// --- 3. Loggers: file/console first, then the SQLite logger on top of the log repository ---
	fileLogger = logging.NewFileLogger(cfg, zapcore.AddSync(timberJackLogger))
	logRepo = repositories.NewLogRepository(nil, nil, fileLogger)

	if cfg.SQLLiteLogEnabled {
		logDB, err = database.InitLogDB(cfg.SQLiteDBPath, fileLogger)
		if err != nil {
			fileLogger.Fatal("Failed to initialize SQLite log database", zap.Error(err))
		}
		logRepo.SetSinkDB(logDB)
	}
	sqliteLogger = logging.NewSQLiteLogger(cfg, logRepo)
	logging.SetGlobalLoggers(fileLogger, sqliteLogger)

	utils.TraceConfigDetails(fileLogger, cfg)

	// --- 4. Domain store ---
	store, err = database.OpenStore(cfg, fileLogger)
	if err != nil {
		fileLogger.Fatal("Failed to initialize domain store", zap.Error(err))
	}

	// --- 5. Optional Oracle log archive ---
	if cfg.SQLLiteLogEnabled {
		archiveDB, err = database.InitLogArchive(cfg.LogArchiveOracleConn, fileLogger)
		switch {
		case errors.Is(err, database.ErrArchiveDisabled):
			fileLogger.Info("Log archive disabled (LOG_ARCHIVE_ORACLE_CONN not set)")
		case err != nil:
			fileLogger.Error("Error during Oracle archive pool initialization; logs stay in SQLite", zap.Error(err))
		default:
			logRepo.SetArchiveDB(archiveDB)
		}
	}

	// --- 6. Components, Fiber app and routes ---
	components, err = bootstrap.InitializeAppComponents(cfg, fileLogger, store, logRepo, archiveDB)
	if err != nil {
		fileLogger.Fatal("Failed to initialize application components", zap.Error(err))
	}
	appFiber := NewFiberApp(cfg, fileLogger, sqliteLogger, components, store, logDB)

	// --- 7. Start log processor (master process only) ---
	if components.LogProcessor != nil {
		if !fiber.IsChild() {
			fileLogger.Info("Master process starting LogProcessor...", zap.Int("pid", os.Getpid()))
			components.LogProcessor.Start()
		} else {
			fileLogger.Info("Child process will not start its own LogProcessor instance.", zap.Int("pid", os.Getpid()))
		}
	}

	// --- 8. Start Server & Graceful Shutdown ---
	serverCtx, cancelServerCtx := context.WithCancel(context.Background())
	defer cancelServerCtx()
	serverStopped := make(chan struct{})

	initAppDurationMs := time.Since(initAppStartTime).Milliseconds()

	go func() {
		defer close(serverStopped)
		listenAddr := ":" + cfg.Port
		fileLogger.Info(fmt.Sprintf("Completed initialization application in %d ms.", initAppDurationMs))
		fileLogger.Info("Starting Fiber server...",
			zap.String("address", listenAddr),
			zap.Bool("prefork_enabled", appFiber.Config().Prefork),
			zap.Int("pid", os.Getpid()),
			zap.String("app_env", cfg.AppEnv),
		)
		if err := appFiber.Listen(listenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fileLogger.Error("Server listener failed", zap.String("address", listenAddr), zap.Error(err))
			cancelServerCtx()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case s := <-sig:
		fileLogger.Info("Shutdown signal received.", zap.String("signal", s.String()))
	case <-serverCtx.Done():
		fileLogger.Info("Server context cancelled, initiating shutdown.")
	}

	fileLogger.Info("Initiating graceful shutdown...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := appFiber.ShutdownWithContext(shutdownCtx); err != nil {
		fileLogger.Error("Fiber server shutdown failed", zap.Error(err))
	} else {
		fileLogger.Info("Fiber server gracefully stopped.")
	}
	<-serverStopped

	// The processor ships one last batch, so it stops after the server has drained requests.
	if components.LogProcessor != nil && !fiber.IsChild() {
		components.LogProcessor.Stop()
	}

	if err := database.CloseStore(store); err != nil {
		fileLogger.Warn("Error closing domain store", zap.Error(err))
	}
	if logDB != nil {
		if err := logDB.Close(); err != nil {
			fileLogger.Warn("Error closing SQLite log database", zap.Error(err))
		}
	}
	if archiveDB != nil {
		logRepo.SetArchiveDB(nil)
	}

	if errSync := fileLogger.Sync(); errSync != nil {
		errMsg := errSync.Error()
		if !strings.Contains(errMsg, "handle is invalid") && !strings.Contains(errMsg, "sync /dev/stdout") {
			fmt.Fprintf(os.Stderr, "[WARN] Error syncing file/console logger: %v\n", errSync)
		}
	}
	fmt.Println("[INFO] Application shutdown complete.")
}
