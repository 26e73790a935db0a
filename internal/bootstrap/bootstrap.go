package bootstrap

import (
	"database/sql"
	"errors"

	"member-admin-api/internal/config"
	"member-admin-api/internal/database"
	"member-admin-api/internal/handlers"
	"member-admin-api/internal/logging"
	"member-admin-api/internal/metrics"
	"member-admin-api/internal/middleware"
	"member-admin-api/internal/repositories"
	"member-admin-api/internal/services"
	"member-admin-api/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppComponents holds the initialized components like handlers, processors, and repositories.
type AppComponents struct {
	AuthHandler      *handlers.AuthHandler
	ProfileHandler   *handlers.ProfileHandler
	MemberHandler    *handlers.MemberHandler
	RoleHandler      *handlers.RoleHandler
	ActivityHandler  *handlers.ActivityHandler
	DashboardHandler *handlers.DashboardHandler
	AuthGate         fiber.Handler
	Metrics          *metrics.Registry
	LogProcessor     *logging.LogProcessor // nil when archiving is disabled
	UserRepo         repositories.UserRepository
	Tokens           *utils.TokenManager
}

// InitializeAppComponents creates and wires up repositories, services, handlers and processors.
// logRepo and archiveDB may be nil; the log processor is only created when both are present.
func InitializeAppComponents(
	cfg *config.Config,
	logger *zap.Logger,
	store *gorm.DB,
	logRepo repositories.LogRepository,
	archiveDB *sql.DB,
) (*AppComponents, error) {
	logger.Info("Initializing application components: Repositories, Services, Handlers, Processors...")

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)
	if err != nil {
		if errors.Is(err, utils.ErrEmptySigningKey) {
			return nil, config.ErrMissingJWTSecret
		}
		return nil, err
	}

	var reg *metrics.Registry
	if cfg.MetricsEnabled {
		reg = metrics.New("member_admin")
	}

	// --- 1. Repositories ---
	userRepo := repositories.NewUserRepository(store, logger)
	roleRepo := repositories.NewRoleRepository(store, logger)
	memberRepo := repositories.NewMemberRepository(store, logger)
	activityRepo := repositories.NewActivityRepository(store, logger)
	analyticsRepo := repositories.NewAnalyticsRepository(store, logger)
	logger.Info("Repositories initialized.")

	// --- 2. Services ---
	authService := services.NewAuthService(userRepo, roleRepo, tokens, cfg.BcryptCost, logger)
	profileService := services.NewProfileService(userRepo, logger)
	memberService := services.NewMemberService(memberRepo, roleRepo, userRepo, activityRepo, reg, logger)
	roleService := services.NewRoleService(roleRepo, userRepo, activityRepo, reg, logger)
	activityService := services.NewActivityService(activityRepo)
	analyticsService := services.NewAnalyticsService(analyticsRepo, activityRepo, logger)
	logger.Info("Services initialized.")

	// --- 3. Handlers ---
	components := &AppComponents{
		AuthHandler:      handlers.NewAuthHandler(authService, reg),
		ProfileHandler:   handlers.NewProfileHandler(profileService),
		MemberHandler:    handlers.NewMemberHandler(memberService, handlers.NewImageStore(cfg.UploadDir, cfg.UploadMaxBytes)),
		RoleHandler:      handlers.NewRoleHandler(roleService),
		ActivityHandler:  handlers.NewActivityHandler(activityService),
		DashboardHandler: handlers.NewDashboardHandler(analyticsService, cfg.DashboardRecentLimit),
		AuthGate:         middleware.Protected(tokens, userRepo, reg),
		Metrics:          reg,
		UserRepo:         userRepo,
		Tokens:           tokens,
	}
	logger.Info("Handlers initialized.")

	// --- 4. Processors ---
	if logRepo != nil && archiveDB != nil {
		connect := func() (*sql.DB, error) {
			return database.InitLogArchive(cfg.LogArchiveOracleConn, logger)
		}
		components.LogProcessor = logging.NewLogProcessor(cfg, logRepo, connect, logger)
		logger.Info("Log archive processor initialized.")
	}

	logger.Info("Application components initialization complete.")
	return components, nil
}
