package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/yigit/crms/internal/app/auth"
	appControllers "github.com/yigit/crms/internal/app/controllers"
	appMigrations "github.com/yigit/crms/internal/app/migrations"
	appRepos "github.com/yigit/crms/internal/app/repositories"
	appRoutes "github.com/yigit/crms/internal/app/routes"
	appServices "github.com/yigit/crms/internal/app/services"
	"github.com/yigit/crms/internal/config"
	"github.com/yigit/crms/internal/db"
	"github.com/yigit/crms/internal/jobs"
	appMiddleware "github.com/yigit/crms/internal/middleware"
	pkgAuth "github.com/yigit/crms/internal/pkg/auth"
	"github.com/yigit/crms/internal/pkg/cache"
	"github.com/yigit/crms/internal/pkg/email"
	"github.com/yigit/crms/internal/pkg/filestorage"
	"github.com/yigit/crms/internal/pkg/grading"
	"github.com/yigit/crms/internal/pkg/helpers"
	"github.com/yigit/crms/internal/pkg/logger"
	"github.com/yigit/crms/internal/pkg/validation"
	"github.com/yigit/crms/internal/pkg/websocket"
	"github.com/yigit/crms/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Redis        *redis.Client
	Cache        *cache.DashboardCache
	Reports      filestorage.FileStorage
	Hub          *websocket.Hub

	AuthService       *appServices.AuthService
	UserService       appServices.UserService
	CourseService     *appServices.CourseService
	StudentService    *appServices.StudentService
	SyllabusService   *appServices.SyllabusService
	AssessmentService *appServices.AssessmentService
	GradeService      *appServices.GradeService
	AttendanceService *appServices.AttendanceService
	AnalyticsService  *appServices.AnalyticsService

	Controllers    *appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Scheduler      *jobs.Scheduler
	Logger         zerolog.Logger
}

// ConfigPath returns the configuration file to load, CRMS_CONFIG overriding
// configs/config.yaml
func ConfigPath() string {
	if p := os.Getenv("CRMS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join("configs", "config.yaml")
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the connection pool without touching the schema
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database.Pool, nil
}

// RunMigrations applies every pending file of the configured migrations directory
func RunMigrations(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (int, error) {
	dir := cfg.Database.MigrationsDir
	if _, err := os.Stat(dir); err != nil {
		lgr.Error().Str("path", dir).Msg("Migrations directory not found")
		return 0, fmt.Errorf("migrations directory not found at %s: %w", dir, err)
	}

	applied, err := appMigrations.NewMigrator(dbPool, lgr).MigrateFromDirectory(ctx, dir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return applied, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return applied, nil
}

// SetupDatabase connects, migrates and creates the default administrator.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	dbPool, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := RunMigrations(ctx, cfg, dbPool, lgr); err != nil {
		dbPool.Close()
		return nil, err
	}

	repos := seed.Repos{
		Users:   appRepos.NewUserRepository(dbPool),
		Courses: appRepos.NewCourseRepository(dbPool),
	}
	opts := seed.Options{AdminEmail: cfg.Seed.AdminEmail, AdminPassword: cfg.Seed.AdminPassword}
	if _, err := seed.CreateDefaultData(ctx, repos, opts, lgr); err != nil {
		// startup continues; an administrator can still be seeded with crmsadmin
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// NewReportStorage returns the archive backend selected by storage.driver
func NewReportStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (filestorage.FileStorage, error) {
	switch strings.ToLower(cfg.Storage.Driver) {
	case "s3":
		store, err := filestorage.NewS3Storage(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Region, cfg.Storage.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 report storage: %w", err)
		}
		lgr.Info().Str("bucket", cfg.Storage.S3Bucket).Str("prefix", cfg.Storage.S3Prefix).Msg("Report archive uses S3")
		return store, nil
	default:
		store, err := filestorage.NewLocalStorage(cfg.Storage.LocalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local report storage: %w", err)
		}
		lgr.Info().Str("path", cfg.Storage.LocalPath).Msg("Report archive uses local disk")
		return store, nil
	}
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.Reports, err = NewReportStorage(ctx, cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize report storage")
		return nil, err
	}

	if cfg.Redis.Enabled {
		deps.Redis = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, lgr)
	}
	deps.Cache = cache.NewDashboardCache(
		deps.Redis,
		deps.Repos.DashboardCacheRepository,
		helpers.ParseDuration(cfg.Cache.DashboardTTL, 5*time.Minute),
		logger.Component("cache"),
	)

	deps.Hub = websocket.NewHub(logger.Component("websocket"))

	deps.AuthzService = appAuth.NewAuthorizationService(
		deps.Repos.SectionCourseRepository,
		deps.Repos.EnrollmentRepository,
		deps.Repos.AssessmentRepository,
		deps.Repos.SessionRepository,
	)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	mailer := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		LoginURL:  cfg.Server.PublicURL,
	}, logger.Component("email"))

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.Repos.TokenRepository, deps.JWTService, lgr)
	deps.UserService = appServices.NewUserService(deps.Repos.UserRepository, mailer, lgr)
	deps.CourseService = appServices.NewCourseService(
		deps.Repos.CourseRepository,
		deps.Repos.SectionCourseRepository,
		deps.Repos.UserRepository,
		deps.AuthzService,
		deps.Cache,
		lgr,
	)
	deps.StudentService = appServices.NewStudentService(deps.Repos.StudentRepository, deps.Repos.EnrollmentRepository, deps.AuthzService, lgr)
	deps.SyllabusService = appServices.NewSyllabusService(deps.Repos.SyllabusRepository, deps.Repos.CourseRepository, deps.AuthzService, lgr)
	deps.AssessmentService = appServices.NewAssessmentService(deps.Repos.AssessmentRepository, deps.Repos.SubmissionRepository, deps.Repos.SyllabusRepository, deps.AuthzService, lgr)
	deps.GradeService = appServices.NewGradeService(
		deps.Repos.AssessmentRepository,
		deps.Repos.SubmissionRepository,
		deps.Repos.EnrollmentRepository,
		deps.AuthzService,
		deps.Reports,
		lgr,
	)
	deps.AttendanceService = appServices.NewAttendanceService(
		deps.Repos.SessionRepository,
		deps.Repos.AttendanceRepository,
		deps.Repos.SectionCourseRepository,
		deps.AuthzService,
		deps.Cache,
		deps.Hub,
		lgr,
	)
	deps.AnalyticsService = appServices.NewAnalyticsService(appServices.AnalyticsRepos{
		Sections:    deps.Repos.SectionCourseRepository,
		Enrollments: deps.Repos.EnrollmentRepository,
		Assessments: deps.Repos.AssessmentRepository,
		Submissions: deps.Repos.SubmissionRepository,
		Attendance:  deps.Repos.AttendanceRepository,
		Analytics:   deps.Repos.AnalyticsRepository,
	}, deps.AuthzService, deps.Cache, grading.Thresholds{
		AtRiskBelow:  cfg.Analytics.AtRiskBelow,
		ExcelAtLeast: cfg.Analytics.ExcelAtLeast,
	}, logger.Component("analytics"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.Controllers = &appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		User:       appControllers.NewUserController(deps.UserService),
		Course:     appControllers.NewCourseController(deps.CourseService, lgr),
		Student:    appControllers.NewStudentController(deps.StudentService),
		Syllabus:   appControllers.NewSyllabusController(deps.SyllabusService, lgr),
		Assessment: appControllers.NewAssessmentController(deps.AssessmentService),
		Grade:      appControllers.NewGradeController(deps.GradeService, lgr),
		Attendance: appControllers.NewAttendanceController(deps.AttendanceService, lgr),
		Analytics:  appControllers.NewAnalyticsController(deps.AnalyticsService),
		WebSocket:  websocket.NewHandler(deps.Hub, deps.AuthzService, logger.Component("websocket")),
	}

	var analytics jobs.AnalyticsRefresher
	analyticsSchedule := ""
	if cfg.Analytics.Enabled {
		analytics = deps.AnalyticsService
		analyticsSchedule = cfg.Analytics.CronSchedule
	}
	deps.Scheduler, err = jobs.NewScheduler(jobs.Config{
		AnalyticsSchedule:  analyticsSchedule,
		CachePurgeSchedule: cfg.Cache.PurgeSchedule,
	}, analytics, deps.Repos.DashboardCacheRepository, logger.Component("jobs"))
	if err != nil {
		return nil, fmt.Errorf("failed to configure scheduled jobs: %w", err)
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := validation.RegisterGinValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.CORS(cfg.Server.CORSOrigins),
	)

	appRoutes.SetupSwagger(router, swaggerHost(cfg.Server.PublicURL))
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router, nil
}

// swaggerHost strips the scheme from the public URL
func swaggerHost(publicURL string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(publicURL, "https://"), "http://")
	return strings.TrimSuffix(host, "/")
}
