package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"care-booking-marketplace/config"
	deliveryHttp "care-booking-marketplace/internal/delivery/http"
	"care-booking-marketplace/internal/delivery/http/handler"
	"care-booking-marketplace/internal/delivery/http/middleware"
	"care-booking-marketplace/internal/infrastructure/cache"
	"care-booking-marketplace/internal/infrastructure/database"
	"care-booking-marketplace/internal/infrastructure/metrics"
	"care-booking-marketplace/internal/repository"
	"care-booking-marketplace/internal/scheduling"
	"care-booking-marketplace/internal/service"
	"care-booking-marketplace/internal/usecase"
	"care-booking-marketplace/pkg/jwt"
	"care-booking-marketplace/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server

	locks          *service.BookingLockService
	deliverer      *service.MirrorDeliverer
	stopBackground context.CancelFunc
	backgroundDone chan struct{}
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	setupLogger(cfg.App)
	logrus.Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize all layers
	app.initialize(cfg, db, redisClient)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(cfg config.AppConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// initialize wires repositories, services, usecases and the HTTP server
func (app *App) initialize(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) {
	log := logrus.StandardLogger()
	clock := scheduling.SystemClock()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	schedulingMetrics := metrics.NewSchedulingMetrics(registry)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository()
	providerRepo := repository.NewProviderProfileRepository()
	patientRepo := repository.NewPatientProfileRepository()
	availabilityRepo := repository.NewAvailabilityRepository()
	bookingRepo := repository.NewBookingRepository()
	careRequestRepo := repository.NewCareRequestRepository()
	outboxRepo := repository.NewOutboxRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	var lockRedis *redis.Client
	if cfg.Scheduling.UseRedisLock {
		lockRedis = redisClient
	}
	app.locks = service.NewBookingLockService(lockRedis, cfg.Scheduling.LockTTL, log)
	auditService := service.NewAuditService(log, auditLogRepo)
	availabilityService := service.NewAvailabilityService(db, availabilityRepo, bookingRepo, cfg.Scheduling.Location)
	mirror := service.NewCareRequestMirror(db, log, careRequestRepo, outboxRepo, schedulingMetrics)
	matcher := service.NewProviderMatcher(db, log, providerRepo, availabilityService, clock)
	app.deliverer = service.NewMirrorDeliverer(db, log, outboxRepo, mirror, schedulingMetrics, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, providerRepo, patientRepo, auditService, jwtService, redisClient)
	providerUsecase := usecase.NewProviderUsecase(db, log, providerRepo, matcher, auditService)
	availabilityUsecase := usecase.NewAvailabilityUsecase(db, log, availabilityRepo, providerRepo, auditService)
	slotUsecase := usecase.NewSlotUsecase(db, log, providerRepo, availabilityService, clock, schedulingMetrics, cfg.Scheduling.MaxRangeDays)
	bookingUsecase := usecase.NewBookingUsecase(db, log,
		bookingRepo, providerRepo, careRequestRepo,
		availabilityService, app.locks, mirror, auditService, schedulingMetrics, clock, cfg.Scheduling.GuestPatientID)
	careRequestUsecase := usecase.NewCareRequestUsecase(db, log, careRequestRepo, providerRepo, auditService, cfg.Scheduling.GuestPatientID)
	patientUsecase := usecase.NewPatientProfileUsecase(db, log, patientRepo, auditService)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize router
	router := deliveryHttp.NewRouter(deliveryHttp.RouterConfig{
		AuthHandler:         handler.NewAuthHandler(authUsecase, customValidator),
		ProviderHandler:     handler.NewProviderHandler(providerUsecase, customValidator),
		AvailabilityHandler: handler.NewAvailabilityHandler(availabilityUsecase, slotUsecase, customValidator),
		BookingHandler:      handler.NewBookingHandler(bookingUsecase, customValidator),
		CareRequestHandler:  handler.NewCareRequestHandler(careRequestUsecase, customValidator),
		PatientHandler:      handler.NewPatientHandler(patientUsecase, customValidator),
		AuditLogHandler:     handler.NewAuditLogHandler(auditLogUsecase, customValidator),
		HealthHandler:       handler.NewHealthHandler(db, redisClient, log),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		AuthMiddleware:      middleware.NewAuthMiddleware(jwtService, redisClient, log),
		CORSMiddleware:      middleware.NewCORSMiddleware(cfg.App.AllowedOrigins),
		CreationRateLimiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log),
	})

	// Create server
	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Outbox delivery runs until shutdown
	ctx, cancel := context.WithCancel(context.Background())
	app.stopBackground = cancel
	app.backgroundDone = make(chan struct{})
	go func() {
		defer close(app.backgroundDone)
		app.deliverer.Start(ctx)
	}()

	// Start server in goroutine
	go func() {
		logrus.Infof("Server starting on port %s", app.Config.App.Port)
		logrus.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	if app.stopBackground != nil {
		app.stopBackground()
		select {
		case <-app.backgroundDone:
		case <-ctx.Done():
			logrus.Warn("Outbox deliverer did not stop in time")
		}
	}

	// Close connections
	app.Close()

	logrus.Info("Server shutdown complete")
}

// Close releases the lock cleaner and closes all connections
func (app *App) Close() {
	if app.locks != nil {
		app.locks.Stop()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
