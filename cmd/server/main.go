package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexdrive/scheduler/internal/app"
	"github.com/nexdrive/scheduler/internal/audit"
	"github.com/nexdrive/scheduler/internal/cache"
	"github.com/nexdrive/scheduler/internal/config"
	"github.com/nexdrive/scheduler/internal/controller"
	"github.com/nexdrive/scheduler/internal/kafka"
	"github.com/nexdrive/scheduler/internal/notify"
	"github.com/nexdrive/scheduler/internal/repository"
	"github.com/nexdrive/scheduler/internal/repository/base"
	"github.com/nexdrive/scheduler/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to create connection pool", zap.Error(err))
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = pool.Ping(pingCtx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	if err := migrator.Close(); err != nil {
		logger.Warn("Failed to close migrator", zap.Error(err))
	}

	bookingRepo := repository.NewBookingRepository(pool)
	availabilityRepo := repository.NewAvailabilityRepository(pool, logger)
	serviceRepo := repository.NewServiceRepository(pool)
	peopleRepo := repository.NewPeopleRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	transactor := base.NewTransactor(pool)

	sinks := []audit.Sink{auditRepo}
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaAuditTopic, logger)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			logger.Warn("Kafka is not reachable, audit stream delivery may fail", zap.Error(err))
		}
		sinks = append(sinks, producer)
	}
	emitter := audit.NewEmitter(logger, sinks...)

	settings := cfg.SchedulerSettings()
	availabilityService := service.NewAvailabilityService(
		availabilityRepo,
		bookingRepo,
		peopleRepo,
		transactor,
		emitter,
		service.SystemClock(),
		settings,
		logger,
	)
	bookingService := service.NewBookingService(
		availabilityService,
		bookingRepo,
		peopleRepo,
		serviceRepo,
		transactor,
		emitter,
		logger,
	)

	catalogService := service.NewCatalogService(serviceRepo, peopleRepo, emitter, logger)

	if cfg.RedisEnabled() {
		slotLock := cache.NewSlotLock(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer slotLock.Close()
		if err := slotLock.Ping(ctx); err != nil {
			logger.Warn("Redis is not reachable, bookings will proceed without slot holds", zap.Error(err))
		}
		bookingService.WithSlotLocker(slotLock)
	}

	if cfg.TelegramEnabled() {
		notifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.Location, logger)
		if err != nil {
			logger.Fatal("Failed to create telegram notifier", zap.Error(err))
		}
		bookingService.WithNotifier(notifier)
	}

	router := controller.NewRouter(logger, []byte(cfg.JWTSecret), pool, availabilityService, bookingService, catalogService)

	logger.Info("Starting scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()),
		zap.Bool("redis", cfg.RedisEnabled()),
		zap.Bool("kafka", cfg.KafkaEnabled()),
		zap.Bool("telegram", cfg.TelegramEnabled()))

	if err := app.NewServer(cfg.HTTPAddr, router, logger).Run(ctx); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Scheduler stopped")
}
