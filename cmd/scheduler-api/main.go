package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-lesson-scheduler/api/swagger"
	"github.com/noah-isme/sma-lesson-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-lesson-scheduler/internal/middleware"
	"github.com/noah-isme/sma-lesson-scheduler/internal/repository"
	"github.com/noah-isme/sma-lesson-scheduler/internal/service"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/cache"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/config"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/database"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/jobs"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/logger"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/messaging"
	corsmiddleware "github.com/noah-isme/sma-lesson-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-lesson-scheduler/pkg/middleware/requestid"
)

// @title SMA Lesson Scheduler API
// @version 1.0.0
// @description Recurring lesson scheduling with conflict detection
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, "scheduler", logr)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled && redisClient != nil)

	individualRepo := repository.NewIndividualLessonRepository(db)
	groupLessonRepo := repository.NewGroupLessonRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	directory := repository.NewDirectory(db)
	reserver := repository.NewReserver(db, cfg.Scheduler.ReservationRetries, logr)

	publisher, err := messaging.New(cfg.Notifications.Brokers, cfg.Notifications.Topic, logr)
	if err != nil {
		logr.Fatal("failed to init notification publisher", zap.Error(err))
	}
	notificationSvc := service.NewNotificationService(publisher, metricsSvc, logr, service.NotificationServiceConfig{
		Enabled:    cfg.Notifications.Enabled,
		Workers:    cfg.Notifications.Workers,
		Retries:    cfg.Notifications.Retries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	checker := service.NewConflictChecker(individualRepo, groupLessonRepo, groupRepo)
	lessonSvc := service.NewLessonService(service.LessonServiceParams{
		Lessons:   individualRepo,
		Checker:   checker,
		Directory: directory,
		Reserver:  reserver,
		Cache:     cacheSvc,
		Notifier:  notificationSvc,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})
	groupLessonSvc := service.NewGroupLessonService(service.GroupLessonServiceParams{
		Lessons:   groupLessonRepo,
		Groups:    groupRepo,
		Checker:   checker,
		Directory: directory,
		Reserver:  reserver,
		Cache:     cacheSvc,
		Notifier:  notificationSvc,
		Metrics:   metricsSvc,
		Validator: validate,
		Logger:    logr,
	})
	groupSvc := service.NewGroupService(service.GroupServiceParams{
		Groups:    groupRepo,
		Lessons:   groupLessonRepo,
		Checker:   checker,
		Directory: directory,
		Reserver:  reserver,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
	})
	expirySvc := service.NewGroupExpiryService(groupRepo, groupLessonRepo, metricsSvc, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, directory, cacheSvc, validate, logr)
	matcherSvc := service.NewMatcherService(availabilityRepo, directory, validate)
	calendarSvc := service.NewCalendarService(service.CalendarServiceParams{
		Availability:  availabilityRepo,
		Individual:    individualRepo,
		Group:         groupLessonRepo,
		Memberships:   groupRepo,
		Directory:     directory,
		Cache:         cacheSvc,
		CacheTTL:      cfg.Calendar.CacheTTL,
		HideCancelled: cfg.Calendar.HideCancelledOccurrences,
		Logger:        logr,
	})

	if cfg.Scheduler.ExpiryJobEnabled {
		expiryJob := jobs.NewPeriodic("group-expiry", cfg.Scheduler.ExpiryInterval, func(ctx context.Context) error {
			_, err := expirySvc.DeactivateExpiredGroups(ctx)
			return err
		}, logr)
		expiryJob.Start(ctx)
		defer expiryJob.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.ResponseMeta())
	if cfg.Metrics.Enabled {
		r.Use(internalmiddleware.Metrics(metricsSvc))
	}

	handler.RegisterOps(r, handler.NewMetricsHandler(metricsSvc, readinessChecks(db.PingContext, redisClient)), cfg.Metrics.Enabled)
	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Availability: handler.NewAvailabilityHandler(availabilitySvc, matcherSvc),
		Lessons:      handler.NewLessonHandler(lessonSvc),
		GroupLessons: handler.NewGroupLessonHandler(groupLessonSvc),
		Groups:       handler.NewGroupHandler(groupSvc, expirySvc),
		Calendar:     handler.NewCalendarHandler(calendarSvc),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func readinessChecks(pingDB func(context.Context) error, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{"postgres": pingDB}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
