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
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-engine/api/swagger"
	"github.com/noah-isme/timetable-engine/internal/handler"
	"github.com/noah-isme/timetable-engine/internal/repository"
	"github.com/noah-isme/timetable-engine/internal/router"
	"github.com/noah-isme/timetable-engine/internal/service"
	"github.com/noah-isme/timetable-engine/pkg/cache"
	"github.com/noah-isme/timetable-engine/pkg/config"
	"github.com/noah-isme/timetable-engine/pkg/database"
	"github.com/noah-isme/timetable-engine/pkg/jobs"
	"github.com/noah-isme/timetable-engine/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-engine/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-engine/pkg/storage"
)

// @title Timetable Engine API
// @version 1.0.0
// @description Generates, stores, publishes and exports weekly academic timetables.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// proposals fall back to the in-process store
		logr.Warn("redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	entityRepo := repository.NewEntityRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportRepo := repository.NewExportJobRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if err := authSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		logr.Warn("failed to bootstrap admin account", zap.Error(err))
	}

	timetableSvc := service.NewTimetableService(entityRepo, timetableRepo, db, cacheRepo, metricsSvc, validate, logr, service.TimetableConfig{
		ProposalTTL:          cfg.Scheduler.ProposalTTL,
		OptionCount:          cfg.Scheduler.OptionCount,
		Weeks:                cfg.Scheduler.Weeks,
		InclusionProbability: cfg.Scheduler.InclusionProbability,
		MaxEntities:          cfg.Scheduler.MaxEntities,
	})

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc := service.NewExportService(timetableRepo, entityRepo, fileStore, signer, service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			RecurrenceWeeks: cfg.Scheduler.Weeks,
			CSVDelimiter:    cfg.Exports.CSVDelimiter,
		}, logr)

		worker := service.NewExportWorker(exportRepo, exportSvc, metricsSvc, cfg.Exports.WorkerRetries, logr)
		var exportJobSvc *service.ExportJobService
		queue := jobs.NewQueue("timetable-exports", worker.Handle, jobs.QueueConfig{
			Workers:       cfg.Exports.WorkerConcurrency,
			MaxRetries:    cfg.Exports.WorkerRetries,
			RetryDelay:    2 * time.Second,
			MaxRetryDelay: time.Minute,
			Logger:        logr,
			OnExhausted: func(job jobs.Job, err error) {
				exportJobSvc.MarkExhausted(job, err)
			},
		})
		exportJobSvc = service.NewExportJobService(exportRepo, timetableRepo, queue, exportSvc, metricsSvc, validate, logr, service.ExportJobServiceConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		})

		queue.Start(ctx)
		defer queue.Stop()
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if cacheRepo.Enabled() {
		checks["redis"] = cacheRepo.Ping
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	router.Register(r, authSvc, metricsSvc, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Timetable: handler.NewTimetableHandler(timetableSvc),
		Export:    exportHandler,
		Metrics:   handler.NewMetricsHandler(metricsSvc, checks),
	}, router.Options{
		APIPrefix:        cfg.APIPrefix,
		ExposeDocs:       cfg.Env != config.EnvProduction,
		ExposeMetrics:    cfg.Metrics.Enabled,
		SchedulerEnabled: cfg.Scheduler.Enabled,
		ExportsEnabled:   cfg.Exports.Enabled,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
