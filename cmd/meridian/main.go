package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian-procure/meridian-procure/internal/activity"
	"github.com/meridian-procure/meridian-procure/internal/app"
	"github.com/meridian-procure/meridian-procure/internal/approvers"
	"github.com/meridian-procure/meridian-procure/internal/documents"
	"github.com/meridian-procure/meridian-procure/internal/platform/cache"
	"github.com/meridian-procure/meridian-procure/internal/platform/db"
	"github.com/meridian-procure/meridian-procure/internal/receiving"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	approverRepo := approvers.NewRepository(pool)
	approverCache := approvers.NewCache(approverRepo, redisClient, cfg.ApproverCacheTTL)
	approverService := approvers.NewService(approverCache)
	approverHandler := approvers.NewHandler(logger, approverService)

	documentRepo := documents.NewRepository(pool)
	documentService := documents.NewService(documentRepo, approverService, logger)
	documentHandler := documents.NewHandler(logger, documentService, approverService)

	reconciler := receiving.NewReconciler(documentRepo, logger)
	receivingHandler := receiving.NewHandler(logger, reconciler)

	activityRepo := activity.NewRepository(pool)
	activityService := activity.NewService(activityRepo)
	activityHandler := activity.NewHandler(logger, activityService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DocumentsHandler: documentHandler,
		ReceivingHandler: receivingHandler,
		ApproversHandler: approverHandler,
		ActivityHandler:  activityHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
