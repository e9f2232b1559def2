package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dalton-cole/primeta/internal/adapters/api"
	"github.com/dalton-cole/primeta/internal/adapters/db"
	"github.com/dalton-cole/primeta/internal/adapters/git"
	apphttp "github.com/dalton-cole/primeta/internal/adapters/http"
	"github.com/dalton-cole/primeta/internal/adapters/http/handlers"
	"github.com/dalton-cole/primeta/internal/adapters/sse"
	"github.com/dalton-cole/primeta/internal/adapters/storage"
	"github.com/dalton-cole/primeta/internal/config"
	"github.com/dalton-cole/primeta/internal/core/service"
	"github.com/dalton-cole/primeta/internal/jobs"
)

const (
	jobWorkers = 4
	jobBuffer  = 64
)

func main() {
	if err := run(); err != nil {
		slog.Error("application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gormDB, err := storage.InitDB(cfg)
	if err != nil {
		return err
	}
	logger.Info("database connection established")

	repoStore := db.NewGormRepositoryStore(gormDB)
	fileStore := db.NewGormFileStore(gormDB)
	viewStore := db.NewGormViewStore(gormDB)
	conceptStore := db.NewGormConceptStore(gormDB)
	aiCacheStore := db.NewGormAiCacheStore(gormDB)
	feedbackStore := db.NewGormFeedbackStore(gormDB)
	userStore := db.NewGormUserStore(gormDB)

	gitClient, err := git.NewClient()
	if err != nil {
		return err
	}

	geminiClient := api.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if !geminiClient.Enabled() {
		logger.Warn("GEMINI_API_KEY not set, AI endpoints will respond 503")
	}

	hub := sse.NewHub(logger)
	queue := jobs.NewQueue(jobWorkers, jobBuffer, logger)
	queue.Start(ctx)

	progress := service.NewProgressService(repoStore, fileStore, viewStore, cfg.ProgressCacheTTL, logger)
	broadcaster := service.NewBroadcaster(hub, logger)
	tracker := service.NewTrackerService(viewStore, fileStore, userStore, repoStore, progress, broadcaster, logger)
	syncer := service.NewSyncService(repoStore, fileStore, gitClient, cfg.ReposDir, logger)
	aiService := service.NewAiService(geminiClient, aiCacheStore, fileStore, queue, logger)
	conceptService := service.NewConceptService(geminiClient, fileStore, conceptStore, logger)

	router := apphttp.NewRouter(cfg, apphttp.Handlers{
		Repositories: handlers.NewRepositoryHandler(repoStore, fileStore, conceptStore, progress, syncer, conceptService, queue, logger),
		Files:        handlers.NewFileHandler(tracker, logger),
		Ai:           handlers.NewAiHandler(aiService, feedbackStore, repoStore, logger),
		Events:       handlers.NewEventsHandler(hub, logger),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		syncer.StartMonitor(ctx, cfg.SyncInterval, queue)
		return nil
	})

	g.Go(func() error {
		logger.Info("server is running", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	queue.Wait()
	logger.Info("exited cleanly")
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
