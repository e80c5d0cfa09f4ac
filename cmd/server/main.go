package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/backend"
	"github.com/hackmate/hackathon-console/internal/config"
	"github.com/hackmate/hackathon-console/internal/database"
	"github.com/hackmate/hackathon-console/internal/handler"
	"github.com/hackmate/hackathon-console/internal/logger"
	"github.com/hackmate/hackathon-console/internal/middleware"
	"github.com/hackmate/hackathon-console/internal/repository"
	"github.com/hackmate/hackathon-console/internal/router"
	"github.com/hackmate/hackathon-console/internal/service"
	"github.com/hackmate/hackathon-console/internal/validator"
	"github.com/hackmate/hackathon-console/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("backend", cfg.BackendAPIURL).
		Msg("Starting Hackathon Console")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	sessionRepo := repository.NewQuestionnaireSessionRepository(rdb)
	intentRepo := repository.NewBoardIntentRepository(rdb)
	activityRepo := repository.NewBoardActivityRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	backendClient := backend.NewClientFromConfig(cfg, log)
	authService := service.NewAuthService(cfg)
	questionnaireService := service.NewQuestionnaireService(backendClient, sessionRepo, service.QuestionnaireConfig{
		SessionTTL:    cfg.SessionTTL,
		SubmitTimeout: cfg.SubmitTimeout,
		SuccessTTL:    cfg.SuccessBannerTTL,
	}, log)
	boardService := service.NewBoardService(backendClient, intentRepo, activityRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Questionnaire: handler.NewQuestionnaireHandler(questionnaireService, log),
		Board:         handler.NewBoardHandler(boardService, log),
		BoardStream:   handler.NewBoardStreamHandler(boardService, intentRepo, log, cfg.AllowedOrigins),
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": database.PostgresCheck(pool),
			"redis":    database.RedisCheck(rdb),
		}, intentRepo, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	intentWorker := worker.NewBoardIntentWorker(intentRepo, backendClient, activityRepo, log)
	workers.Go(func() { intentWorker.Start(workerCtx) })

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, middleware.NewRedisCounter(rdb), handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Submissions in flight get their
	// full timeout.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the intent queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
