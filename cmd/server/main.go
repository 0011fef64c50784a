package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ranklift/ranklift-backend/internal/ai"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/database"
	"github.com/ranklift/ranklift-backend/internal/handler"
	"github.com/ranklift/ranklift-backend/internal/logger"
	"github.com/ranklift/ranklift-backend/internal/repository"
	"github.com/ranklift/ranklift-backend/internal/router"
	"github.com/ranklift/ranklift-backend/internal/service"
	"github.com/ranklift/ranklift-backend/internal/validator"
	"github.com/ranklift/ranklift-backend/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting Ranklift Backend")

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
	sessionRepo := repository.NewSessionRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	proctorStateRepo := repository.NewProctorStateRepository(rdb)
	events := repository.NewEventPublisher(rdb)
	queues := repository.NewQueues(rdb)

	// ─── Initialize AI Clients ─────────────────────────────────────────
	generator := ai.NewGenerator(cfg, log)
	transcriber := ai.NewTranscriber(cfg, log)

	// ─── Initialize Services ──────────────────────────────────────────
	sessionService := service.NewSessionService(sessionRepo, generator, events, queues, cfg.QuestionBudget, log)
	gradingService := service.NewGradingService(sessionRepo, messageRepo, userRepo, generator, events, log)
	proctorService := service.NewProctorService(sessionRepo, proctorStateRepo, violationRepo, queues, events, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Session:    handler.NewSessionHandler(sessionService, gradingService, userRepo),
		Chat:       handler.NewChatHandler(gradingService),
		Proctor:    handler.NewProctorHandler(proctorService),
		Transcribe: handler.NewTranscribeHandler(transcriber),
		Question:   handler.NewQuestionHandler(questionRepo),
		User:       handler.NewUserHandler(sessionService, userRepo),
		WS:         handler.NewWSHandler(rdb, sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	gradingWorker := worker.NewGradingWorker(gradingService, rdb, log)
	violationWorker := worker.NewViolationWorker(violationRepo, rdb, log)

	go gradingWorker.Start(workerCtx)
	go violationWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
