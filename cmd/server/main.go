package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/database"
	"github.com/srbmarine/exam-portal/internal/handler"
	"github.com/srbmarine/exam-portal/internal/logger"
	"github.com/srbmarine/exam-portal/internal/repository"
	"github.com/srbmarine/exam-portal/internal/router"
	"github.com/srbmarine/exam-portal/internal/service"
	"github.com/srbmarine/exam-portal/internal/session"
	"github.com/srbmarine/exam-portal/internal/validator"
	"github.com/srbmarine/exam-portal/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Dur("exam_duration", cfg.ExamDuration).
		Msg("Starting exam portal backend")

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
	candidateRepo := repository.NewCandidateRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	integrityRepo := repository.NewIntegrityEventRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	store := session.NewRedisStore(rdb, cfg.SessionTTL)
	authService := service.NewAuthService(cfg, rdb, store)
	candidateService := service.NewCandidateService(candidateRepo, resultRepo)
	questionService := service.NewQuestionService(questionRepo, rdb, log)
	resultService := service.NewResultService(resultRepo, questionService, log)
	contactService := service.NewContactService(contactRepo)
	adminService := service.NewAdminService(adminRepo, authService)
	integrityService := service.NewIntegrityService(integrityRepo)

	integrityQueue := worker.NewRedisQueue(rdb, config.WorkerKey.PersistIntegrityQueue)
	integrityPublisher := worker.NewIntegrityPublisher(integrityQueue)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Identity: handler.NewIdentityHandler(candidateService, authService, store),
		Auth:     handler.NewAuthHandler(adminService),
		Question: handler.NewQuestionHandler(questionService),
		Result:   handler.NewResultHandler(resultService, store),
		Contact:  handler.NewContactHandler(contactService),
		Admin:    handler.NewAdminHandler(candidateService, resultService, contactService, integrityService),
		WS:       handler.NewWSHandler(cfg, store, questionService, resultService, integrityPublisher, log),
		System:   handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	integrityWorker := worker.NewIntegrityWorker(integrityQueue, integrityRepo, log)
	go func() {
		integrityWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load the question set before accepting traffic so the first wave of
	// candidates does not stampede PostgreSQL.
	if _, err := questionService.Questions(ctx); err != nil {
		log.Warn().Err(err).Msg("Question cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, rdb, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the audit worker and let it flush its buffer.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(6 * time.Second):
		log.Warn().Msg("Integrity worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
