package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/database"
	"github.com/formpulse/formpulse-backend/internal/handler"
	"github.com/formpulse/formpulse-backend/internal/logger"
	"github.com/formpulse/formpulse-backend/internal/metrics"
	"github.com/formpulse/formpulse-backend/internal/repository"
	"github.com/formpulse/formpulse-backend/internal/router"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/formpulse/formpulse-backend/internal/validator"
	"github.com/formpulse/formpulse-backend/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
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
		Msg("Starting FormPulse Backend")

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

	// ─── Initialize Metrics ────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	surveyRepo := repository.NewSurveyRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	permRepo := repository.NewPermissionRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	userService := service.NewUserService(userRepo)
	surveyService := service.NewSurveyService(surveyRepo, questionRepo, permRepo, authService, rdb, log)
	questionService := service.NewQuestionService(surveyRepo, questionRepo, log)
	respondService := service.NewRespondService(surveyRepo, permRepo, responseRepo, surveyService, rdb, m, cfg, log)
	analyticsService := service.NewAnalyticsService(surveyRepo, questionRepo, responseRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, userService),
		Survey:    handler.NewSurveyHandler(surveyService),
		Question:  handler.NewQuestionHandler(questionService),
		Analytics: handler.NewAnalyticsHandler(analyticsService),
		Respond:   handler.NewRespondHandler(respondService),
		Live:      handler.NewLiveHandler(rdb, surveyService, analyticsService, m, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, m, log)
	submissionWorker := worker.NewSubmissionWorker(pool, rdb, m, log)

	go autosaveWorker.Start(workerCtx)
	go submissionWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every published survey payload into Redis BEFORE accepting
	// traffic, so a thundering herd never races the lazy rebuild path.
	if err := surveyService.PrewarmPayloadCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, registry)

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

	// 2. Stop background workers and let their buffers flush.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
