package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/config"
	"github.com/stemsi/quizprep-backend/internal/database"
	"github.com/stemsi/quizprep-backend/internal/handler"
	"github.com/stemsi/quizprep-backend/internal/logger"
	"github.com/stemsi/quizprep-backend/internal/repository"
	"github.com/stemsi/quizprep-backend/internal/router"
	"github.com/stemsi/quizprep-backend/internal/service"
	"github.com/stemsi/quizprep-backend/internal/validator"
	"github.com/stemsi/quizprep-backend/internal/worker"
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
		Msg("Starting QuizPrep Backend")

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
	adminRepo := repository.NewAdminRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	catalogCache := repository.NewCatalogCache(rdb, cfg.CatalogCacheTTL)
	snapshotRepo := repository.NewSnapshotRepository(rdb, cfg.SnapshotTTL)
	resultQueue := repository.NewResultQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	adminService := service.NewAdminService(adminRepo, authService)
	questionService := service.NewQuestionService(questionRepo, catalogCache, log)
	dashboardService := service.NewDashboardService(dashboardRepo)
	practiceService := service.NewPracticeService(
		questionService,
		snapshotRepo,
		resultQueue,
		resultRepo,
		service.PracticeOptions{
			Debounce:    cfg.SnapshotDebounce,
			IdleTimeout: cfg.SessionIdle,
		},
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(adminService, log),
		Question:  handler.NewQuestionHandler(questionService, log),
		Practice:  handler.NewPracticeHandler(practiceService, log),
		WS:        handler.NewWSHandler(practiceService, log, cfg.AllowedOrigins),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
		System:    handler.NewSystemHandler(rdb, practiceService, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	resultWorker := worker.NewResultWorker(resultQueue, resultRepo, log)

	workers.Add(2)
	go func() {
		defer workers.Done()
		resultWorker.Start(workerCtx)
	}()
	go func() {
		defer workers.Done()
		practiceService.RunJanitor(workerCtx)
	}()

	// ─── Prewarm Catalogue ────────────────────────────────────────────
	// Populate Redis before accepting traffic so the first sessions do not
	// all miss the cache at once.
	if catalog, err := questionService.Catalog(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog prewarm failed")
	} else {
		log.Info().Int("questions", len(catalog.Questions)).Int64("version", catalog.Version).Msg("Catalog prewarmed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, cfg, log)

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

	// 2. Write every pending session snapshot.
	practiceService.Shutdown()

	// 3. Stop background workers and wait for the results queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
