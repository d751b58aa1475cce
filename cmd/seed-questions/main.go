package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/stemsi/quizprep-backend/internal/config"
	"github.com/stemsi/quizprep-backend/internal/database"
	"github.com/stemsi/quizprep-backend/internal/logger"
	"github.com/stemsi/quizprep-backend/internal/repository"
	"github.com/stemsi/quizprep-backend/internal/service"
)

func main() {
	var file string
	flag.StringVar(&file, "file", "seeds/questions.json", "Path to a JSON backup of questions")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	questionService := service.NewQuestionService(
		repository.NewQuestionRepository(pool),
		repository.NewCatalogCache(rdb, cfg.CatalogCacheTTL),
		log,
	)

	fmt.Printf("=== Seeding questions from %s ===\n", file)

	// Restore replaces the whole catalogue and bumps its version so running
	// servers pick up the new questions.
	result, err := questionService.Restore(ctx, raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	fmt.Println(result.Message)
}
