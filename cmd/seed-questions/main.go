package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/database"
	"github.com/srbmarine/exam-portal/internal/logger"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
	"github.com/srbmarine/exam-portal/internal/service"
)

func main() {
	file := flag.String("file", "data/questions.sample.json", "path to the question seed file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read seed file")
	}
	var questions []model.SeedQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to parse seed file")
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

	questionService := service.NewQuestionService(repository.NewQuestionRepository(pool), rdb, log)

	inserted, err := questionService.Seed(ctx, questions)
	if errors.Is(err, service.ErrQuestionsExist) {
		log.Info().Msg("Questions already exist, skipping seed")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed questions")
	}

	log.Info().Int64("inserted", inserted).Str("file", *file).Msg("Questions seeded")
}
