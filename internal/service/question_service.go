package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/config"
	"github.com/srbmarine/exam-portal/internal/exam"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
)

// Question errors.
var (
	ErrQuestionSetIncomplete = errors.New("question bank holds fewer questions than the exam needs")
	ErrQuestionsExist        = errors.New("questions already seeded")
)

const questionCacheTTL = 10 * time.Minute

// QuestionService serves the ordered question set and, to the scorer only,
// its answer key.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, rdb *redis.Client, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// Questions returns the exam's questions in ordinal order, answer key withheld.
func (s *QuestionService) Questions(ctx context.Context) ([]model.Question, error) {
	key := config.CacheKey.QuestionSetKey()
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var qs []model.Question
		if err := json.Unmarshal(raw, &qs); err == nil {
			return qs, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Question cache unavailable")
	}

	records, err := s.questionRepo.ListOrdered(ctx, exam.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(records) < exam.QuestionCount {
		return nil, ErrQuestionSetIncomplete
	}

	qs := make([]model.Question, len(records))
	for i := range records {
		qs[i] = records[i].Public(i + 1)
	}

	if raw, err := json.Marshal(qs); err == nil {
		if err := s.rdb.Set(ctx, key, raw, questionCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache question set")
		}
	}
	return qs, nil
}

// AnswerKey returns the correct choice per ordinal, index 0 being ordinal 1.
func (s *QuestionService) AnswerKey(ctx context.Context) ([]model.Choice, error) {
	records, err := s.questionRepo.ListOrdered(ctx, exam.QuestionCount)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(records) < exam.QuestionCount {
		return nil, ErrQuestionSetIncomplete
	}
	key := make([]model.Choice, len(records))
	for i, r := range records {
		key[i] = r.Answer
	}
	return key, nil
}

// ValidateSeed checks seed entries before they are loaded.
func ValidateSeed(qs []model.SeedQuestion) error {
	if len(qs) < exam.QuestionCount {
		return fmt.Errorf("need at least %d questions, got %d", exam.QuestionCount, len(qs))
	}
	for i, q := range qs {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("question %d: empty prompt", i+1)
		}
		for _, c := range []string{q.ChoiceA, q.ChoiceB, q.ChoiceC, q.ChoiceD} {
			if strings.TrimSpace(c) == "" {
				return fmt.Errorf("question %d: empty choice", i+1)
			}
		}
		if !q.Answer.Valid() {
			return fmt.Errorf("question %d: answer %q is not one of A, B, C, D", i+1, q.Answer)
		}
	}
	return nil
}

// Seed loads qs unless the bank already has questions.
func (s *QuestionService) Seed(ctx context.Context, qs []model.SeedQuestion) (int64, error) {
	if err := ValidateSeed(qs); err != nil {
		return 0, err
	}
	n, err := s.questionRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	if n > 0 {
		return 0, ErrQuestionsExist
	}
	inserted, err := s.questionRepo.BulkInsert(ctx, qs)
	if err != nil {
		return 0, fmt.Errorf("insert questions: %w", err)
	}
	if err := s.rdb.Del(ctx, config.CacheKey.QuestionSetKey()).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate question cache")
	}
	return inserted, nil
}
