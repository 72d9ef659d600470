package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
	"github.com/srbmarine/exam-portal/internal/response"
)

// ErrAlreadySubmitted is returned when the phone number already has a result.
var ErrAlreadySubmitted = errors.New("exam already submitted for this phone number")

// ResultService is the scoring boundary: it grades a submission against the
// answer key and records the result once per phone number.
type ResultService struct {
	resultRepo *repository.ResultRepository
	questions  *QuestionService
	log        zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, questions *QuestionService, log zerolog.Logger) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		questions:  questions,
		log:        log.With().Str("component", "result_service").Logger(),
	}
}

// GradeAnswers scores answers (ordinal to choice) against key, where key[0]
// is ordinal 1. Unanswered ordinals count as incorrect.
func GradeAnswers(key []model.Choice, answers map[int]model.Choice) model.ExamResult {
	res := model.ExamResult{
		TotalMarks:    len(key),
		AnswerDetails: make([]model.AnswerDetail, len(key)),
	}
	for i, correct := range key {
		ordinal := i + 1
		d := model.AnswerDetail{Ordinal: ordinal, CorrectAnswer: correct}
		if got, ok := answers[ordinal]; ok {
			choice := got
			d.CandidateAnswer = &choice
			d.IsCorrect = got == correct
		}
		if d.IsCorrect {
			res.MarksObtained++
		}
		res.AnswerDetails[i] = d
	}
	if res.TotalMarks > 0 {
		res.Percentage = roundPercent(float64(res.MarksObtained) / float64(res.TotalMarks) * 100)
	}
	return res
}

func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}

// Score grades and persists one submission.
func (s *ResultService) Score(ctx context.Context, req model.SubmitRequest) (model.ExamResult, error) {
	dob, err := time.Parse(model.DateLayout, req.DateOfBirth)
	if err != nil {
		return model.ExamResult{}, ErrInvalidDateOfBirth
	}

	exists, err := s.resultRepo.ExistsByPhone(ctx, req.PhoneNumber)
	if err != nil {
		return model.ExamResult{}, fmt.Errorf("check results: %w", err)
	}
	if exists {
		return model.ExamResult{}, ErrAlreadySubmitted
	}

	key, err := s.questions.AnswerKey(ctx)
	if err != nil {
		return model.ExamResult{}, err
	}
	res := GradeAnswers(key, req.Answers)

	details, err := json.Marshal(res.AnswerDetails)
	if err != nil {
		return model.ExamResult{}, fmt.Errorf("encode answers: %w", err)
	}
	rec := &model.ResultRecord{
		CandidateID:   req.CandidateID,
		CandidateName: req.CandidateName,
		PhoneNumber:   req.PhoneNumber,
		DateOfBirth:   dob,
		MarksObtained: res.MarksObtained,
		TotalMarks:    res.TotalMarks,
		Percentage:    res.Percentage,
		Answers:       details,
	}
	if err := s.resultRepo.Create(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrResultExists) {
			return model.ExamResult{}, ErrAlreadySubmitted
		}
		return model.ExamResult{}, fmt.Errorf("save result: %w", err)
	}

	s.log.Info().
		Str("candidate_id", req.CandidateID).
		Int("marks", res.MarksObtained).
		Float64("percentage", res.Percentage).
		Msg("Exam result recorded")
	return res, nil
}

// ListResults retrieves results with pagination.
func (s *ResultService) ListResults(ctx context.Context, page, perPage int) ([]model.ResultRecord, *response.Pagination, error) {
	page, perPage, limit, offset := clampPage(page, perPage)

	results, total, err := s.resultRepo.ListPaginated(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.ResultRecord{}
	}
	return results, response.NewPagination(page, perPage, total), nil
}

// ListByCandidate retrieves the results of one candidate.
func (s *ResultService) ListByCandidate(ctx context.Context, candidateID string) ([]model.ResultRecord, error) {
	results, err := s.resultRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ResultRecord{}
	}
	return results, nil
}
