package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
	"github.com/srbmarine/exam-portal/internal/response"
)

// Candidate errors.
var (
	ErrPhoneRegistered    = errors.New("phone number already registered")
	ErrAlreadyAttempted   = errors.New("exam already attempted")
	ErrInvalidDateOfBirth = errors.New("date of birth must be a valid date in the past")
)

const candidateIDAttempts = 5

// CandidateService handles registration, login and candidate listings.
type CandidateService struct {
	candidateRepo *repository.CandidateRepository
	resultRepo    *repository.ResultRepository
	now           func() time.Time
}

// NewCandidateService creates a new CandidateService.
func NewCandidateService(candidateRepo *repository.CandidateRepository, resultRepo *repository.ResultRepository) *CandidateService {
	return &CandidateService{candidateRepo: candidateRepo, resultRepo: resultRepo, now: time.Now}
}

// FormatCandidateID renders <year><4-digit sequence>.
func FormatCandidateID(year, seq int) string {
	return fmt.Sprintf("%d%04d", year, seq)
}

// ParseDateOfBirth accepts YYYY-MM-DD dates that are not in the future.
func ParseDateOfBirth(raw string, now time.Time) (time.Time, error) {
	dob, err := time.Parse(model.DateLayout, strings.TrimSpace(raw))
	if err != nil || dob.After(now) {
		return time.Time{}, ErrInvalidDateOfBirth
	}
	return dob, nil
}

// Register creates a candidate with a fresh year-scoped candidate id.
// Concurrent registrations racing for the same sequence are retried.
func (s *CandidateService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Candidate, error) {
	now := s.now()
	dob, err := ParseDateOfBirth(req.DateOfBirth, now)
	if err != nil {
		return nil, err
	}

	year := now.Year()
	prefix := fmt.Sprintf("%d", year)
	count, err := s.candidateRepo.CountWithPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("count candidates: %w", err)
	}

	c := &model.Candidate{
		Name:        strings.TrimSpace(req.Name),
		DateOfBirth: dob,
		PhoneNumber: req.PhoneNumber,
		CountryCode: req.CountryCode,
	}
	for i := 0; i < candidateIDAttempts; i++ {
		c.CandidateID = FormatCandidateID(year, count+1+i)
		err = s.candidateRepo.Create(ctx, c)
		switch {
		case err == nil:
			return c, nil
		case errors.Is(err, repository.ErrDuplicatePhone):
			return nil, ErrPhoneRegistered
		case errors.Is(err, repository.ErrDuplicateCandidateID):
			continue
		default:
			return nil, fmt.Errorf("create candidate: %w", err)
		}
	}
	return nil, fmt.Errorf("allocate candidate id: %w", err)
}

// Login matches name, phone and country code and refuses candidates who
// already have a recorded result.
func (s *CandidateService) Login(ctx context.Context, req *model.LoginRequest) (*model.Candidate, error) {
	c, err := s.candidateRepo.GetByLogin(ctx, strings.TrimSpace(req.Name), req.PhoneNumber, req.CountryCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}

	attempted, err := s.resultRepo.ExistsByPhone(ctx, c.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("check results: %w", err)
	}
	if attempted {
		return nil, ErrAlreadyAttempted
	}
	return c, nil
}

// GetByCandidateID retrieves a candidate by public id.
func (s *CandidateService) GetByCandidateID(ctx context.Context, candidateID string) (*model.Candidate, error) {
	return s.candidateRepo.GetByCandidateID(ctx, candidateID)
}

// ListCandidates retrieves candidates with pagination.
func (s *CandidateService) ListCandidates(ctx context.Context, page, perPage int) ([]model.Candidate, *response.Pagination, error) {
	page, perPage, limit, offset := clampPage(page, perPage)

	candidates, total, err := s.candidateRepo.ListPaginated(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if candidates == nil {
		candidates = []model.Candidate{}
	}
	return candidates, response.NewPagination(page, perPage, total), nil
}
