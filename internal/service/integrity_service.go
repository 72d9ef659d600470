package service

import (
	"context"

	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
)

// IntegrityService reads the integrity audit trail.
type IntegrityService struct {
	integrityRepo *repository.IntegrityEventRepository
}

// NewIntegrityService creates a new IntegrityService.
func NewIntegrityService(integrityRepo *repository.IntegrityEventRepository) *IntegrityService {
	return &IntegrityService{integrityRepo: integrityRepo}
}

// ListByCandidate returns one candidate's guard decisions, oldest first.
func (s *IntegrityService) ListByCandidate(ctx context.Context, candidateID string) ([]model.IntegrityEvent, error) {
	events, err := s.integrityRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.IntegrityEvent{}
	}
	return events, nil
}
