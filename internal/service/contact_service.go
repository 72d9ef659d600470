package service

import (
	"context"
	"strings"

	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
	"github.com/srbmarine/exam-portal/internal/response"
)

// ContactService handles the public contact form.
type ContactService struct {
	contactRepo *repository.ContactRepository
}

// NewContactService creates a new ContactService.
func NewContactService(contactRepo *repository.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

// Create stores a contact message.
func (s *ContactService) Create(ctx context.Context, req *model.ContactRequest) (*model.Contact, error) {
	c := &model.Contact{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Message: strings.TrimSpace(req.Message),
	}
	if err := s.contactRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListContacts retrieves contact messages with pagination.
func (s *ContactService) ListContacts(ctx context.Context, page, perPage int) ([]model.Contact, *response.Pagination, error) {
	page, perPage, limit, offset := clampPage(page, perPage)

	contacts, total, err := s.contactRepo.ListPaginated(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, response.NewPagination(page, perPage, total), nil
}
