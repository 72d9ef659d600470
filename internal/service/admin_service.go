package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/repository"
)

// AdminService handles admin account logic.
type AdminService struct {
	adminRepo *repository.AdminRepository
	auth      *AuthService
}

// NewAdminService creates a new AdminService.
func NewAdminService(adminRepo *repository.AdminRepository, auth *AuthService) *AdminService {
	return &AdminService{adminRepo: adminRepo, auth: auth}
}

// Login verifies credentials and issues an admin token.
func (s *AdminService) Login(ctx context.Context, req *model.AdminLoginRequest) (*model.AdminLoginResponse, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if err := s.auth.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.auth.GenerateAdminToken(admin.ID)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &model.AdminLoginResponse{Token: token, Admin: *admin}, nil
}

// Create inserts an admin with a hashed password, or resets the password of
// an existing admin with the same email.
func (s *AdminService) Create(ctx context.Context, email, name, password string) (*model.Admin, bool, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.adminRepo.GetByEmail(ctx, email)
	if err == nil {
		if err := s.adminRepo.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	admin := &model.Admin{Email: email, Name: name, PasswordHash: hash}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, false, err
	}
	return admin, true, nil
}
