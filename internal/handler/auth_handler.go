package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/service"
	"github.com/srbmarine/exam-portal/internal/validator"
)

// AdminAuthenticator verifies admin credentials.
type AdminAuthenticator interface {
	Login(ctx context.Context, req *model.AdminLoginRequest) (*model.AdminLoginResponse, error)
}

// AuthHandler handles admin authentication.
type AuthHandler struct {
	adminService AdminAuthenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(adminService AdminAuthenticator) *AuthHandler {
	return &AuthHandler{adminService: adminService}
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
// Validates email + password, returns JWT.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.adminService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}
