package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srbmarine/exam-portal/internal/middleware"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/service"
	"github.com/srbmarine/exam-portal/internal/session"
	"github.com/srbmarine/exam-portal/internal/validator"
)

// CandidateAccounts registers and authenticates candidates.
type CandidateAccounts interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Candidate, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.Candidate, error)
}

// CandidateSessions opens and closes exam sessions.
type CandidateSessions interface {
	StartCandidateSession(ctx context.Context, identity model.CandidateIdentity) (string, error)
	EndCandidateSession(ctx context.Context, candidateID, sid string) error
}

// IdentityHandler handles candidate registration, login and logout.
type IdentityHandler struct {
	accounts CandidateAccounts
	sessions CandidateSessions
	store    session.Store
}

// NewIdentityHandler creates a new IdentityHandler.
func NewIdentityHandler(accounts CandidateAccounts, sessions CandidateSessions, store session.Store) *IdentityHandler {
	return &IdentityHandler{accounts: accounts, sessions: sessions, store: store}
}

// Register godoc
// POST /api/v1/identity/register
// Creates a candidate and opens their exam session.
func (h *IdentityHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhoneRegistered):
			response.Fail(c, http.StatusConflict, response.ErrPhoneAlreadyRegistered)
		case errors.Is(err, service.ErrInvalidDateOfBirth):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"date_of_birth": err.Error(),
			})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	h.openSession(c, http.StatusCreated, candidate.Identity())
}

// Login godoc
// POST /api/v1/identity/login
// Matches name, phone and country code; refuses candidates with a result.
func (h *IdentityHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.accounts.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		case errors.Is(err, service.ErrAlreadyAttempted):
			response.FailWithData(c, http.StatusConflict, response.ErrAlreadyAttempted, gin.H{"has_attempted": true})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	h.openSession(c, http.StatusOK, candidate.Identity())
}

func (h *IdentityHandler) openSession(c *gin.Context, status int, identity model.CandidateIdentity) {
	token, err := h.sessions.StartCandidateSession(c.Request.Context(), identity)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, status, model.SessionResponse{Token: token, Candidate: identity})
}

// Logout godoc
// POST /api/v1/identity/logout
// Tears down every value of the caller's session.
func (h *IdentityHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.sessions.EndCandidateSession(c.Request.Context(), claims.CandidateID, claims.SessionID()); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/identity/me
// Returns the identity held in the caller's session.
func (h *IdentityHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	identity, err := h.store.Identity(c.Request.Context(), claims.SessionID())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": identity})
}
