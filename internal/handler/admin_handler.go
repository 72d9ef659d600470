package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/service"
)

// AdminHandler serves the admin listings of candidates, results, contact
// messages and the integrity audit trail.
type AdminHandler struct {
	candidateService *service.CandidateService
	resultService    *service.ResultService
	contactService   *service.ContactService
	integrityService *service.IntegrityService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	candidateService *service.CandidateService,
	resultService *service.ResultService,
	contactService *service.ContactService,
	integrityService *service.IntegrityService,
) *AdminHandler {
	return &AdminHandler{
		candidateService: candidateService,
		resultService:    resultService,
		contactService:   contactService,
		integrityService: integrityService,
	}
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	return page, perPage
}

// ListCandidates godoc
// GET /api/v1/admin/candidates
func (h *AdminHandler) ListCandidates(c *gin.Context) {
	page, perPage := pageParams(c)

	candidates, pagination, err := h.candidateService.ListCandidates(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"candidates": candidates}, pagination)
}

// GetCandidate godoc
// GET /api/v1/admin/candidates/:candidate_id
func (h *AdminHandler) GetCandidate(c *gin.Context) {
	candidate, err := h.candidateService.GetByCandidateID(c.Request.Context(), c.Param("candidate_id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"candidate": candidate})
}

// ListResults godoc
// GET /api/v1/admin/results
func (h *AdminHandler) ListResults(c *gin.Context) {
	page, perPage := pageParams(c)

	results, pagination, err := h.resultService.ListResults(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// ListCandidateResults godoc
// GET /api/v1/admin/results/candidate/:candidate_id
func (h *AdminHandler) ListCandidateResults(c *gin.Context) {
	results, err := h.resultService.ListByCandidate(c.Request.Context(), c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []model.ResultRecord{}
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ListContacts godoc
// GET /api/v1/admin/contacts
func (h *AdminHandler) ListContacts(c *gin.Context) {
	page, perPage := pageParams(c)

	contacts, pagination, err := h.contactService.ListContacts(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"contacts": contacts}, pagination)
}

// ListIntegrityEvents godoc
// GET /api/v1/admin/candidates/:candidate_id/integrity-events
func (h *AdminHandler) ListIntegrityEvents(c *gin.Context) {
	events, err := h.integrityService.ListByCandidate(c.Request.Context(), c.Param("candidate_id"))
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}
