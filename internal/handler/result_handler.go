package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srbmarine/exam-portal/internal/exam"
	"github.com/srbmarine/exam-portal/internal/middleware"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/service"
	"github.com/srbmarine/exam-portal/internal/session"
	"github.com/srbmarine/exam-portal/internal/validator"
)

// ResultHandler exposes the scoring boundary and the session's result.
type ResultHandler struct {
	scorer exam.Scorer
	store  session.Store
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(scorer exam.Scorer, store session.Store) *ResultHandler {
	return &ResultHandler{scorer: scorer, store: store}
}

// Submit godoc
// POST /api/v1/results/submit
// Grades a submission once per phone number and keeps the result in session.
func (h *ResultHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if req.CandidateID != claims.CandidateID {
		response.Fail(c, http.StatusForbidden, response.ErrCandidateAccessOnly)
		return
	}
	for ord := range req.Answers {
		if ord > exam.QuestionCount {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
				"answers": "answers must reference questions 1 to 20",
			})
			return
		}
	}

	res, err := h.scorer.Score(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadySubmitted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyAttempted)
		case errors.Is(err, service.ErrQuestionSetIncomplete):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrQuestionsUnavailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	if err := h.store.SaveResult(c.Request.Context(), claims.SessionID(), res); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, res)
}

// SessionResult godoc
// GET /api/v1/session/result
// Returns the result kept for the result view.
func (h *ResultHandler) SessionResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.store.Result(c.Request.Context(), claims.SessionID())
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotReady)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, res)
}
