package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/service"
)

// QuestionSource lists the public question set.
type QuestionSource interface {
	Questions(ctx context.Context) ([]model.Question, error)
}

// QuestionHandler serves the exam's question set.
type QuestionHandler struct {
	questions QuestionSource
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions QuestionSource) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// ListQuestions godoc
// GET /api/v1/questions
// Lists the questions in ordinal order. The answer key is never included.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questions.Questions(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrQuestionSetIncomplete) {
			response.Fail(c, http.StatusServiceUnavailable, response.ErrQuestionsUnavailable)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions, "total": len(questions)})
}
