package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/srbmarine/exam-portal/internal/model"
	"github.com/srbmarine/exam-portal/internal/response"
	"github.com/srbmarine/exam-portal/internal/validator"
)

// ContactCreator stores contact form submissions.
type ContactCreator interface {
	Create(ctx context.Context, req *model.ContactRequest) (*model.Contact, error)
}

// ContactHandler handles the public contact form.
type ContactHandler struct {
	contacts ContactCreator
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contacts ContactCreator) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// CreateContact godoc
// POST /api/v1/contacts
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req model.ContactRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	contact, err := h.contacts.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, contact)
}
