package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Envelope is the body of every JSON reply the portal sends. Data is always
// present, null on most failures; Error is set only on failures.
type Envelope struct {
	Data       any         `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Metadata ties a reply back to the request_id logged by the middleware.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, envelope(c, data, nil))
}

func SuccessWithPagination(c *gin.Context, status int, data any, p *Pagination) {
	env := envelope(c, data, nil)
	env.Pagination = p
	c.JSON(status, env)
}

func Fail(c *gin.Context, status int, code ErrCode) {
	c.JSON(status, envelope(c, nil, failure(code, nil)))
}

// FailWithData keeps a payload next to the error, as the login endpoint
// does with {"has_attempted": true}.
func FailWithData(c *gin.Context, status int, code ErrCode, data any) {
	c.JSON(status, envelope(c, data, failure(code, nil)))
}

// FailWithFields reports per-field validation messages keyed by JSON name.
func FailWithFields(c *gin.Context, status int, code ErrCode, fields map[string]string) {
	c.JSON(status, envelope(c, nil, failure(code, fields)))
}

// AbortFail is Fail for middleware: handlers after c are skipped.
func AbortFail(c *gin.Context, status int, code ErrCode) {
	c.AbortWithStatusJSON(status, envelope(c, nil, failure(code, nil)))
}

func NewPagination(page, perPage, total int) *Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return &Pagination{Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}

func failure(code ErrCode, fields map[string]string) *ErrorBody {
	return &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}
}

func envelope(c *gin.Context, data any, eb *ErrorBody) Envelope {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		// Routes mounted outside the request-id middleware still get one.
		id = uuid.NewString()
	}
	return Envelope{
		Data:  data,
		Error: eb,
		Metadata: Metadata{
			RequestID: id,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}
