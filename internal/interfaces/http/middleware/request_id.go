package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/additive-lens/pkg/errors"
)

const (
	// HeaderRequestID carries the request ID in both directions.
	HeaderRequestID = "X-Request-ID"

	requestIDKey       = "request_id"
	maxRequestIDLength = 128
)

// ErrorResponse is the body of every error the API returns.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// RequestID keeps a well-formed client supplied X-Request-ID and generates a
// UUID otherwise. The ID is echoed in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AbortWithError stops the chain with a JSON error body.
func AbortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: GetRequestID(c),
	})
}

// NotFound answers unmatched routes in the API's error format.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		AbortWithError(c, http.StatusNotFound, string(errors.CodeNotFound), "route "+c.Request.URL.Path+" not found")
	}
}
