package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/additive-lens/internal/interfaces/http/middleware"
	"github.com/turtacn/additive-lens/pkg/errors"
)

// respondError maps an error to its HTTP status and writes the standard error
// body. Server-side messages are replaced by the code's default message.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code = errors.CodeTimeout
	case errors.Is(err, context.Canceled):
		code = errors.CodeServiceUnavailable
	case code == errors.CodeUnknown:
		code = errors.CodeInternal
	}

	status := errors.HTTPStatusForCode(code)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = errors.DefaultMessageForCode(code)
	}
	_ = c.Error(err)
	middleware.AbortWithError(c, status, string(code), message)
}

// badRequest writes a 400 with the invalid-parameter code.
func badRequest(c *gin.Context, message string) {
	middleware.AbortWithError(c, http.StatusBadRequest, string(errors.CodeInvalidParam), message)
}

// bindJSON decodes the body into dst and answers 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
