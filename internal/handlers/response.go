package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/interview-scheduler/internal/services"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// serviceError maps service sentinels onto HTTP statuses. Anything unexpected
// is logged and reported as a bare 500.
func serviceError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInterviewNotFound), errors.Is(err, services.ErrApplicationNotFound):
		fail(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, services.ErrInvalidStatus), errors.Is(err, services.ErrNothingToUpdate):
		fail(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrNotScheduled), errors.Is(err, services.ErrNoRecipient):
		fail(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, services.ErrRemindersDisabled):
		fail(c, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
	default:
		_ = c.Error(err)
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
