package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"firewatch-worker-go/internal/logging"
	"firewatch-worker-go/internal/models"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Camera not found"`
}

// StatusFor maps a service error to its HTTP status code
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConflict), errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, models.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, err error, msg string) {
	code := StatusFor(err)
	event := logging.Warn(c)
	if code >= http.StatusInternalServerError {
		event = logging.Error(c)
	}
	event.Err(err).Int("status", code).Msg(msg)
	_ = c.Error(err)
	c.JSON(code, ErrorResponse{Success: false, Message: err.Error()})
}

func badRequest(c *gin.Context, message string) {
	logging.Warn(c).Msg(message)
	c.JSON(http.StatusBadRequest, ErrorResponse{Success: false, Message: message})
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, msg)
}
