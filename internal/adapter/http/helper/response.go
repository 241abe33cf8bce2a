package helper

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"todostore/internal/adapter/http/validation"
	"todostore/internal/core/domain"
	"todostore/internal/core/model/response"
)

func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, response.ErrorResponse{Err: message})
}

// SendValidationError answers 422 for anything that failed to decode or validate.
func SendValidationError(c *gin.Context, err error) {
	SendError(c, http.StatusUnprocessableEntity, validation.FormatValidationErrors(err))
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}

	return http.StatusInternalServerError
}

func SendServiceError(c *gin.Context, err error) {
	SendError(c, StatusFor(err), err.Error())
}
