package handlers

import (
	"errors"
	"net/http"

	"github.com/assetstore/backend/internal/apperror"
	"github.com/assetstore/backend/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusOf maps an error class to its HTTP status and error code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// RespondError writes err as {"error": code, "message": text}. Unclassified
// errors are logged and reported without detail.
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	status, code := statusOf(err)
	body := gin.H{"error": code, "message": err.Error()}
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		body["message"] = "internal server error"
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError wraps a gin binding failure as a validation error.
func bindError(err error) error {
	return apperror.ValidationFailed("", err.Error())
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ValidationFailed(name, name+" must be a UUID")
	}
	return id, nil
}
