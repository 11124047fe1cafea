package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/litigation-tracker/internal/importer"
	"github.com/rongwang/litigation-tracker/internal/models"
	"github.com/rongwang/litigation-tracker/internal/service"
	"go.uber.org/zap"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

func badRequest(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

// errorStatus maps a service error onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, service.ErrAllocationExhausted):
		return http.StatusInsufficientStorage, "ALLOCATION_EXHAUSTED"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, service.ErrUserLimitExceeded):
		return http.StatusUnprocessableEntity, "USER_LIMIT_EXCEEDED"
	case errors.Is(err, service.ErrLastAdminProtected):
		return http.StatusUnprocessableEntity, "LAST_ADMIN_PROTECTED"
	case errors.Is(err, service.ErrDuplicateUsername):
		return http.StatusConflict, "DUPLICATE_USERNAME"
	case errors.Is(err, service.ErrUserHasRecords):
		return http.StatusConflict, "USER_HAS_RECORDS"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, importer.ErrEmptyManifest),
		errors.Is(err, importer.ErrInvalidManifest):
		return http.StatusBadRequest, "INVALID_REQUEST"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondError writes the error body for err. Internal errors are logged
// and reported with a generic message.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	resp := models.ErrorResponse{Status: "error", Code: code, Message: err.Error()}

	var te *service.TransitionError
	if errors.As(err, &te) {
		resp.CurrentStatus = string(te.From)
		resp.RequestedStatus = string(te.To)
	}

	switch status {
	case http.StatusInternalServerError:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		resp.Message = "Internal server error"
	case http.StatusInsufficientStorage:
		h.logger.Error("case identifiers exhausted", zap.Error(err))
	}
	c.AbortWithStatusJSON(status, resp)
}
