package handlers

import (
	"errors"
	"net/http"

	"coderanker/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// statusFor maps the error kinds to the response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrProviderNotFound),
		errors.Is(err, apperrors.ErrProviderRateLimited),
		errors.Is(err, apperrors.ErrProviderTimeout),
		errors.Is(err, apperrors.ErrProviderUnknown):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
