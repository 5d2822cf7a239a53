package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-editions/internal/api/shared/errors"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/ratelimit"
)

func respond(c *gin.Context, status int, apiErr *apierrors.APIError) {
	c.JSON(status, apierrors.Response{Error: apiErr})
}

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respond(c, http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondValidationError responds with a validation error. Errors that already carry an
// API error are passed through.
func respondValidationError(c *gin.Context, err error) {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		respond(c, http.StatusUnprocessableEntity, apiErr)
		return
	}
	respond(c, http.StatusUnprocessableEntity, apierrors.NewValidationError(err.Error()))
}

// respondRateLimited responds with 429 and a Retry-After header
func respondRateLimited(c *gin.Context, decision *ratelimit.Decision) {
	apiErr := apierrors.NewRateLimitedError(decision.Reason, decision.RetryAfter, decision.ResetAt)
	c.Header("Retry-After", strconv.Itoa(apiErr.RetryAfterSeconds))
	respond(c, http.StatusTooManyRequests, apiErr)
}

// respondServiceError maps a service error to its response. Unexpected errors are logged.
func respondServiceError(c *gin.Context, err error, fields ...zap.Field) {
	status, apiErr := apierrors.FromDomainError(err)
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable:
		logger.ErrorCtx(c.Request.Context(), err, fields...)
	case status == http.StatusServiceUnavailable:
		logger.WarnCtx(c.Request.Context(), "Chain unavailable", append(fields, zap.Error(err))...)
	}
	respond(c, status, apiErr)
}
