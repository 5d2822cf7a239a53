package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-editions/internal/api/shared/errors"
	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/webhook"
)

const (
	HEADER_WEBHOOK_SECRET    = "X-Webhook-Secret"
	HEADER_WEBHOOK_SIGNATURE = "X-Webhook-Signature"
	HEADER_WEBHOOK_TIMESTAMP = "X-Webhook-Timestamp"

	maxWebhookBodyBytes = 64 << 10
)

// WebhookAuthConfig holds webhook authentication configuration
type WebhookAuthConfig struct {
	Secret string
	// Tolerance is the accepted clock skew of signed timestamps
	Tolerance time.Duration
}

// WebhookAuth authenticates transaction webhooks either by the shared secret header or
// by an HMAC signature over the timestamp and body. Bodies over 64KB are refused with 413
// on both paths. The body is restored for the handler.
func WebhookAuth(cfg WebhookAuthConfig) gin.HandlerFunc {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 5 * time.Minute
	}

	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				logger.WarnCtx(c.Request.Context(), "Webhook body too large",
					zap.Int64("limit", tooLarge.Limit),
					zap.String("client_ip", c.ClientIP()),
				)
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apierrors.Response{
					Error: apierrors.NewPayloadTooLargeError(tooLarge.Limit),
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, apierrors.Response{
				Error: apierrors.NewBadRequestError("Failed to read request body", err.Error()),
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		switch provided := c.GetHeader(HEADER_WEBHOOK_SECRET); {
		case cfg.Secret == "":
			err = webhook.ErrMissingCredentials
		case provided != "":
			err = webhook.VerifySecret(cfg.Secret, provided)
		default:
			err = webhook.VerifySignature(
				cfg.Secret,
				c.GetHeader(HEADER_WEBHOOK_SIGNATURE),
				c.GetHeader(HEADER_WEBHOOK_TIMESTAMP),
				body,
				time.Now(),
				cfg.Tolerance,
			)
		}

		if err != nil {
			logger.WarnCtx(c.Request.Context(), "Webhook authentication failed",
				zap.Error(err),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.Response{
				Error: apierrors.NewUnauthorizedError("Webhook authentication failed"),
			})
			return
		}

		c.Next()
	}
}
