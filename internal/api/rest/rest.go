package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-editions/internal/api/middleware"
	"github.com/feral-file/ff-editions/internal/metrics"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig, webhookCfg middleware.WebhookAuthConfig) {
	// Health and metrics (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Acquisition endpoints act on behalf of the token subject
		user := v1.Group("", middleware.Auth(authCfg))
		user.POST("/editions/:post_id/reserve", handler.Reserve)
		user.POST("/purchases/:purchase_id/signature", handler.SubmitSignature)
		user.GET("/purchases/:purchase_id", handler.GetPurchase)
		user.POST("/purchases/:purchase_id/cancel", handler.CancelPurchase)
		user.POST("/collectibles/:post_id/collect", handler.Collect)
		user.GET("/collections/:collection_id", handler.GetCollection)

		// Transaction watcher callbacks
		v1.POST("/webhooks/transactions", middleware.WebhookAuth(webhookCfg), handler.TransactionWebhook)
	}
}
