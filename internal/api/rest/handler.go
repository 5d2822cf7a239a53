package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/ff-editions/internal/api/middleware"
	"github.com/feral-file/ff-editions/internal/api/shared/dto"
	"github.com/feral-file/ff-editions/internal/collection"
	"github.com/feral-file/ff-editions/internal/purchase"
	"github.com/feral-file/ff-editions/internal/reconciler"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// Reserve takes a unit of an edition and returns the payment transaction to sign
	// POST /api/v1/editions/:post_id/reserve
	Reserve(c *gin.Context)

	// SubmitSignature records the buyer's payment signature
	// POST /api/v1/purchases/:purchase_id/signature
	SubmitSignature(c *gin.Context)

	// GetPurchase reconciles and returns a purchase
	// GET /api/v1/purchases/:purchase_id
	GetPurchase(c *gin.Context)

	// CancelPurchase abandons an unsigned reservation
	// POST /api/v1/purchases/:purchase_id/cancel
	CancelPurchase(c *gin.Context)

	// Collect mints a free collectible to the caller
	// POST /api/v1/collectibles/:post_id/collect
	Collect(c *gin.Context)

	// GetCollection reconciles and returns a collection
	// GET /api/v1/collections/:collection_id
	GetCollection(c *gin.Context)

	// TransactionWebhook applies a pushed transaction outcome
	// POST /api/v1/webhooks/transactions
	TransactionWebhook(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

type handler struct {
	purchases   purchase.Service
	collections collection.Service
	reconciler  reconciler.Reconciler
}

// NewHandler creates a new REST API handler
func NewHandler(purchases purchase.Service, collections collection.Service, rec reconciler.Reconciler) Handler {
	return &handler{
		purchases:   purchases,
		collections: collections,
		reconciler:  rec,
	}
}

// idParam reads a UUID path parameter, responding 400 when it is malformed
func idParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if id == "" {
		respondBadRequest(c, name+" is required")
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		respondBadRequest(c, "Invalid "+name, id)
		return "", false
	}
	return id, true
}

func (h *handler) Reserve(c *gin.Context) {
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}

	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	reservation, err := h.purchases.Reserve(c.Request.Context(), purchase.ReserveInput{
		UserID:      middleware.UserID(c),
		PostID:      postID,
		BuyerWallet: req.BuyerWallet,
		IP:          c.ClientIP(),
	})
	if err != nil {
		respondServiceError(c, err, zap.String("post_id", postID))
		return
	}

	switch reservation.Status {
	case purchase.ReservationRateLimited:
		respondRateLimited(c, reservation.RateLimit)
	case purchase.ReservationReserved:
		c.JSON(http.StatusCreated, dto.NewReservationResponse(reservation))
	default:
		c.JSON(http.StatusOK, dto.NewReservationResponse(reservation))
	}
}

func (h *handler) SubmitSignature(c *gin.Context) {
	purchaseID, ok := idParam(c, "purchase_id")
	if !ok {
		return
	}

	var req dto.SubmitSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	p, err := h.purchases.SubmitSignature(c.Request.Context(), middleware.UserID(c), purchaseID, req.TxSignature)
	if err != nil {
		respondServiceError(c, err, zap.String("purchase_id", purchaseID))
		return
	}

	c.JSON(http.StatusOK, dto.NewPurchaseResponse(p))
}

func (h *handler) GetPurchase(c *gin.Context) {
	purchaseID, ok := idParam(c, "purchase_id")
	if !ok {
		return
	}

	p, err := h.purchases.GetStatus(c.Request.Context(), middleware.UserID(c), purchaseID)
	if err != nil {
		respondServiceError(c, err, zap.String("purchase_id", purchaseID))
		return
	}

	c.JSON(http.StatusOK, dto.NewPurchaseResponse(p))
}

func (h *handler) CancelPurchase(c *gin.Context) {
	purchaseID, ok := idParam(c, "purchase_id")
	if !ok {
		return
	}

	p, err := h.purchases.Cancel(c.Request.Context(), middleware.UserID(c), purchaseID)
	if err != nil {
		respondServiceError(c, err, zap.String("purchase_id", purchaseID))
		return
	}

	c.JSON(http.StatusOK, dto.NewPurchaseResponse(p))
}

func (h *handler) Collect(c *gin.Context) {
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}

	var req dto.CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.collections.Collect(c.Request.Context(), collection.CollectInput{
		UserID:          middleware.UserID(c),
		PostID:          postID,
		RecipientWallet: req.BuyerWallet,
		IP:              c.ClientIP(),
	})
	if err != nil {
		respondServiceError(c, err, zap.String("post_id", postID))
		return
	}

	if result.Status == collection.StatusRateLimited {
		respondRateLimited(c, result.RateLimit)
		return
	}
	c.JSON(http.StatusOK, dto.NewCollectResponse(result))
}

func (h *handler) GetCollection(c *gin.Context) {
	collectionID, ok := idParam(c, "collection_id")
	if !ok {
		return
	}

	col, err := h.collections.GetStatus(c.Request.Context(), middleware.UserID(c), collectionID)
	if err != nil {
		respondServiceError(c, err, zap.String("collection_id", collectionID))
		return
	}

	c.JSON(http.StatusOK, dto.NewCollectionResponse(col))
}

func (h *handler) TransactionWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		respondBadRequest(c, "Failed to read request body", err.Error())
		return
	}

	var req dto.TransactionWebhookRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err)
		return
	}

	result, err := h.reconciler.HandleWebhook(c.Request.Context(), req.Signature, req.Outcome, body)
	if err != nil {
		respondServiceError(c, err, zap.String("signature", req.Signature))
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Result: result})
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-editions-api",
	})
}
