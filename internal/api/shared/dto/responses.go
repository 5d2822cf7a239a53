package dto

import (
	"time"

	"github.com/feral-file/ff-editions/internal/collection"
	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/purchase"
	"github.com/feral-file/ff-editions/internal/reconciler"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// ReservationResponse represents the outcome of a reservation request. Only a reserved
// outcome carries a purchase and a transaction to sign.
type ReservationResponse struct {
	Status              purchase.ReservationStatus `json:"status"`
	PurchaseID          string                     `json:"purchase_id,omitempty"`
	UnsignedTransaction string                     `json:"unsigned_transaction,omitempty"`
	StartsAt            *time.Time                 `json:"starts_at,omitempty"`
	EndedAt             *time.Time                 `json:"ended_at,omitempty"`
}

// PurchaseResponse represents a purchase as seen by its buyer
type PurchaseResponse struct {
	PurchaseID                string                `json:"purchase_id"`
	PostID                    string                `json:"post_id"`
	Status                    domain.PurchaseStatus `json:"status"`
	BuyerWallet               string                `json:"buyer_wallet"`
	AmountPaid                int64                 `json:"amount_paid"`
	Currency                  domain.Currency       `json:"currency"`
	PaymentTxSignature        *string               `json:"payment_tx_signature,omitempty"`
	MasterCreationTxSignature *string               `json:"master_creation_tx_signature,omitempty"`
	PrintTxSignature          *string               `json:"print_tx_signature,omitempty"`
	AssetID                   *string               `json:"asset_id,omitempty"`
	FailureReason             *string               `json:"failure_reason,omitempty"`
	ReservedAt                time.Time             `json:"reserved_at"`
	PaymentConfirmedAt        *time.Time            `json:"payment_confirmed_at,omitempty"`
	MintConfirmedAt           *time.Time            `json:"mint_confirmed_at,omitempty"`
	UpdatedAt                 time.Time             `json:"updated_at"`
}

// CollectResponse represents the outcome of a collect request
type CollectResponse struct {
	Status       collection.Status `json:"status"`
	CollectionID string            `json:"collection_id,omitempty"`
	TxSignature  *string           `json:"tx_signature,omitempty"`
	AssetID      *string           `json:"asset_id,omitempty"`
	StartsAt     *time.Time        `json:"starts_at,omitempty"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
}

// CollectionResponse represents a collection as seen by its collector
type CollectionResponse struct {
	CollectionID    string                  `json:"collection_id"`
	PostID          string                  `json:"post_id"`
	Status          domain.CollectionStatus `json:"status"`
	RecipientWallet string                  `json:"recipient_wallet"`
	TxSignature     *string                 `json:"tx_signature,omitempty"`
	AssetID         *string                 `json:"asset_id,omitempty"`
	ConfirmedAt     *time.Time              `json:"confirmed_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// WebhookResponse acknowledges a transaction webhook
type WebhookResponse struct {
	Result reconciler.WebhookResult `json:"result"`
}

// NewReservationResponse maps a reservation
func NewReservationResponse(r *purchase.Reservation) ReservationResponse {
	return ReservationResponse{
		Status:              r.Status,
		PurchaseID:          r.PurchaseID,
		UnsignedTransaction: r.UnsignedTransaction,
		StartsAt:            r.StartsAt,
		EndedAt:             r.EndedAt,
	}
}

// NewPurchaseResponse maps a purchase record
func NewPurchaseResponse(p *schema.Purchase) PurchaseResponse {
	return PurchaseResponse{
		PurchaseID:                p.ID,
		PostID:                    p.PostID,
		Status:                    p.Status,
		BuyerWallet:               p.BuyerWallet,
		AmountPaid:                p.AmountPaid,
		Currency:                  p.Currency,
		PaymentTxSignature:        p.PaymentTxSignature,
		MasterCreationTxSignature: p.MasterCreationTxSignature,
		PrintTxSignature:          p.PrintTxSignature,
		AssetID:                   p.AssetID,
		FailureReason:             p.FailureReason,
		ReservedAt:                p.ReservedAt,
		PaymentConfirmedAt:        p.PaymentConfirmedAt,
		MintConfirmedAt:           p.MintConfirmedAt,
		UpdatedAt:                 p.UpdatedAt,
	}
}

// NewCollectResponse maps a collect result
func NewCollectResponse(r *collection.Result) CollectResponse {
	resp := CollectResponse{
		Status:   r.Status,
		StartsAt: r.StartsAt,
		EndedAt:  r.EndedAt,
	}
	if r.Collection != nil {
		resp.CollectionID = r.Collection.ID
		resp.TxSignature = r.Collection.TxSignature
		resp.AssetID = r.Collection.AssetID
	}
	return resp
}

// NewCollectionResponse maps a collection record
func NewCollectionResponse(c *schema.Collection) CollectionResponse {
	return CollectionResponse{
		CollectionID:    c.ID,
		PostID:          c.PostID,
		Status:          c.Status,
		RecipientWallet: c.RecipientWallet,
		TxSignature:     c.TxSignature,
		AssetID:         c.AssetID,
		ConfirmedAt:     c.ConfirmedAt,
		CreatedAt:       c.CreatedAt,
	}
}
