package dto

import (
	"fmt"

	apierrors "github.com/feral-file/ff-editions/internal/api/shared/errors"
	"github.com/feral-file/ff-editions/internal/domain"
)

// ReserveRequest represents the request body for reserving an edition
type ReserveRequest struct {
	// BuyerWallet pays for and receives the print
	BuyerWallet string `json:"buyer_wallet"`
}

// Validate validates the request body
func (r *ReserveRequest) Validate() error {
	if r.BuyerWallet == "" {
		return apierrors.NewValidationError(domain.ErrMissingWallet.Error())
	}
	if err := domain.ValidateWallet(r.BuyerWallet); err != nil {
		return apierrors.NewValidationError(fmt.Sprintf("%s: %s", err, r.BuyerWallet))
	}
	return nil
}

// SubmitSignatureRequest represents the request body for recording a payment signature
type SubmitSignatureRequest struct {
	TxSignature string `json:"tx_signature"`
}

// Validate validates the request body
func (r *SubmitSignatureRequest) Validate() error {
	if r.TxSignature == "" {
		return apierrors.NewValidationError("tx_signature is required")
	}
	if err := domain.ValidateSignature(r.TxSignature); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// CollectRequest represents the request body for collecting a free collectible
type CollectRequest struct {
	// BuyerWallet receives the collectible
	BuyerWallet string `json:"buyer_wallet"`
}

// Validate validates the request body
func (r *CollectRequest) Validate() error {
	if r.BuyerWallet == "" {
		return apierrors.NewValidationError(domain.ErrMissingWallet.Error())
	}
	if err := domain.ValidateWallet(r.BuyerWallet); err != nil {
		return apierrors.NewValidationError(fmt.Sprintf("%s: %s", err, r.BuyerWallet))
	}
	return nil
}

// TransactionWebhookRequest is the body pushed by the transaction watcher
type TransactionWebhookRequest struct {
	Signature string          `json:"signature"`
	Outcome   domain.TxStatus `json:"outcome"`
}

// Validate validates the request body
func (r *TransactionWebhookRequest) Validate() error {
	if err := domain.ValidateSignature(r.Signature); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	if !r.Outcome.Valid() {
		return apierrors.NewValidationError(fmt.Sprintf("unknown outcome: %s", r.Outcome))
	}
	return nil
}
