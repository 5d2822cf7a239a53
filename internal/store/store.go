package store

import (
	"context"
	"time"

	"github.com/feral-file/ff-editions/internal/domain"
	"github.com/feral-file/ff-editions/internal/store/schema"
)

// PurchaseUpdate carries the columns written together with a purchase status transition.
// Nil fields are left untouched.
type PurchaseUpdate struct {
	PaymentTxSignature        *string
	MasterCreationTxSignature *string
	PrintTxSignature          *string
	AssetID                   *string
	FailureReason             *string
	SubmittedAt               *time.Time
	PaymentConfirmedAt        *time.Time
	MintingStartedAt          *time.Time
	MintConfirmedAt           *time.Time
	FailedAt                  *time.Time
	// ClearClaim resets fulfillment_key and fulfillment_claimed_at
	ClearClaim bool
}

// PurchaseTransition is a compare-and-set on a purchase's status
type PurchaseTransition struct {
	PurchaseID string
	// From lists the statuses the record must currently be in
	From []domain.PurchaseStatus
	To   domain.PurchaseStatus
	// ClaimKey, when set, additionally requires fulfillment_key to match
	ClaimKey *string
	// RequireNoPaymentSignature additionally requires payment_tx_signature to be null
	RequireNoPaymentSignature bool
	// ReleaseSupply releases the post's supply reservation in the same transaction
	// when the transition applies
	ReleaseSupply bool
	Update        PurchaseUpdate
}

// CollectionUpdate carries the columns written together with a collection status transition
type CollectionUpdate struct {
	TxSignature     *string
	AssetID         *string
	RecipientWallet *string
	OriginIP        *string
	ConfirmedAt     *time.Time
	// RestartedAt resets created_at so staleness is measured for the new attempt
	RestartedAt *time.Time
	// ClearTxSignature drops the previous attempt's signature
	ClearTxSignature bool
}

// CollectionTransition is a compare-and-set on a collection's status
type CollectionTransition struct {
	CollectionID string
	From         domain.CollectionStatus
	To           domain.CollectionStatus
	// CreatedBefore, when set, additionally requires created_at < CreatedBefore
	CreatedBefore *time.Time
	Update        CollectionUpdate
}

// ClaimFulfillmentInput is the input of a fulfillment claim
type ClaimFulfillmentInput struct {
	PurchaseID string
	// From is the fulfillable status the caller observed; the claim only applies from it
	From domain.PurchaseStatus
	Key  string
	Now  time.Time
	// StaleBefore is the cutoff under which an existing claim is considered abandoned
	StaleBefore time.Time
}

// ClaimMasterInput is the input of a master edition creation claim
type ClaimMasterInput struct {
	PostID string
	Key    string
	Now    time.Time
	// StaleBefore is the cutoff under which an existing claim is considered abandoned
	StaleBefore time.Time
}

// ListPurchasesFilter selects purchases for background reconciliation
type ListPurchasesFilter struct {
	Statuses []domain.PurchaseStatus
	// UpdatedBefore, when set, only returns rows last updated before this instant
	UpdatedBefore *time.Time
	Limit         int
}

// Store defines the interface for database operations.
// Every status change is a conditional update on the expected prior status; callers
// never read-modify-write shared rows.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// CreatePost inserts a post
	CreatePost(ctx context.Context, post *schema.Post) error
	// GetPost retrieves a post by ID, nil if it does not exist
	GetPost(ctx context.Context, postID string) (*schema.Post, error)
	// ReserveSupply increments current_supply if max_supply allows it. Returns false when sold out.
	ReserveSupply(ctx context.Context, postID string) (bool, error)
	// ReleaseSupply decrements current_supply, clamped at zero
	ReleaseSupply(ctx context.Context, postID string) error
	// SetMasterAssetIfNull stores the master edition of a post unless one is already set.
	// Returns the master asset ID in effect after the call.
	SetMasterAssetIfNull(ctx context.Context, postID, assetID, txSignature string) (string, error)
	// ClaimMasterCreation takes the right to create the post's master edition. Returns false
	// when the master already exists or another fulfillment holds a fresh claim.
	ClaimMasterCreation(ctx context.Context, input ClaimMasterInput) (bool, error)
	// ReleaseMasterClaim drops the master creation claim if key still holds it
	ReleaseMasterClaim(ctx context.Context, postID, key string) error

	// CreatePurchase inserts a purchase
	CreatePurchase(ctx context.Context, purchase *schema.Purchase) error
	// GetPurchase retrieves a purchase by ID, nil if it does not exist
	GetPurchase(ctx context.Context, purchaseID string) (*schema.Purchase, error)
	// GetPurchaseByTxSignature finds the purchase whose payment, master creation or print
	// transaction carries the signature, nil if none
	GetPurchaseByTxSignature(ctx context.Context, signature string) (*schema.Purchase, error)
	// TransitionPurchase applies the transition if the record is still in one of the expected
	// statuses. Returns false when another caller got there first.
	TransitionPurchase(ctx context.Context, transition PurchaseTransition) (bool, error)
	// ClaimFulfillment takes the fulfillment claim and moves the purchase to minting.
	// Returns false when the purchase is not fulfillable or someone else holds a fresh claim.
	ClaimFulfillment(ctx context.Context, input ClaimFulfillmentInput) (bool, error)
	// SetPurchaseAssetID back-fills the asset ID if still null
	SetPurchaseAssetID(ctx context.Context, purchaseID, assetID string) (bool, error)
	// ListPurchases returns purchases matching the filter, oldest update first
	ListPurchases(ctx context.Context, filter ListPurchasesFilter) ([]schema.Purchase, error)

	// CreateCollection inserts a collection unless one already exists for (user, post).
	// Returns false on conflict.
	CreateCollection(ctx context.Context, collection *schema.Collection) (bool, error)
	// GetCollection retrieves the collection of a user for a post, nil if none
	GetCollection(ctx context.Context, userID, postID string) (*schema.Collection, error)
	// GetCollectionByID retrieves a collection by ID, nil if none
	GetCollectionByID(ctx context.Context, collectionID string) (*schema.Collection, error)
	// GetCollectionByTxSignature retrieves a collection by its mint signature, nil if none
	GetCollectionByTxSignature(ctx context.Context, signature string) (*schema.Collection, error)
	// TransitionCollection applies the transition if the record is still in the expected status
	TransitionCollection(ctx context.Context, transition CollectionTransition) (bool, error)
	// SetCollectionTxSignature records the mint signature of a pending collection that has none
	SetCollectionTxSignature(ctx context.Context, collectionID, signature string) (bool, error)
	// SetCollectionAssetID back-fills the asset ID if still null
	SetCollectionAssetID(ctx context.Context, collectionID, assetID string) (bool, error)
	// ListPendingCollections returns pending collections created before the cutoff
	ListPendingCollections(ctx context.Context, createdBefore time.Time, limit int) ([]schema.Collection, error)

	// RecordWebhookReceipt logs an inbound webhook. Returns false if the same
	// (signature, outcome) was already received.
	RecordWebhookReceipt(ctx context.Context, signature string, outcome domain.TxStatus, payload []byte) (bool, error)
	// RecordNotification logs a notification under its dedupe key. Returns false if the key
	// was already recorded.
	RecordNotification(ctx context.Context, dedupeKey, kind string, payload []byte) (bool, error)
	// DeleteNotification removes a notification record so that a later attempt may send it again
	DeleteNotification(ctx context.Context, dedupeKey string) error
}
