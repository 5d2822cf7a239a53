package domain

import "errors"

var (
	// ErrSoldOut is returned when a post has no remaining supply
	ErrSoldOut = errors.New("sold out")

	// ErrPostNotFound is returned when a post is not found
	ErrPostNotFound = errors.New("post not found")

	// ErrPurchaseNotFound is returned when a purchase is not found
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrCollectionNotFound is returned when a collection record is not found
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrWrongPostKind is returned when a collect is attempted on an edition or a purchase on a collectible
	ErrWrongPostKind = errors.New("wrong post kind")

	// ErrNotOwner is returned when a user acts on another user's record
	ErrNotOwner = errors.New("record belongs to another user")

	// ErrCancelNotAllowed is returned when cancelling a purchase that already carries a signature
	ErrCancelNotAllowed = errors.New("purchase can no longer be cancelled")

	// ErrSignatureConflict is returned when a different signature is already recorded
	ErrSignatureConflict = errors.New("a different signature is already recorded")

	// ErrInvalidSignature is returned for malformed transaction signatures
	ErrInvalidSignature = errors.New("invalid transaction signature")

	// ErrInvalidWallet is returned for malformed wallet addresses
	ErrInvalidWallet = errors.New("invalid wallet address")

	// ErrMissingWallet is returned when neither the request nor the profile provides a wallet
	ErrMissingWallet = errors.New("buyer wallet is required")

	// ErrTransientChain is returned when the chain RPC could not be reached after retries.
	// The record is left advanceable for the next poll.
	ErrTransientChain = errors.New("chain temporarily unavailable")

	// ErrMasterEditionMissing is returned when a purchase is past master creation but its post
	// has no master edition recorded. Never auto-resolved.
	ErrMasterEditionMissing = errors.New("master edition missing")

	// ErrInvalidStatusTransition is returned when a caller asks for an edge outside the graph
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrPaymentMismatch is returned when a settled transaction does not move the expected
	// amount from the buyer to the creator
	ErrPaymentMismatch = errors.New("payment mismatch")
)
