package domain

import (
	"time"
)

// Chain represents the blockchain network identifier using CAIP-2 format
type Chain string

const (
	ChainSolanaMainnet Chain = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	ChainSolanaDevnet  Chain = "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
)

// IsValidChain checks if a chain is valid
func IsValidChain(chain Chain) bool {
	return chain == ChainSolanaMainnet || chain == ChainSolanaDevnet
}

// PostKind distinguishes paid editions from free collectibles
type PostKind string

const (
	PostKindEdition     PostKind = "edition"
	PostKindCollectible PostKind = "collectible"
)

// Currency is the settlement currency of an edition
type Currency string

const (
	CurrencySOL  Currency = "SOL"
	CurrencyUSDC Currency = "USDC"
)

// USDC token mints per cluster
const (
	USDCMintMainnet = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDCMintDevnet  = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"
)

// USDCMint returns the USDC mint of chain, empty for an unknown chain
func USDCMint(chain Chain) string {
	switch chain {
	case ChainSolanaMainnet:
		return USDCMintMainnet
	case ChainSolanaDevnet:
		return USDCMintDevnet
	}
	return ""
}

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// TxStatus is the on-chain status of a submitted transaction as seen by the ledger reader
type TxStatus string

const (
	// TxStatusNotFound means the cluster does not know the signature yet
	TxStatusNotFound TxStatus = "not_found"
	// TxStatusProcessed means the transaction landed but has not reached confirmed commitment
	TxStatusProcessed TxStatus = "processed"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFinalized TxStatus = "finalized"
	// TxStatusFailed means the transaction landed with an error
	TxStatusFailed TxStatus = "failed"
)

// Settled reports whether the status is confirmed or finalized
func (s TxStatus) Settled() bool {
	return s == TxStatusConfirmed || s == TxStatusFinalized
}

// Valid reports whether s is a known status
func (s TxStatus) Valid() bool {
	switch s {
	case TxStatusNotFound, TxStatusProcessed, TxStatusConfirmed, TxStatusFinalized, TxStatusFailed:
		return true
	}
	return false
}

// RateLimitReason is the machine readable reason of a rate limit rejection
type RateLimitReason string

const (
	RateLimitReasonBurst RateLimitReason = "burst_limit"
	RateLimitReasonDaily RateLimitReason = "daily_limit"
	RateLimitReasonIP    RateLimitReason = "ip_limit"
)

// NotificationKind identifies a pipeline notification
type NotificationKind string

const (
	NotificationPurchaseConfirmed   NotificationKind = "purchase.confirmed"
	NotificationPurchaseFailed      NotificationKind = "purchase.failed"
	NotificationPurchaseBlocked     NotificationKind = "purchase.blocked"
	NotificationCollectionConfirmed NotificationKind = "collection.confirmed"
)

// Notification is a best-effort message emitted when an acquisition settles
type Notification struct {
	// EventID is a ULID for time-sortable uniqueness
	EventID   string           `json:"event_id"`
	Kind      NotificationKind `json:"kind"`
	UserID    string           `json:"user_id"`
	PostID    string           `json:"post_id"`
	SubjectID string           `json:"subject_id"`
	AssetID   *string          `json:"asset_id,omitempty"`
	Signature *string          `json:"signature,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
