package domain

import "time"

const (
	// DEFAULT_STALE_THRESHOLD is the age after which an in-progress record with no forward
	// evidence is presumed abandoned or crashed
	DEFAULT_STALE_THRESHOLD = 2 * time.Minute

	// DEFAULT_PAYMENT_EXPIRY is the age after which a submitted payment the chain has never
	// seen is failed. Well past the lifetime of a recent blockhash.
	DEFAULT_PAYMENT_EXPIRY = 5 * time.Minute

	// DEFAULT_RPC_TIMEOUT bounds a single chain RPC call
	DEFAULT_RPC_TIMEOUT = 15 * time.Second

	// DEFAULT_RPC_MAX_RETRIES is the number of retries on transient RPC failures
	DEFAULT_RPC_MAX_RETRIES = 3

	// SOLANA_SIGNATURE_LENGTH is the decoded size of an ed25519 transaction signature
	SOLANA_SIGNATURE_LENGTH = 64

	// SOLANA_PUBKEY_LENGTH is the decoded size of a Solana address
	SOLANA_PUBKEY_LENGTH = 32
)
