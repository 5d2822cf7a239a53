package domain

import (
	"strings"

	"github.com/mr-tron/base58"
)

// ValidateSignature checks that sig is a base58 encoded 64 byte transaction signature
func ValidateSignature(sig string) error {
	if !hasDecodedLength(sig, SOLANA_SIGNATURE_LENGTH) {
		return ErrInvalidSignature
	}
	return nil
}

// ValidateWallet checks that addr is a base58 encoded 32 byte public key
func ValidateWallet(addr string) error {
	if !hasDecodedLength(addr, SOLANA_PUBKEY_LENGTH) {
		return ErrInvalidWallet
	}
	return nil
}

func hasDecodedLength(s string, n int) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == n
}
