package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const signaturePrefix = "sha256="

var (
	// ErrMissingCredentials is returned when a request carries neither a secret nor a signature
	ErrMissingCredentials = errors.New("missing webhook credentials")
	// ErrInvalidSecret is returned when the shared secret header does not match
	ErrInvalidSecret = errors.New("invalid webhook secret")
	// ErrInvalidSignature is returned when the HMAC signature does not match the body
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrStaleTimestamp is returned when the signed timestamp is outside the accepted skew
	ErrStaleTimestamp = errors.New("webhook timestamp outside tolerance")
)

// Sign computes the signature header value for a body sent at timestamp.
// The signed message is "{timestamp}.{body}" and the result is "sha256=<hex>".
func Sign(secret string, timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	h.Write([]byte("."))
	h.Write(body)
	return signaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// VerifySecret compares a shared secret header in constant time
func VerifySecret(secret, provided string) error {
	if provided == "" {
		return ErrMissingCredentials
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}

// VerifySignature checks an HMAC signature header against the body. The timestamp must
// be within tolerance of now in either direction to bound replays.
func VerifySignature(secret, signature, timestamp string, body []byte, now time.Time, tolerance time.Duration) error {
	if signature == "" || timestamp == "" {
		return ErrMissingCredentials
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp %q", ErrStaleTimestamp, timestamp)
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > tolerance {
		return ErrStaleTimestamp
	}

	if !strings.HasPrefix(signature, signaturePrefix) {
		return ErrInvalidSignature
	}
	expected := Sign(secret, ts, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
