package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-editions/internal/api/middleware"
)

func signToken(t *testing.T, key *rsa.PrivateKey, method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestAuthenticate(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	valid := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	tests := []struct {
		name    string
		header  string
		wantOK  bool
		wantSub string
	}{
		{
			name:    "valid token",
			header:  "Bearer " + signToken(t, key, jwt.SigningMethodRS256, valid),
			wantOK:  true,
			wantSub: "user-1",
		},
		{
			name:    "lowercase scheme",
			header:  "bearer " + signToken(t, key, jwt.SigningMethodRS256, valid),
			wantOK:  true,
			wantSub: "user-1",
		},
		{
			name: "expired",
			header: "Bearer " + signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			}),
		},
		{
			name: "not yet valid",
			header: "Bearer " + signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{
				Subject:   "user-1",
				NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
			}),
		},
		{
			name:   "signed by another key",
			header: "Bearer " + signToken(t, otherKey, jwt.SigningMethodRS256, valid),
		},
		{
			name:   "missing subject",
			header: "Bearer " + signToken(t, key, jwt.SigningMethodRS256, jwt.RegisteredClaims{ExpiresAt: valid.ExpiresAt}),
		},
		{
			name:   "api key scheme",
			header: "ApiKey secret",
		},
		{
			name:   "no scheme",
			header: "token",
		},
		{
			name:   "empty",
			header: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := middleware.Authenticate(tt.header, &key.PublicKey, now)
			assert.Equal(t, tt.wantOK, result.Success)
			if tt.wantOK {
				assert.NoError(t, result.Error)
				assert.Equal(t, tt.wantSub, result.UserID)
			} else {
				assert.Error(t, result.Error)
			}
		})
	}
}

func TestParseRSAPublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pkix, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	parsed, err := middleware.ParseRSAPublicKey(string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkix})))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(parsed))

	pkcs1 := x509.MarshalPKCS1PublicKey(&key.PublicKey)
	parsed, err = middleware.ParseRSAPublicKey(string(pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: pkcs1})))
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(parsed))

	_, err = middleware.ParseRSAPublicKey("")
	assert.Error(t, err)
	_, err = middleware.ParseRSAPublicKey("not pem")
	assert.Error(t, err)
}
