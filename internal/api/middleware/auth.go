package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-editions/internal/api/shared/errors"
	"github.com/feral-file/ff-editions/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	AUTH_SUBJECT_KEY contextKey = "auth_subject"
	JWT_CLAIMS_KEY   contextKey = "jwt_claims"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string // RSA public key in PEM format
}

// AuthResult holds the result of authentication
type AuthResult struct {
	Success bool
	Claims  *jwt.RegisteredClaims
	// UserID is the token subject
	UserID string
	Error  error
}

// Authenticate validates a bearer Authorization header. The token subject is the user ID.
func Authenticate(authHeader string, publicKey *rsa.PublicKey, now time.Time) AuthResult {
	result := AuthResult{
		Success: false,
	}

	if authHeader == "" {
		result.Error = errors.New("missing Authorization header")
		return result
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		result.Error = errors.New("invalid Authorization header format")
		return result
	}

	if strings.ToLower(parts[0]) != "bearer" {
		result.Error = fmt.Errorf("unsupported authorization type: %s", parts[0])
		return result
	}

	claims, err := validateJWT(parts[1], publicKey, now)
	if err != nil {
		result.Error = err
		return result
	}
	if claims.Subject == "" {
		result.Error = errors.New("token has no subject")
		return result
	}

	result.Success = true
	result.Claims = claims
	result.UserID = claims.Subject
	return result
}

// Auth returns a gin middleware that requires a valid RSA signed JWT
func Auth(cfg AuthConfig) gin.HandlerFunc {
	publicKey, keyErr := ParseRSAPublicKey(cfg.JWTPublicKey)
	if keyErr != nil {
		logger.Error(fmt.Errorf("failed to parse JWT public key: %w", keyErr))
	}

	return func(c *gin.Context) {
		var result AuthResult
		if keyErr != nil {
			result.Error = errors.New("JWT public key not configured")
		} else {
			result = Authenticate(c.GetHeader("Authorization"), publicKey, time.Now())
		}

		if !result.Success {
			logger.WarnCtx(c.Request.Context(), "Authentication failed",
				zap.Error(result.Error),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.Response{
				Error: apierrors.NewUnauthorizedError("Authentication failed", result.Error.Error()),
			})
			return
		}

		c.Set(string(JWT_CLAIMS_KEY), result.Claims)
		c.Set(string(AUTH_SUBJECT_KEY), result.UserID)
		c.Next()
	}
}

// UserID returns the authenticated user, empty if the request was not authenticated
func UserID(c *gin.Context) string {
	return c.GetString(string(AUTH_SUBJECT_KEY))
}

// validateJWT validates a JWT token with RSA signature and returns claims
func validateJWT(tokenString string, publicKey *rsa.PublicKey, now time.Time) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ParseRSAPublicKey parses an RSA public key from PEM format
func ParseRSAPublicKey(publicKeyPEM string) (*rsa.PublicKey, error) {
	if publicKeyPEM == "" {
		return nil, errors.New("empty public key")
	}

	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing public key")
	}

	// Try parsing as PKIX (most common format)
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		// Try parsing as PKCS1 format
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not an RSA key")
	}

	return rsaKey, nil
}
