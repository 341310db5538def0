// Package auth issues and checks the session tokens that gate the scan
// server when authentication is required.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/antibyte/minilang/pkg/configuration"
	"github.com/antibyte/minilang/pkg/logger"
)

const (
	// Default values - actual values are loaded from configuration
	defaultJWTSecret       = "fallback_secret_change_in_production"
	defaultTokenExpiration = 24

	tokenIssuer = "minilang"
)

// ErrNoToken is returned when a request carries no token.
var ErrNoToken = errors.New("no token found in request")

// getJWTSecret retrieves the JWT secret from environment variable or configuration
func getJWTSecret() string {
	if envSecret := os.Getenv("MINILANG_JWT_SECRET"); envSecret != "" {
		return envSecret
	}

	secret := configuration.GetString("JWT", "secret_key", defaultJWTSecret)
	if secret == defaultJWTSecret || secret == "" || secret == "change_me" {
		logger.SecurityWarn("Using fallback JWT secret - set MINILANG_JWT_SECRET for production!")
		if secret == "" {
			return defaultJWTSecret
		}
	}
	return secret
}

func getTokenExpiration() time.Duration {
	hours := configuration.GetInt("JWT", "token_expiration_hours", defaultTokenExpiration)
	if hours <= 0 {
		hours = defaultTokenExpiration
	}
	return time.Duration(hours) * time.Hour
}

// ScanClaims are the claims of a scan client token.
type ScanClaims struct {
	ClientID string `json:"cid"`
	jwt.RegisteredClaims
}

// NewClientID returns a fresh random client id.
func NewClientID() string {
	return uuid.New().String()
}

// GenerateClientToken signs a token for clientID.
func GenerateClientToken(clientID string) (string, error) {
	now := time.Now()
	claims := ScanClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(getTokenExpiration())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   clientID,
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(getJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("token could not be signed: %w", err)
	}

	logger.AuthInfo("Client token generated for %s", clientID)
	return signed, nil
}

// ValidateClientToken parses and verifies a client token.
func ValidateClientToken(tokenString string) (*ScanClaims, error) {
	secretKey := getJWTSecret()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&ScanClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*ScanClaims)
	if !ok {
		return nil, fmt.Errorf("could not extract token claims")
	}
	if claims.ClientID == "" {
		return nil, fmt.Errorf("token has no client id")
	}
	return claims, nil
}

// TokenFromRequest extracts the token from the Authorization header
// ("Bearer <token>") or, failing that, from the token query parameter.
func TokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1], nil
		}
		return "", fmt.Errorf("invalid authorization header format")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}

// RequireToken rejects requests without a valid client token and stores the
// claims of accepted ones in the request context.
func RequireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next(w, r)
			return
		}

		tokenString, err := TokenFromRequest(r)
		if err != nil {
			logger.AuthWarn("No token in request to %s: %v", r.URL.Path, err)
			respondWithError(w, "Unauthorized: token missing", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateClientToken(tokenString)
		if err != nil {
			logger.AuthWarn("Invalid token: %v", err)
			respondWithError(w, "Unauthorized: invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)))
	}
}
