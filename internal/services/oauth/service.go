// Package oauth issues and checks the bearer tokens accepted by serve mode.
package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/internal/config"
	"github.com/ChrisMcKee1/azure-ai-foundry-semantic-kernel-tutorial/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoSecret = errors.New("JWT_SECRET is not set")

func ExtractToken(r *http.Request) string {
	log := logger.For(logger.SERVICE)

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		log.Debug().Msg("No Authorization header found")
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		log.Warn().Msg("Malformed Authorization header")
		return ""
	}

	return parts[1]
}

type TokenValidationResult struct {
	Valid     bool
	Subject   string
	ExpiresAt time.Time
	Scopes    []string
}

// HasScope reports whether the token carries scope.
func (r *TokenValidationResult) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

type CustomClaims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scp"`
}

// ValidateToken checks an HS256 token against the configured secret.
func ValidateToken(tokenString string) TokenValidationResult {
	log := logger.For(logger.SERVICE)
	result := TokenValidationResult{Valid: false}

	secret := config.GetJWTSecret()
	if len(secret) == 0 {
		log.Error().Msg("Rejecting token: no JWT secret configured")
		return result
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse token")
		return result
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		log.Warn().Msg("Invalid token claims")
		return result
	}
	if claims.Subject == "" {
		log.Warn().Msg("Missing subject in token")
		return result
	}

	result.Valid = true
	result.Subject = claims.Subject
	result.ExpiresAt = claims.ExpiresAt.Time
	result.Scopes = claims.Scopes
	return result
}

// IssueToken mints a signed token for subject.
func IssueToken(subject string, scopes []string, ttl time.Duration) (string, error) {
	secret := config.GetJWTSecret()
	if len(secret) == 0 {
		return "", ErrNoSecret
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}

	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Scopes: scopes,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
