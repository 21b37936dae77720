// Package auth guards the operator endpoints with HS256 bearer tokens.
// Players are not authenticated.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const operatorRole = "operator"

var ErrNotConfigured = errors.New("auth: no signing secret configured")

type contextKey struct{}

// Config holds the shared secret used to sign and verify operator tokens.
type Config struct {
	Secret []byte
	Issuer string
}

// OperatorClaims are the claims carried by an operator token.
type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewConfig creates an auth configuration. An empty secret disables every
// protected route.
func NewConfig(secret, issuer string) *Config {
	return &Config{Secret: []byte(secret), Issuer: issuer}
}

func (c *Config) Enabled() bool { return len(c.Secret) > 0 }

// IssueToken signs an operator token for subject valid for ttl.
func (c *Config) IssueToken(subject string, ttl time.Duration) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}
	now := time.Now()
	claims := OperatorClaims{
		Role: operatorRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates an operator token
func (c *Config) ValidateToken(tokenString string) (*OperatorClaims, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.Secret, nil
	}, jwt.WithIssuer(c.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token or claims")
	}
	if claims.Role != operatorRole {
		return nil, fmt.Errorf("invalid role: %s", claims.Role)
	}
	return claims, nil
}

// AuthMiddleware creates a middleware for authenticating operator requests
func (c *Config) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Enabled() {
			http.Error(w, "Auth not configured", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		// Remove "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			http.Error(w, "Bearer token required", http.StatusUnauthorized)
			return
		}

		claims, err := c.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid token: %v", err), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorFromContext extracts operator claims from request context
func OperatorFromContext(ctx context.Context) (*OperatorClaims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*OperatorClaims)
	return claims, ok
}
