package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields of a Supabase access token used here.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// AppRole is app_metadata.role, or DefaultRole.
func (c *Claims) AppRole() string {
	if r, ok := c.AppMetadata["role"].(string); ok && r != "" {
		return r
	}
	return DefaultRole
}

// ParseClaims decodes an access token. When secret is set the HS256
// signature and expiry are verified; otherwise the claims are read as is.
func ParseClaims(token, secret string) (*Claims, error) {
	claims := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("failed to decode token: %w", err)
		}
		return claims, nil
	}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithLeeway(5*time.Second))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// expiresAt returns the token's exp claim as unix seconds, or 0.
func expiresAt(token string) int64 {
	claims, err := ParseClaims(token, "")
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
