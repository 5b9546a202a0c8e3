package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what can be read from a token without the server's key.
type TokenClaims struct {
	UserID     string         `json:"userID,omitempty"`
	PlatformID int            `json:"platformID,omitempty"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
	Raw        map[string]any `json:"claims"`
}

// InspectToken decodes a JWT's claims without verifying its signature. The
// result is only fit for TTL hints and diagnostics, never for authorization.
func InspectToken(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, errors.New("token is empty")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decoding token claims: %w", err)
	}

	out := &TokenClaims{Raw: claims}
	if v, ok := claims["UserID"].(string); ok {
		out.UserID = v
	} else if v, ok := claims["userID"].(string); ok {
		out.UserID = v
	}
	if v, ok := claims["PlatformID"].(float64); ok {
		out.PlatformID = int(v)
	} else if v, ok := claims["platformID"].(float64); ok {
		out.PlatformID = int(v)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		out.ExpiresAt = &t
	}
	return out, nil
}

// remainingLifetime returns how long token stays valid according to its exp
// claim, or false when it has none or is already expired.
func remainingLifetime(token string, now time.Time) (time.Duration, bool) {
	claims, err := InspectToken(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0, false
	}
	left := claims.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0, false
	}
	return left, true
}
