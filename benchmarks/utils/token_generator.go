package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenGenerator mints JWTs shaped like the ones OpenIM issues
type TokenGenerator struct {
	key []byte
}

// NewTokenGenerator creates a generator signing with key
func NewTokenGenerator(key string) *TokenGenerator {
	return &TokenGenerator{key: []byte(key)}
}

// Generate creates a token for userID on platformID that expires after expiresIn
func (tg *TokenGenerator) Generate(userID string, platformID int, expiresIn time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"UserID":     userID,
		"PlatformID": platformID,
		"exp":        time.Now().Add(expiresIn).Unix(),
		"nbf":        time.Now().Add(-time.Minute).Unix(),
		"iat":        time.Now().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tg.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// GenerateExpired creates a token whose exp claim is already in the past
func (tg *TokenGenerator) GenerateExpired(userID string, platformID int) (string, error) {
	return tg.Generate(userID, platformID, -time.Hour)
}

// GenerateBatch creates count tokens for distinct users
func (tg *TokenGenerator) GenerateBatch(count int, expiresIn time.Duration) ([]string, error) {
	tokens := make([]string, count)
	for i := range tokens {
		token, err := tg.Generate(fmt.Sprintf("user-%d", i), 1, expiresIn)
		if err != nil {
			return nil, err
		}
		tokens[i] = token
	}
	return tokens, nil
}
