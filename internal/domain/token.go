package domain

import "time"

// TokenKind distinguishes the two independent token namespaces.
type TokenKind string

const (
	TokenKindAdmin TokenKind = "admin"
	TokenKindUser  TokenKind = "user"
)

// DefaultAdminUserID is the privileged identity used when none is configured.
const DefaultAdminUserID = "imAdmin"

// DefaultPlatformID is sent with user token requests when the caller does not pick one.
const DefaultPlatformID = 1

// DefaultTokenTTL applies when the remote service omits an expiry and the
// token itself carries none.
const DefaultTokenTTL = 24 * time.Hour

// Token is the token-issuance payload, also the record shape of the file backend.
type Token struct {
	Value            string `json:"token"`
	ExpiresInSeconds int64  `json:"expireTimeSeconds"`
}
