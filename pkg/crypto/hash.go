package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters kept by Fingerprint.
const fingerprintLen = 12

// Sha256Hex computes the SHA256 hash of an input string and returns it as a hex-encoded string.
func Sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, non-reversible tag for a bearer token so logs
// can correlate tokens without carrying them.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return Sha256Hex(token)[:fingerprintLen]
}
