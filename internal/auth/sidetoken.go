package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SideTokenBytes is the entropy of a raw verification/reset token.
	SideTokenBytes = 32

	// SideTokenTTL is how long a side-channel token stays redeemable.
	SideTokenTTL = 10 * time.Minute
)

// NewSideToken produces a cryptographically random raw token and its
// storable digest. The raw value is returned once, for email delivery;
// only the digest is persisted.
func NewSideToken() (raw, digest string, err error) {
	buf := make([]byte, SideTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	raw = hex.EncodeToString(buf)
	return raw, HashSideToken(raw), nil
}

// HashSideToken computes the deterministic digest of a raw token.
// Re-hashing the same raw value always yields the stored digest, which is
// how redemption lookups work.
func HashSideToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
