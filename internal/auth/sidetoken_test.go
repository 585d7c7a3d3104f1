package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSideToken_EntropyAndEncoding(t *testing.T) {
	raw, digest, err := NewSideToken()
	require.NoError(t, err)

	decoded, err := hex.DecodeString(raw)
	require.NoError(t, err)
	assert.Len(t, decoded, SideTokenBytes)

	assert.NotEqual(t, raw, digest)
	assert.Len(t, digest, 64) // sha256 hex
}

func TestHashSideToken_Deterministic(t *testing.T) {
	raw, digest, err := NewSideToken()
	require.NoError(t, err)

	// Redemption lookups depend on re-hashing reproducing the stored digest.
	assert.Equal(t, digest, HashSideToken(raw))
	assert.Equal(t, HashSideToken(raw), HashSideToken(raw))
}

func TestNewSideToken_Unique(t *testing.T) {
	raw1, _, err := NewSideToken()
	require.NoError(t, err)
	raw2, _, err := NewSideToken()
	require.NoError(t, err)

	assert.NotEqual(t, raw1, raw2)
}
