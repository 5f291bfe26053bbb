package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_Hash_and_Compare(t *testing.T) {
	h := NewBcryptHasher(10)
	key := "a1b2c3d4e5f60718293a4b5c6d7e8f90"

	hash, err := h.Hash(key)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, hash, key)

	err = h.Compare(hash, key)
	require.NoError(t, err)
}

func TestBcryptHasher_Compare_wrong_key(t *testing.T) {
	h := NewBcryptHasher(10)
	hash, err := h.Hash("correct-key")
	require.NoError(t, err)

	err = h.Compare(hash, "wrong-key")
	assert.Error(t, err)
}

func TestBcryptHasher_LongKeys(t *testing.T) {
	// bcrypt caps input at 72 bytes; the digest step keeps longer keys usable
	// and distinguishable.
	h := NewBcryptHasher(10)
	long := strings.Repeat("a", 100)

	hash, err := h.Hash(long)
	require.NoError(t, err)
	require.NoError(t, h.Compare(hash, long))
	assert.Error(t, h.Compare(hash, long+"b"))
}
