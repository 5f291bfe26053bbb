package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"neotogether/internal/domain"
)

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a PrivateKeyHasher that bcrypts a SHA256 digest of
// the key. The digest keeps arbitrarily long keys under bcrypt's 72-byte
// input limit.
func NewBcryptHasher(cost int) domain.PrivateKeyHasher {
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(privateKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(digest(privateKey), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash private key: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, privateKey string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(privateKey))
}

func digest(privateKey string) []byte {
	sum := sha256.Sum256([]byte(privateKey))
	return []byte(hex.EncodeToString(sum[:]))
}
