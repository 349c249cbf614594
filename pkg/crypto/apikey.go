// Package crypto provides API key generation and hashing.
package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// keyBytes is the amount of entropy in a generated API key.
	keyBytes = 32
	// PrefixLength is the number of leading characters kept for display.
	PrefixLength = 8
)

var (
	// ErrInvalidKey is returned when the hashing secret is empty.
	ErrInvalidKey = errors.New("invalid API key secret: must not be empty")
)

// KeyHasher derives stable HMAC-SHA256 digests of API keys. Only digests are stored.
type KeyHasher struct {
	secret []byte
}

// NewKeyHasher creates a hasher from a secret string.
// The secret can be:
//   - A base64-encoded 32-byte key (e.g., from: openssl rand -base64 32)
//   - Any passphrase (will be hashed to 32 bytes with SHA-256)
func NewKeyHasher(secretInput string) (*KeyHasher, error) {
	if secretInput == "" {
		return nil, ErrInvalidKey
	}

	var secret []byte

	decoded, err := base64.StdEncoding.DecodeString(secretInput)
	if err == nil && len(decoded) == 32 {
		secret = decoded
	} else {
		sum := sha256.Sum256([]byte(secretInput))
		secret = sum[:]
	}

	return &KeyHasher{secret: secret}, nil
}

// Hash returns the hex-encoded HMAC-SHA256 of key.
func (h *KeyHasher) Hash(key string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether key hashes to storedHash, in constant time.
func (h *KeyHasher) Verify(key, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(h.Hash(key)), []byte(storedHash)) == 1
}

// GenerateKey returns a new random API key (64 hex characters) and its display prefix.
func GenerateKey() (key, prefix string, err error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate API key: %w", err)
	}
	key = hex.EncodeToString(buf)
	return key, key[:PrefixLength], nil
}
