package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a bearer credential for the analysis endpoint.
// Only the HMAC hash of the key is stored; the plaintext is shown once at creation.
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	KeyHash    string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IsActive reports whether the key has not been revoked.
func (k *APIKey) IsActive() bool {
	return k.RevokedAt == nil
}
