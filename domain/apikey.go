package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

type ApiKey struct {
	ID         uint   `gorm:"primaryKey"`
	CompanyID  uint   `gorm:"index;not null"`
	Name       string `gorm:"size:255"`
	KeyHash    string `gorm:"size:64;uniqueIndex;not null"`
	KeyPrefix  string `gorm:"size:16"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// HashAPIKey is the lookup key for authentication; the plaintext is shown
// once at creation and never stored.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewAPIKey returns the plaintext key and its storable record fields.
func NewAPIKey() (plaintext, hash, prefix string, err error) {
	buf := make([]byte, 24)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("failed to generate api key: %w", err)
	}
	plaintext = "sk_" + hex.EncodeToString(buf)
	return plaintext, HashAPIKey(plaintext), plaintext[:10], nil
}
