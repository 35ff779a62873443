package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const DefaultInvitationTTLHours = 72

// Derived invitation states. Status is computed, never stored.
const (
	InvitationPending = "pending"
	InvitationUsed    = "used"
	InvitationExpired = "expired"
)

type Invitation struct {
	ID             uint   `gorm:"primaryKey"`
	CompanyID      uint   `gorm:"index;not null"`
	Token          string `gorm:"size:64;uniqueIndex;not null"`
	CandidateEmail string `gorm:"size:255;not null"`
	CandidateName  string `gorm:"size:255"`
	AssessmentType string `gorm:"size:100"`
	ExpiresAt      time.Time
	UsedAt         *time.Time
	AssessmentID   *uint

	AtsProvider      string `gorm:"size:20"`
	AtsJobID         string `gorm:"size:255"`
	AtsApplicationID string `gorm:"size:255"`
	AtsCandidateID   string `gorm:"size:255"`

	// Set only for webhook-issued invitations; the unique index is what
	// stops a redelivered stage-change event from minting a second token.
	DedupKey *string `gorm:"size:512;uniqueIndex"`

	CreatedAt time.Time
}

// Status derives the lifecycle state: used wins over expired, expired over pending.
func (i *Invitation) Status(now time.Time) string {
	if i.UsedAt != nil {
		return InvitationUsed
	}
	if now.After(i.ExpiresAt) {
		return InvitationExpired
	}
	return InvitationPending
}

// NewInvitationToken returns 256 bits of randomness, hex encoded.
func NewInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// WebhookDedupKey identifies one qualifying stage-change event, so retried
// deliveries from the provider collapse onto a single invitation.
func WebhookDedupKey(companyID uint, provider, applicationID, triggerStage string) string {
	return fmt.Sprintf("%d:%s:%s:%s", companyID, provider, applicationID, triggerStage)
}
