package domain

import "time"

type Assessment struct {
	ID           uint `gorm:"primaryKey"`
	CompanyID    uint `gorm:"index;not null"`
	InvitationID uint `gorm:"index;not null"`

	CandidateEmail string `gorm:"size:255"`
	CandidateName  string `gorm:"size:255"`
	AssessmentType string `gorm:"size:100"`

	OverallScore        float64
	TechnicalScore      float64
	ProblemSolvingScore float64
	CommunicationScore  float64
	CompletionScore     float64
	Summary             string  `gorm:"type:text"`
	Transcript          string  `gorm:"type:longtext"`
	ResultJSON          *string `gorm:"type:json"`
	DurationSeconds     int

	AtsProvider      string `gorm:"size:20"`
	AtsJobID         string `gorm:"size:255"`
	AtsApplicationID string `gorm:"size:255"`
	AtsCandidateID   string `gorm:"size:255"`

	// Push-back idempotency marker. Flipped exactly once, by Result Sync,
	// after a confirmed provider write.
	AtsWebhookSent   bool `gorm:"index"`
	AtsWebhookSentAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
