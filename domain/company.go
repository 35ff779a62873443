package domain

import (
	"strings"
	"time"
)

// Supported ATS providers.
const (
	ProviderAshby      = "ashby"
	ProviderGreenhouse = "greenhouse"
	ProviderLever      = "lever"
)

// DefaultTriggerStage is used when a company did not configure one.
const DefaultTriggerStage = "assessment"

func KnownProvider(p string) bool {
	switch p {
	case ProviderAshby, ProviderGreenhouse, ProviderLever:
		return true
	}
	return false
}

type Company struct {
	ID                    uint   `gorm:"primaryKey"`
	Name                  string `gorm:"size:255;not null"`
	DefaultAssessmentType string `gorm:"size:100;default:'general'"`

	AshbyAPIKey        string `gorm:"size:255"`
	AshbySigningSecret string `gorm:"size:255"`
	AshbyTriggerStage  string `gorm:"size:255"`
	AshbyEnabled       bool

	GreenhouseAPIKey        string `gorm:"size:255"`
	GreenhouseSigningSecret string `gorm:"size:255"`
	GreenhouseTriggerStage  string `gorm:"size:255"`
	GreenhouseUserID        string `gorm:"size:64"` // On-Behalf-Of user for Harvest note writes
	GreenhouseEnabled       bool

	LeverAPIKey        string `gorm:"size:255"`
	LeverSigningSecret string `gorm:"size:255"`
	LeverTriggerStage  string `gorm:"size:255"`
	LeverEnabled       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IntegrationConfig is one provider's slice of a company row.
type IntegrationConfig struct {
	Provider      string
	APIKey        string
	SigningSecret string
	TriggerStage  string
	OnBehalfOf    string
	Enabled       bool
}

func (c *Company) Integration(provider string) IntegrationConfig {
	cfg := IntegrationConfig{Provider: provider}
	switch provider {
	case ProviderAshby:
		cfg.APIKey = c.AshbyAPIKey
		cfg.SigningSecret = c.AshbySigningSecret
		cfg.TriggerStage = c.AshbyTriggerStage
		cfg.Enabled = c.AshbyEnabled
	case ProviderGreenhouse:
		cfg.APIKey = c.GreenhouseAPIKey
		cfg.SigningSecret = c.GreenhouseSigningSecret
		cfg.TriggerStage = c.GreenhouseTriggerStage
		cfg.OnBehalfOf = c.GreenhouseUserID
		cfg.Enabled = c.GreenhouseEnabled
	case ProviderLever:
		cfg.APIKey = c.LeverAPIKey
		cfg.SigningSecret = c.LeverSigningSecret
		cfg.TriggerStage = c.LeverTriggerStage
		cfg.Enabled = c.LeverEnabled
	}
	if cfg.TriggerStage == "" {
		cfg.TriggerStage = DefaultTriggerStage
	}
	return cfg
}

func (c *Company) SetIntegration(cfg IntegrationConfig) {
	switch cfg.Provider {
	case ProviderAshby:
		c.AshbyAPIKey = cfg.APIKey
		c.AshbySigningSecret = cfg.SigningSecret
		c.AshbyTriggerStage = cfg.TriggerStage
		c.AshbyEnabled = cfg.Enabled
	case ProviderGreenhouse:
		c.GreenhouseAPIKey = cfg.APIKey
		c.GreenhouseSigningSecret = cfg.SigningSecret
		c.GreenhouseTriggerStage = cfg.TriggerStage
		c.GreenhouseUserID = cfg.OnBehalfOf
		c.GreenhouseEnabled = cfg.Enabled
	case ProviderLever:
		c.LeverAPIKey = cfg.APIKey
		c.LeverSigningSecret = cfg.SigningSecret
		c.LeverTriggerStage = cfg.TriggerStage
		c.LeverEnabled = cfg.Enabled
	}
}

// MaskSecret renders a credential as prefix...suffix for display and logs.
// Provider credentials must never appear in full anywhere.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + "..." + s[len(s)-4:]
}
