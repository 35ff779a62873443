package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillgate/domain"
	"skillgate/infrastructure/ats"
)

// bulkSyncBatchSize bounds one bulk sync pass.
const bulkSyncBatchSize = 50

// ConfigureIntegration validates and persists provider credentials, trigger
// stage and enabled flag, then hands back the webhook URL to paste into the
// provider's settings.
func (h *Handler) ConfigureIntegration(c *gin.Context) {
	provider := c.Param("provider")
	if !domain.KnownProvider(provider) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	var req struct {
		APIKey        string `json:"api_key"`
		SigningSecret string `json:"signing_secret"`
		TriggerStage  string `json:"trigger_stage"`
		OnBehalfOf    string `json:"on_behalf_of"`
		Enabled       bool   `json:"enabled"`
		CompanyID     uint   `json:"company_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.resolveCompany(c, req.CompanyID)
	if !ok {
		return
	}

	cfg := domain.IntegrationConfig{
		Provider:      provider,
		APIKey:        req.APIKey,
		SigningSecret: req.SigningSecret,
		TriggerStage:  req.TriggerStage,
		OnBehalfOf:    req.OnBehalfOf,
		Enabled:       req.Enabled,
	}

	// Validate credentials before persisting an integration that would
	// silently fail on every sync.
	if req.Enabled && req.APIKey != "" {
		adapter, err := h.Adapters.ForProvider(cfg)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		if !adapter.TestConnection(ctx) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s rejected the API key", provider)})
			return
		}
	}

	company.SetIntegration(cfg)
	if err := h.DB.Save(company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save integration"})
		return
	}

	h.Logger.Info("integration configured",
		zap.String("provider", provider),
		zap.Uint("company_id", company.ID),
		zap.String("api_key", domain.MaskSecret(req.APIKey)),
		zap.Bool("enabled", req.Enabled))

	webhookURL := fmt.Sprintf("%s/integrations/%s/webhook?company_id=%d", h.BaseURL, provider, company.ID)
	c.JSON(http.StatusOK, gin.H{
		"provider":    provider,
		"enabled":     req.Enabled,
		"api_key":     domain.MaskSecret(req.APIKey),
		"webhook_url": webhookURL,
		"instructions": fmt.Sprintf(
			"Add %s as a webhook endpoint in your %s settings and subscribe to stage-change events. "+
				"Invitations are issued when a candidate reaches a stage containing %q.",
			webhookURL, provider, cfg.TriggerStage),
	})
}

// SyncAssessment pushes one assessment's results to the ATS on demand.
func (h *Handler) SyncAssessment(c *gin.Context) {
	var req struct {
		AssessmentID uint `json:"assessment_id" binding:"required"`
		CompanyID    uint `json:"company_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.resolveCompany(c, req.CompanyID)
	if !ok {
		return
	}

	var assessment domain.Assessment
	if err := h.DB.Where("company_id = ?", company.ID).First(&assessment, req.AssessmentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assessment not found"})
		return
	}

	result, err := h.syncAssessment(c.Request.Context(), company, &assessment)
	if err != nil {
		if errors.Is(err, ErrMissingLinkage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var pe *ats.ProviderError
		if errors.As(err, &pe) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": pe.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// BulkSync pushes every unsynced assessment for the provider, one bounded
// batch per call. Item failures are collected, never fatal to the batch.
func (h *Handler) BulkSync(c *gin.Context) {
	provider := c.Param("provider")
	if !domain.KnownProvider(provider) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	var req struct {
		CompanyID uint `json:"company_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.resolveCompany(c, req.CompanyID)
	if !ok {
		return
	}

	var pending []domain.Assessment
	err := h.DB.
		Where("company_id = ? AND ats_provider = ? AND ats_webhook_sent = ?", company.ID, provider, false).
		Order("created_at ASC").
		Limit(bulkSyncBatchSize).
		Find(&pending).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assessments"})
		return
	}

	synced := 0
	syncErrors := []string{}
	for i := range pending {
		result, err := h.syncAssessment(c.Request.Context(), company, &pending[i])
		if err != nil {
			syncErrors = append(syncErrors, fmt.Sprintf("assessment %d: %v", pending[i].ID, err))
			continue
		}
		if result.Synced {
			synced++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"synced": synced,
		"total":  len(pending),
		"errors": syncErrors,
	})
}
