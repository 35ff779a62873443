package interfaces

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillgate/domain"
	"skillgate/infrastructure"
)

// HandleWebhook is the single ingestion pipeline for all three providers:
// resolve company, verify signature, normalize, match trigger, issue.
//
// Status codes follow the provider-retry contract: only a missing company_id
// (400), an unknown company (404) or a failed signature (401) produce a
// non-200. Everything after that answers 200 even when the event is dropped,
// so provider-side retry/backoff never amplifies a transient issue.
func (h *Handler) HandleWebhook(c *gin.Context) {
	provider := c.Param("provider")
	if !domain.KnownProvider(provider) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	companyIDStr := c.Query("company_id")
	if companyIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}
	companyID, err := strconv.ParseUint(companyIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company_id"})
		return
	}

	var company domain.Company
	if err := h.DB.First(&company, companyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return
	}

	rawBody, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	cfg := company.Integration(provider)
	adapter, err := h.Adapters.ForProvider(cfg)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	// Verification runs over the raw bytes, before any JSON decode.
	if !adapter.VerifySignature(rawBody, c.Request.Header) {
		h.Logger.Warn("webhook signature verification failed",
			zap.String("provider", provider),
			zap.Uint("company_id", company.ID))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	if !cfg.Enabled {
		h.Logger.Debug("webhook for disabled integration",
			zap.String("provider", provider),
			zap.Uint("company_id", company.ID))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ev, err := adapter.NormalizeEvent(rawBody)
	if err != nil {
		if errors.Is(err, domain.ErrIgnoredEvent) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		var nf *domain.NormalizationFailure
		if errors.As(err, &nf) {
			h.Logger.Warn("dropping webhook payload", zap.String("provider", provider), zap.String("reason", nf.Reason))
		} else {
			h.Logger.Warn("dropping webhook payload", zap.String("provider", provider), zap.Error(err))
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	// Thin payloads (Lever) may need a provider fetch to complete the event.
	// A failed or timed-out fetch drops the event; no automatic retry here.
	if ev.CandidateEmail == "" || ev.CurrentStageName == "" {
		if err := adapter.EnrichEvent(c.Request.Context(), ev); err != nil {
			h.Logger.Warn("failed to enrich webhook event", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
	}
	if ev.CandidateEmail == "" {
		h.Logger.Warn("dropping webhook event without candidate email", zap.String("provider", provider))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if !domain.StageMatches(ev.CurrentStageName, cfg.TriggerStage) {
		c.JSON(http.StatusOK, gin.H{"status": "no_match"})
		return
	}

	inv, created, err := h.issueFromEvent(&company, ev, cfg.TriggerStage)
	if err != nil {
		h.Logger.Error("failed to issue invitation from webhook",
			zap.String("provider", provider),
			zap.Uint("company_id", company.ID),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if created {
		h.dispatchInviteEmail(inv)
		h.Logger.Info("invitation issued from webhook",
			zap.String("provider", provider),
			zap.Uint("company_id", company.ID),
			zap.Uint("invitation_id", inv.ID),
			zap.String("stage", ev.CurrentStageName))
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "invitation_id": inv.ID, "created": created})
}

// issueFromEvent creates at most one invitation per qualifying stage-change
// event. The dedup key absorbs at-least-once webhook delivery: a redelivered
// event finds the existing row instead of minting a second token.
func (h *Handler) issueFromEvent(company *domain.Company, ev *domain.StageChangeEvent, triggerStage string) (*domain.Invitation, bool, error) {
	var dedupKey *string
	if ev.ApplicationID != "" {
		k := domain.WebhookDedupKey(company.ID, ev.Provider, ev.ApplicationID, triggerStage)
		dedupKey = &k

		var existing domain.Invitation
		if err := h.DB.Where("dedup_key = ?", k).First(&existing).Error; err == nil {
			return &existing, false, nil
		}
	}

	inv, err := h.issueInvitation(company, invitationParams{
		CandidateEmail: ev.CandidateEmail,
		CandidateName:  ev.CandidateName,
		AtsProvider:    ev.Provider,
		AtsJobID:       ev.JobID,
		AtsAppID:       ev.ApplicationID,
		AtsCandidateID: ev.CandidateID,
		DedupKey:       dedupKey,
	})
	if err != nil {
		// Two deliveries can race past the lookup; the unique index decides.
		if dedupKey != nil {
			var existing domain.Invitation
			if lookupErr := h.DB.Where("dedup_key = ?", *dedupKey).First(&existing).Error; lookupErr == nil {
				return &existing, false, nil
			}
		}
		return nil, false, err
	}
	return inv, true, nil
}

type invitationParams struct {
	CandidateEmail string
	CandidateName  string
	AssessmentType string
	ExpiresInHours int
	AtsProvider    string
	AtsJobID       string
	AtsAppID       string
	AtsCandidateID string
	DedupKey       *string
}

func (h *Handler) issueInvitation(company *domain.Company, p invitationParams) (*domain.Invitation, error) {
	token, err := domain.NewInvitationToken()
	if err != nil {
		return nil, err
	}

	if p.AssessmentType == "" {
		p.AssessmentType = company.DefaultAssessmentType
	}
	if p.ExpiresInHours <= 0 {
		p.ExpiresInHours = domain.DefaultInvitationTTLHours
	}

	inv := domain.Invitation{
		CompanyID:        company.ID,
		Token:            token,
		CandidateEmail:   p.CandidateEmail,
		CandidateName:    p.CandidateName,
		AssessmentType:   p.AssessmentType,
		ExpiresAt:        time.Now().Add(time.Duration(p.ExpiresInHours) * time.Hour),
		AtsProvider:      p.AtsProvider,
		AtsJobID:         p.AtsJobID,
		AtsApplicationID: p.AtsAppID,
		AtsCandidateID:   p.AtsCandidateID,
		DedupKey:         p.DedupKey,
	}
	if err := h.DB.Create(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// dispatchInviteEmail queues the email. The invitation row is the durable
// source of truth; a publish failure is logged and swallowed.
func (h *Handler) dispatchInviteEmail(inv *domain.Invitation) {
	if h.Queue == nil {
		return
	}
	job := infrastructure.InviteEmailJob{
		InvitationID:   inv.ID,
		CandidateEmail: inv.CandidateEmail,
		CandidateName:  inv.CandidateName,
		AssessmentURL:  h.assessmentURL(inv.Token),
		ExpiresAt:      inv.ExpiresAt,
	}
	if err := h.Queue.PublishInviteEmail(job); err != nil {
		h.Logger.Warn("failed to queue invite email",
			zap.Uint("invitation_id", inv.ID),
			zap.Error(err))
	}
}
