package interfaces

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillgate/domain"
	"skillgate/infrastructure/ats"
)

// ErrMissingLinkage means the assessment cannot be tied back to a provider
// record. Not retryable; the linkage will never appear on its own.
var ErrMissingLinkage = errors.New("assessment has no ATS linkage")

type SyncResult struct {
	Synced        bool `json:"synced"`
	AlreadySynced bool `json:"already_synced"`
}

// syncAssessment pushes one assessment's results into the originating ATS.
//
// The idempotency marker is claimed with a conditional update before the
// provider call, so two concurrent syncs (manual + bulk, or a double click)
// cannot both reach the provider: exactly one wins the claim, the other
// reports alreadySynced. A failed provider call releases the claim, which
// keeps the row retryable.
func (h *Handler) syncAssessment(ctx context.Context, company *domain.Company, a *domain.Assessment) (*SyncResult, error) {
	if a.AtsWebhookSent {
		return &SyncResult{AlreadySynced: true}, nil
	}

	targetID, err := syncTargetID(a)
	if err != nil {
		return nil, err
	}

	cfg := company.Integration(a.AtsProvider)
	adapter, err := h.Adapters.ForProvider(cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	claim := h.DB.Model(&domain.Assessment{}).
		Where("id = ? AND ats_webhook_sent = ?", a.ID, false).
		Updates(map[string]any{"ats_webhook_sent": true, "ats_webhook_sent_at": now})
	if claim.Error != nil {
		return nil, fmt.Errorf("failed to claim sync marker: %w", claim.Error)
	}
	if claim.RowsAffected == 0 {
		return &SyncResult{AlreadySynced: true}, nil
	}

	note := ats.FormatResultNote(a, h.resultsURL(a))
	if err := adapter.WriteNote(ctx, targetID, note); err != nil {
		if releaseErr := h.DB.Model(&domain.Assessment{}).Where("id = ?", a.ID).
			Updates(map[string]any{"ats_webhook_sent": false, "ats_webhook_sent_at": nil}).Error; releaseErr != nil {
			return nil, fmt.Errorf("provider write failed (%w) and sync marker stuck: %v", err, releaseErr)
		}
		return nil, err
	}

	a.AtsWebhookSent = true
	a.AtsWebhookSentAt = &now
	return &SyncResult{Synced: true}, nil
}

// syncTargetID picks the provider's write target: Ashby and Greenhouse notes
// go on the candidate, Lever notes go on the opportunity.
func syncTargetID(a *domain.Assessment) (string, error) {
	if a.AtsProvider == "" {
		return "", ErrMissingLinkage
	}
	var target string
	switch a.AtsProvider {
	case domain.ProviderLever:
		target = a.AtsApplicationID
	default:
		target = a.AtsCandidateID
	}
	if target == "" {
		return "", ErrMissingLinkage
	}
	return target, nil
}

func (h *Handler) resultsURL(a *domain.Assessment) string {
	return fmt.Sprintf("%s/results/%d", h.BaseURL, a.ID)
}
