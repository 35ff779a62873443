package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillgate/domain"
)

// SubmitAssessment ends a candidate session: it scores the transcript,
// redeems the invitation token and records the Assessment.
//
// Redemption is a single conditional update keyed on used_at IS NULL, so two
// concurrent submissions of the same token cannot both succeed.
func (h *Handler) SubmitAssessment(c *gin.Context) {
	var req struct {
		Token           string `json:"token" binding:"required"`
		Transcript      string `json:"transcript" binding:"required"`
		DurationSeconds int    `json:"duration_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var inv domain.Invitation
	if err := h.DB.Where("token = ?", req.Token).First(&inv).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		return
	}
	if inv.Status(time.Now()) != domain.InvitationPending {
		c.JSON(http.StatusGone, gin.H{"error": "invitation already used or expired"})
		return
	}

	result, err := h.Scorer.Score(c.Request.Context(), inv.AssessmentType, req.Transcript)
	if err != nil {
		h.Logger.Error("transcript scoring failed", zap.Uint("invitation_id", inv.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scoring failed"})
		return
	}

	now := time.Now()
	res := h.DB.Model(&domain.Invitation{}).
		Where("id = ? AND used_at IS NULL AND expires_at > ?", inv.ID, now).
		Update("used_at", now)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem invitation"})
		return
	}
	if res.RowsAffected == 0 {
		// Lost the race, or expired between the read and the claim.
		c.JSON(http.StatusGone, gin.H{"error": "invitation already used or expired"})
		return
	}

	resultBytes, _ := json.Marshal(result)
	resultStr := string(resultBytes)

	assessment := domain.Assessment{
		CompanyID:           inv.CompanyID,
		InvitationID:        inv.ID,
		CandidateEmail:      inv.CandidateEmail,
		CandidateName:       inv.CandidateName,
		AssessmentType:      inv.AssessmentType,
		OverallScore:        result.Overall,
		TechnicalScore:      result.Technical,
		ProblemSolvingScore: result.ProblemSolving,
		CommunicationScore:  result.Communication,
		CompletionScore:     result.Completion,
		Summary:             result.Summary,
		Transcript:          req.Transcript,
		ResultJSON:          &resultStr,
		DurationSeconds:     req.DurationSeconds,
		AtsProvider:         inv.AtsProvider,
		AtsJobID:            inv.AtsJobID,
		AtsApplicationID:    inv.AtsApplicationID,
		AtsCandidateID:      inv.AtsCandidateID,
	}
	if err := h.DB.Create(&assessment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save assessment"})
		return
	}

	if err := h.DB.Model(&domain.Invitation{}).Where("id = ?", inv.ID).
		Update("assessment_id", assessment.ID).Error; err != nil {
		h.Logger.Warn("failed to link assessment to invitation",
			zap.Uint("invitation_id", inv.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"assessment_id": assessment.ID,
		"overall_score": assessment.OverallScore,
		"summary":       assessment.Summary,
	})
}

// ListAssessments is company-scoped offset pagination.
func (h *Handler) ListAssessments(c *gin.Context) {
	companyID := companyIDFrom(c)

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil && n <= 200 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			offset = n
		}
	}

	q := h.DB.Where("company_id = ?", companyID).Order("created_at DESC").Limit(limit).Offset(offset)
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		q = q.Where("created_at >= ?", since)
	}

	var assessments []domain.Assessment
	if err := q.Find(&assessments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assessments"})
		return
	}

	items := make([]gin.H, 0, len(assessments))
	for _, a := range assessments {
		items = append(items, gin.H{
			"id":              a.ID,
			"candidate_email": a.CandidateEmail,
			"candidate_name":  a.CandidateName,
			"assessment_type": a.AssessmentType,
			"overall_score":   a.OverallScore,
			"summary":         a.Summary,
			"ats_provider":    a.AtsProvider,
			"synced_to_ats":   a.AtsWebhookSent,
			"created_at":      a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"assessments": items})
}
