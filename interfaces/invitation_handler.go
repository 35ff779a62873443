package interfaces

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skillgate/domain"
)

// CreateInvitation issues an invitation manually (public API or dashboard).
func (h *Handler) CreateInvitation(c *gin.Context) {
	var req struct {
		CandidateEmail   string `json:"candidate_email" binding:"required,email"`
		CandidateName    string `json:"candidate_name"`
		AssessmentType   string `json:"assessment_type"`
		ExpiresInHours   int    `json:"expires_in_hours"`
		AtsJobID         string `json:"ats_job_id"`
		AtsApplicationID string `json:"ats_application_id"`
		CompanyID        uint   `json:"company_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.resolveCompany(c, req.CompanyID)
	if !ok {
		return
	}

	inv, err := h.issueInvitation(company, invitationParams{
		CandidateEmail: req.CandidateEmail,
		CandidateName:  req.CandidateName,
		AssessmentType: req.AssessmentType,
		ExpiresInHours: req.ExpiresInHours,
		AtsJobID:       req.AtsJobID,
		AtsAppID:       req.AtsApplicationID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invitation"})
		return
	}

	h.dispatchInviteEmail(inv)

	c.JSON(http.StatusOK, gin.H{
		"invitation": gin.H{
			"id":              inv.ID,
			"token":           inv.Token,
			"assessment_url":  h.assessmentURL(inv.Token),
			"candidate_email": inv.CandidateEmail,
			"assessment_type": inv.AssessmentType,
			"expires_at":      inv.ExpiresAt,
			"status":          inv.Status(time.Now()),
		},
	})
}

// ListInvitations filters by derived status; the filter is expressed in SQL
// over used_at and expires_at since status is never stored.
func (h *Handler) ListInvitations(c *gin.Context) {
	companyID := companyIDFrom(c)

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil && n <= 200 {
			limit = n
		}
	}

	q := h.DB.Where("company_id = ?", companyID).Order("created_at DESC").Limit(limit)
	now := time.Now()
	switch c.Query("status") {
	case "":
	case domain.InvitationPending:
		q = q.Where("used_at IS NULL AND expires_at > ?", now)
	case domain.InvitationUsed:
		q = q.Where("used_at IS NOT NULL")
	case domain.InvitationExpired:
		q = q.Where("used_at IS NULL AND expires_at <= ?", now)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	var invitations []domain.Invitation
	if err := q.Find(&invitations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invitations"})
		return
	}

	items := make([]gin.H, 0, len(invitations))
	for _, inv := range invitations {
		items = append(items, gin.H{
			"id":              inv.ID,
			"candidate_email": inv.CandidateEmail,
			"candidate_name":  inv.CandidateName,
			"assessment_type": inv.AssessmentType,
			"ats_provider":    inv.AtsProvider,
			"expires_at":      inv.ExpiresAt,
			"used_at":         inv.UsedAt,
			"status":          inv.Status(now),
			"created_at":      inv.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"invitations": items})
}

// ValidateInvitation is the public token check the assessment UI calls before
// letting a candidate in. 404 unknown, 410 used or expired, 200 otherwise.
func (h *Handler) ValidateInvitation(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	var inv domain.Invitation
	if err := h.DB.Where("token = ?", token).First(&inv).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		return
	}

	switch inv.Status(time.Now()) {
	case domain.InvitationUsed:
		c.JSON(http.StatusGone, gin.H{"error": "invitation already used"})
	case domain.InvitationExpired:
		c.JSON(http.StatusGone, gin.H{"error": "invitation expired"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"invitation": gin.H{
				"candidate_email": inv.CandidateEmail,
				"candidate_name":  inv.CandidateName,
				"assessment_type": inv.AssessmentType,
				"expires_at":      inv.ExpiresAt,
			},
		})
	}
}
