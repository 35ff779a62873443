package interfaces

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"skillgate/domain"
	"skillgate/infrastructure"
	"skillgate/infrastructure/ats"
)

// InviteQueue is where freshly issued invitations go for email delivery.
// Satisfied by infrastructure.RabbitMQ; tests use a recording fake.
type InviteQueue interface {
	PublishInviteEmail(job infrastructure.InviteEmailJob) error
}

// TranscriptScorer evaluates a completed session. Satisfied by
// infrastructure.Scorer.
type TranscriptScorer interface {
	Score(ctx context.Context, assessmentType, transcript string) (*infrastructure.ScoreResult, error)
}

type Handler struct {
	DB       *gorm.DB
	Adapters ats.Factory
	Queue    InviteQueue
	Scorer   TranscriptScorer
	Logger   *zap.Logger
	BaseURL  string
}

func NewHTTPHandler(router *gin.Engine, h *Handler) {
	if h.BaseURL == "" {
		h.BaseURL = os.Getenv("BASE_URL")
	}
	if h.BaseURL == "" {
		h.BaseURL = "http://localhost:8080"
	}

	// Provider webhooks. GET is a static health probe some vendors ping.
	router.POST("/integrations/:provider/webhook", h.HandleWebhook)
	router.GET("/integrations/:provider/webhook", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Integration management and result sync
	router.POST("/integrations/:provider/config", h.ConfigureIntegration)
	router.POST("/integrations/:provider/sync", h.SyncAssessment)
	router.PUT("/integrations/:provider/sync", h.BulkSync)

	// Public, token-based
	router.GET("/invitations/validate", h.ValidateInvitation)
	router.POST("/assessments/submit", h.SubmitAssessment)

	// Outward REST surface. Creation endpoints also accept the dashboard's
	// company_id body mode, so they resolve the tenant themselves.
	v1 := router.Group("/v1")
	v1.POST("/invitations", h.CreateInvitation)
	v1.POST("/apikeys", h.CreateAPIKey)

	authed := v1.Group("", h.APIKeyAuth())
	authed.GET("/invitations", h.ListInvitations)
	authed.GET("/assessments", h.ListAssessments)
	authed.GET("/apikeys", h.ListAPIKeys)
	authed.DELETE("/apikeys/:id", h.DeleteAPIKey)
}

func (h *Handler) assessmentURL(token string) string {
	return h.BaseURL + "/assessment/" + token
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("value must be positive: %d", n)
	}
	return n, nil
}

// resolveCompany loads the tenant for a creation endpoint: a valid Bearer
// key wins; otherwise a company_id from the request body is accepted after
// validation against the companies table (the documented dashboard trust
// exception). Writes the error response itself when it returns false.
func (h *Handler) resolveCompany(c *gin.Context, bodyCompanyID uint) (*domain.Company, bool) {
	companyID, ok := h.authenticateRequest(c)
	if !ok {
		if bodyCompanyID == 0 {
			c.JSON(401, gin.H{"error": "unauthorized"})
			return nil, false
		}
		companyID = bodyCompanyID
	}

	var company domain.Company
	if err := h.DB.First(&company, companyID).Error; err != nil {
		c.JSON(404, gin.H{"error": "company not found"})
		return nil, false
	}
	return &company, true
}
