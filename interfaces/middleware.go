package interfaces

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillgate/domain"
)

// authenticateRequest resolves the Bearer credential to a company id. Every
// failure mode (no header, malformed header, unknown key) looks identical to
// the caller so responses never leak whether a key exists.
func (h *Handler) authenticateRequest(c *gin.Context) (uint, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return 0, false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if raw == "" {
		return 0, false
	}

	var key domain.ApiKey
	if err := h.DB.Where("key_hash = ?", domain.HashAPIKey(raw)).First(&key).Error; err != nil {
		return 0, false
	}

	// Best-effort usage bookkeeping; never blocks the request.
	go func(id uint) {
		now := time.Now()
		if err := h.DB.Model(&domain.ApiKey{}).Where("id = ?", id).
			Update("last_used_at", now).Error; err != nil {
			h.Logger.Debug("failed to bump api key last_used_at", zap.Error(err))
		}
	}(key.ID)

	return key.CompanyID, true
}

// APIKeyAuth guards the company-scoped REST endpoints.
func (h *Handler) APIKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID, ok := h.authenticateRequest(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Set("company_id", companyID)
		c.Next()
	}
}

func companyIDFrom(c *gin.Context) uint {
	v, _ := c.Get("company_id")
	id, _ := v.(uint)
	return id
}
