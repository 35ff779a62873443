package interfaces

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"skillgate/domain"
)

// CreateAPIKey mints a key for the tenant. The plaintext is returned exactly
// once; only the hash and a display prefix are stored.
func (h *Handler) CreateAPIKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		CompanyID uint   `json:"company_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, ok := h.resolveCompany(c, req.CompanyID)
	if !ok {
		return
	}

	plaintext, hash, prefix, err := domain.NewAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate key"})
		return
	}

	key := domain.ApiKey{
		CompanyID: company.ID,
		Name:      req.Name,
		KeyHash:   hash,
		KeyPrefix: prefix,
	}
	if err := h.DB.Create(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_key": gin.H{
			"id":         key.ID,
			"name":       key.Name,
			"key":        plaintext, // shown once, never again
			"key_prefix": key.KeyPrefix,
			"created_at": key.CreatedAt,
		},
	})
}

func (h *Handler) ListAPIKeys(c *gin.Context) {
	companyID := companyIDFrom(c)

	var keys []domain.ApiKey
	if err := h.DB.Where("company_id = ?", companyID).Order("created_at DESC").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list keys"})
		return
	}

	items := make([]gin.H, 0, len(keys))
	for _, k := range keys {
		items = append(items, gin.H{
			"id":           k.ID,
			"name":         k.Name,
			"key_prefix":   k.KeyPrefix,
			"last_used_at": k.LastUsedAt,
			"created_at":   k.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"api_keys": items})
}

// DeleteAPIKey revokes a key. Revocation is deletion; there is no soft state.
func (h *Handler) DeleteAPIKey(c *gin.Context) {
	companyID := companyIDFrom(c)

	res := h.DB.Where("company_id = ? AND id = ?", companyID, c.Param("id")).Delete(&domain.ApiKey{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete key"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "api key not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
