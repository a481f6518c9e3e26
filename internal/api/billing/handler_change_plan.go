package billing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"billing-service/internal/domain/plans"
)

// ChangeTier stores a new tier for the workspace and resyncs its items. An
// empty tier drops the flat-fee item.
func (h *Handler) ChangeTier(c *gin.Context) {
	var body struct {
		WorkspaceID string `json:"workspace_id"`
		Tier        string `json:"tier"`
	}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.WorkspaceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid workspace_id"})
		return
	}

	var tier *plans.Tier
	if strings.TrimSpace(body.Tier) != "" {
		t, ok := plans.ParseTier(body.Tier)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown tier"})
			return
		}
		tier = &t
	}

	res, err := h.svc.UpdateTier(c.Request.Context(), body.WorkspaceID, tier)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tier updated", "tier": tier, "sync": res})
}

// SyncItems resyncs one workspace's subscription items with the catalog.
func (h *Handler) SyncItems(c *gin.Context) {
	var body struct {
		WorkspaceID string `json:"workspace_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid workspace_id"})
		return
	}
	c.Set("workspace_id", body.WorkspaceID)

	res, err := h.svc.SyncItems(c.Request.Context(), body.WorkspaceID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// SyncAllItems resyncs every provisioned workspace. Failures are reported
// per workspace.
func (h *Handler) SyncAllItems(c *gin.Context) {
	results, err := h.svc.SyncAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   len(results),
		"failed":  failed,
		"results": results,
	})
}
