package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Subscribe provisions the workspace named in a database trigger payload.
func (h *Handler) Subscribe(c *gin.Context) {
	var body struct {
		Record struct {
			ID string `json:"id" binding:"required"`
		} `json:"record"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid record.id"})
		return
	}
	c.Set("workspace_id", body.Record.ID)

	out, err := h.svc.Setup(c.Request.Context(), body.Record.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// Reset re-provisions a workspace under a new billing mode.
func (h *Handler) Reset(c *gin.Context) {
	var body struct {
		WorkspaceID string `json:"workspace_id" binding:"required"`
		Chargeable  *bool  `json:"chargeable" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid workspace_id/chargeable"})
		return
	}
	c.Set("workspace_id", body.WorkspaceID)

	out, err := h.svc.Reset(c.Request.Context(), body.WorkspaceID, *body.Chargeable)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Workspace billing reset",
		"provisioned":  out,
		"workspace_id": body.WorkspaceID,
	})
}
