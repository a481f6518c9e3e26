package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billing-service/internal/reconcile"
)

// ReportCompute submits one compute_hourly row.
func (h *Handler) ReportCompute(c *gin.Context) {
	var body struct {
		Record reconcile.ComputeEvent `json:"record"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid usage record", "details": err.Error()})
		return
	}
	c.Set("workspace_id", body.Record.WorkspaceID)

	rep, err := h.svc.ReportCompute(c.Request.Context(), body.Record)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

// ReportStorage submits one storage_hourly row.
func (h *Handler) ReportStorage(c *gin.Context) {
	var body struct {
		Record reconcile.StorageEvent `json:"record"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid usage record", "details": err.Error()})
		return
	}
	c.Set("workspace_id", body.Record.WorkspaceID)

	rep, err := h.svc.ReportStorage(c.Request.Context(), body.Record)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rep)
}
