package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Invoice returns the billing page summary for the session's workspace.
func (h *Handler) Invoice(c *gin.Context) {
	sum, err := h.svc.Invoice(c.Request.Context(), c.GetString("workspace_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sum)
}

// PayOpenInvoice retries payment of the outstanding invoice.
func (h *Handler) PayOpenInvoice(c *gin.Context) {
	inv, err := h.svc.PayOpenInvoice(c.Request.Context(), c.GetString("workspace_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, inv)
}
