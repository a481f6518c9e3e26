package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SweepCoupons is called daily by the scheduler.
func (h *Handler) SweepCoupons(c *gin.Context) {
	report, err := h.svc.SweepCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
