package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func (h *Handler) ApplyCoupon(c *gin.Context) {
	var body struct {
		WorkspaceID string `json:"workspace_id"`
		Coupon      string `json:"coupon"`
	}
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.Coupon == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid coupon"})
		return
	}

	coupon, err := h.svc.ApplyCoupon(c.Request.Context(), body.WorkspaceID, body.Coupon)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon applied", "coupon_id": coupon})
}

func (h *Handler) RemoveCoupon(c *gin.Context) {
	if err := h.svc.RemoveCoupon(c.Request.Context(), c.GetString("workspace_id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Coupon removed"})
}
