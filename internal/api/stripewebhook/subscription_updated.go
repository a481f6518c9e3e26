package stripewebhooks

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

func (h *Handler) handleSubscriptionUpdated(c *gin.Context, eventType string, sub *stripe.Subscription) {
	if sub.ID == "" {
		h.reply(c, eventType, "bad_payload", http.StatusBadRequest, gin.H{"error": "subscription missing id"})
		return
	}

	workspaceID, err := h.svc.MirrorSubscriptionStatus(c.Request.Context(), sub)
	if err != nil {
		h.fail(c, eventType, err)
		return
	}

	c.Set("workspace_id", workspaceID)
	h.reply(c, eventType, "ok", http.StatusOK, gin.H{
		"status":  "received",
		"message": fmt.Sprintf("Update workspace %s to %s", workspaceID, sub.Status),
	})
}
