package stripewebhooks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

// Deletion arrives with status "canceled"; it is mirrored like any update.
func (h *Handler) handleSubscriptionDeleted(c *gin.Context, eventType string, sub *stripe.Subscription) {
	if sub.ID == "" {
		h.reply(c, eventType, "ignored", http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if sub.Status == "" {
		sub.Status = stripe.SubscriptionStatusCanceled
	}

	workspaceID, err := h.svc.MirrorSubscriptionStatus(c.Request.Context(), sub)
	if err != nil {
		h.fail(c, eventType, err)
		return
	}

	c.Set("workspace_id", workspaceID)
	h.reply(c, eventType, "ok", http.StatusOK, gin.H{"status": "received"})
}
