package stripewebhooks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"

	"billing-service/internal/reconcile"
)

func (h *Handler) handlePaymentMethod(c *gin.Context, eventType string, pm *stripe.PaymentMethod, previous map[string]interface{}) {
	customerID := paymentMethodCustomer(pm, previous)
	if customerID == "" {
		h.reply(c, eventType, "ignored", http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var (
		change *reconcile.ThresholdChange
		err    error
	)
	if eventType == "payment_method.attached" {
		change, err = h.svc.PaymentMethodAttached(c.Request.Context(), customerID)
	} else {
		change, err = h.svc.PaymentMethodDetached(c.Request.Context(), customerID)
	}
	if err != nil {
		h.fail(c, eventType, err)
		return
	}

	c.Set("workspace_id", change.WorkspaceID)
	h.reply(c, eventType, "ok", http.StatusOK, gin.H{"status": "received", "thresholds": change})
}

// paymentMethodCustomer returns the owning customer. A detached method no
// longer carries it, so the previous attributes are consulted.
func paymentMethodCustomer(pm *stripe.PaymentMethod, previous map[string]interface{}) string {
	if pm.Customer != nil && pm.Customer.ID != "" {
		return pm.Customer.ID
	}
	if id, ok := previous["customer"].(string); ok {
		return id
	}
	return ""
}
