package stripewebhooks

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"go.uber.org/zap"

	"billing-service/internal/reconcile"
)

var webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "billing_webhook_events_total",
	Help: "Provider webhook events by type and outcome",
}, []string{"type", "outcome"})

// Handler receives provider webhooks. One endpoint secret covers both
// billing modes.
type Handler struct {
	svc            *reconcile.Service
	endpointSecret string
	log            *zap.Logger
}

func NewHandler(svc *reconcile.Service, endpointSecret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, endpointSecret: endpointSecret, log: log.Named("stripe_webhook")}
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn("stripe signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	eventType := string(event.Type)
	switch eventType {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.reply(c, eventType, "bad_payload", http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		h.handleSubscriptionUpdated(c, eventType, &sub)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			h.reply(c, eventType, "bad_payload", http.StatusBadRequest, gin.H{"error": "Failed to parse subscription"})
			return
		}
		h.handleSubscriptionDeleted(c, eventType, &sub)

	case "payment_method.attached", "payment_method.detached":
		var pm stripe.PaymentMethod
		if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
			h.reply(c, eventType, "bad_payload", http.StatusBadRequest, gin.H{"error": "Failed to parse payment method"})
			return
		}
		h.handlePaymentMethod(c, eventType, &pm, event.Data.PreviousAttributes)

	default:
		// Acknowledge unknown events to avoid retries
		h.reply(c, eventType, "ignored", http.StatusOK, gin.H{"status": "ignored"})
	}
}

// fail answers a handler error. Events for a workspace that no longer
// exists, or for a subscription it no longer holds, are acknowledged so the
// provider stops retrying.
func (h *Handler) fail(c *gin.Context, eventType string, err error) {
	if errors.Is(err, reconcile.ErrWorkspaceNotFound) || errors.Is(err, reconcile.ErrStaleSubscription) {
		h.log.Info("webhook ignored", zap.String("type", eventType), zap.Error(err))
		h.reply(c, eventType, "ignored", http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	_ = c.Error(err)
	h.reply(c, eventType, "error", http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *Handler) reply(c *gin.Context, eventType, outcome string, status int, body gin.H) {
	webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
	c.JSON(status, body)
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
