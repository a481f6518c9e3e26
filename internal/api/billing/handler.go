package billing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"billing-service/internal/reconcile"
)

// Handler serves the billing API on top of the reconcile service.
type Handler struct {
	svc *reconcile.Service
	log *zap.Logger
}

func NewHandler(svc *reconcile.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("billing_api")}
}

// respondError maps service errors onto status codes. Provider errors pass
// their message through.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var stripeErr *stripe.Error
	switch {
	case reconcile.IsPrecondition(err):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, reconcile.ErrVersionConflict),
		errors.Is(err, reconcile.ErrSweepInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, reconcile.ErrUnknownTier),
		errors.Is(err, reconcile.ErrUnknownCoupon),
		errors.Is(err, reconcile.ErrUnknownShape):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stripeErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": stripeErr.Msg})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
