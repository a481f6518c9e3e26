package reconcile

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"billing-service/internal/domain/plans"
)

// Provisioned is the billing identity written back onto a workspace.
type Provisioned struct {
	ConsumerID     string `json:"consumer_id"`
	SubscriptionID string `json:"subscription_id"`
	CouponID       string `json:"coupon_id,omitempty"`
	Chargeable     bool   `json:"chargeable"`
}

// Setup creates the provider customer and subscription for a workspace and
// stores their ids on the row.
//
// Provider calls carry idempotency keys built from the workspace id and row
// version. A retry against an unchanged row, such as after a provider or
// store failure, reuses the objects created by the first attempt. Any write
// to the row in between (a tier change, a reset) bumps the version and the
// retry creates fresh objects.
func (s *Service) Setup(ctx context.Context, workspaceID string) (*Provisioned, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.ConsumerID != nil || ws.SubscriptionID != nil {
		provisionTotal.WithLabelValues("already_provisioned").Inc()
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProvisioned, workspaceID)
	}

	client := s.clients.For(ws.Chargeable)
	coupon, hasCoupon := plans.ResolveCoupon(plans.StarterCouponLabel, ws.Chargeable)
	keyPrefix := fmt.Sprintf("provision-%s-v%d", ws.ID, ws.Version)

	customerParams := &stripe.CustomerParams{
		Metadata: map[string]string{plans.MetadataWorkspaceID: ws.ID},
	}
	if hasCoupon {
		customerParams.Coupon = stripe.String(coupon)
	}
	customerParams.SetIdempotencyKey(keyPrefix + "-customer")

	consumer, err := client.CreateCustomer(ctx, customerParams)
	if err != nil {
		provisionTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create customer: %w", err)
	}

	items := plans.ResolveCatalogItems(ws.Chargeable, ws.Tier)
	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(consumer.ID),
		Metadata: map[string]string{plans.MetadataWorkspaceID: ws.ID},
		BillingThresholds: &stripe.SubscriptionBillingThresholdsParams{
			AmountGTE:               stripe.Int64(s.thresholdCents),
			ResetBillingCycleAnchor: stripe.Bool(false),
		},
		Items: itemParams(items),
	}
	subParams.SetIdempotencyKey(keyPrefix + "-subscription")

	sub, err := client.CreateSubscription(ctx, subParams)
	if err != nil {
		provisionTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	updates := map[string]interface{}{
		"consumer_id":     consumer.ID,
		"subscription_id": sub.ID,
		"coupon_id":       nil,
		"chargeable":      ws.Chargeable,
	}
	out := &Provisioned{
		ConsumerID:     consumer.ID,
		SubscriptionID: sub.ID,
		Chargeable:     ws.Chargeable,
	}
	if hasCoupon {
		updates["coupon_id"] = coupon
		out.CouponID = coupon
	}
	if err := s.updateWorkspace(ctx, ws, updates); err != nil {
		provisionTotal.WithLabelValues("error").Inc()
		s.log.Error("provider objects created but workspace not updated",
			zap.String("workspace_id", ws.ID),
			zap.String("consumer_id", consumer.ID),
			zap.String("subscription_id", sub.ID),
			zap.Error(err),
		)
		return nil, err
	}

	provisionTotal.WithLabelValues("ok").Inc()
	s.log.Info("workspace provisioned",
		zap.String("workspace_id", ws.ID),
		zap.String("consumer_id", consumer.ID),
		zap.String("subscription_id", sub.ID),
		zap.Bool("chargeable", ws.Chargeable),
		zap.Int("items", len(items)),
	)
	return out, nil
}

func itemParams(items []plans.Item) []*stripe.SubscriptionItemsParams {
	out := make([]*stripe.SubscriptionItemsParams, 0, len(items))
	for _, item := range items {
		out = append(out, &stripe.SubscriptionItemsParams{
			Price:    stripe.String(item.Price),
			Metadata: item.Metadata,
		})
	}
	return out
}
