package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	stripeinfra "billing-service/internal/infra/stripe"
)

// Reset tears down the workspace's provider customer and subscription and
// provisions it again under the given billing mode. It is the only path
// that changes chargeable once a customer exists.
func (s *Service) Reset(ctx context.Context, workspaceID string, chargeable bool) (*Provisioned, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if ws.Provisioned() {
		client := s.clients.For(ws.Chargeable)
		if err := client.CancelSubscription(ctx, *ws.SubscriptionID); err != nil {
			return nil, fmt.Errorf("cancel subscription: %w", err)
		}
		if err := client.DeleteCustomer(ctx, *ws.ConsumerID); err != nil && !stripeinfra.IsResourceMissing(err) {
			return nil, fmt.Errorf("delete customer: %w", err)
		}
		s.log.Info("provider objects removed",
			zap.String("workspace_id", ws.ID),
			zap.String("consumer_id", *ws.ConsumerID),
			zap.String("subscription_id", *ws.SubscriptionID),
		)
	}

	if err := s.updateWorkspace(ctx, ws, map[string]interface{}{
		"consumer_id":             nil,
		"subscription_id":         nil,
		"coupon_id":               nil,
		"status":                  nil,
		"payment_method_attached": false,
		"chargeable":              chargeable,
	}); err != nil {
		return nil, err
	}

	return s.Setup(ctx, ws.ID)
}
