package reconcile

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"billing-service/internal/domain/plans"
)

// ApplyCoupon resolves label for the workspace's billing mode, applies it to
// the provider customer and stores it so the monthly sweep renews it.
func (s *Service) ApplyCoupon(ctx context.Context, workspaceID, label string) (string, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	coupon, ok := plans.ResolveCoupon(label, ws.Chargeable)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCoupon, label)
	}
	if !ws.Provisioned() {
		return "", fmt.Errorf("%w: %s", ErrNoSubscription, ws.ID)
	}

	client := s.clients.For(ws.Chargeable)
	if _, err := client.UpdateCustomer(ctx, *ws.ConsumerID, &stripe.CustomerParams{
		Coupon: stripe.String(coupon),
	}); err != nil {
		return "", fmt.Errorf("apply coupon: %w", err)
	}
	if err := s.updateWorkspace(ctx, ws, map[string]interface{}{"coupon_id": coupon}); err != nil {
		return "", err
	}

	s.log.Info("coupon applied",
		zap.String("workspace_id", ws.ID),
		zap.String("coupon_id", coupon),
	)
	return coupon, nil
}

// RemoveCoupon drops the customer discount and clears the stored coupon so
// the sweep expires rather than renews it.
func (s *Service) RemoveCoupon(ctx context.Context, workspaceID string) error {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if !ws.Provisioned() {
		return fmt.Errorf("%w: %s", ErrNoSubscription, ws.ID)
	}

	client := s.clients.For(ws.Chargeable)
	if err := client.DeleteCustomerDiscount(ctx, *ws.ConsumerID); err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	if err := s.updateWorkspace(ctx, ws, map[string]interface{}{"coupon_id": nil}); err != nil {
		return err
	}

	s.log.Info("coupon removed", zap.String("workspace_id", ws.ID))
	return nil
}
