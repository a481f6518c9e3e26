package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"billing-service/internal/domain/plans"
	"billing-service/internal/domain/workspaces"
	stripeinfra "billing-service/internal/infra/stripe"
)

// MirrorSubscriptionStatus writes the subscription's status onto the
// workspace named in its metadata. The provider is the source of truth, so
// the status is stored as sent, but only while the subscription is still the
// workspace's current one. Events for a subscription replaced by a reset
// return ErrStaleSubscription.
func (s *Service) MirrorSubscriptionStatus(ctx context.Context, sub *stripe.Subscription) (string, error) {
	workspaceID := sub.Metadata[plans.MetadataWorkspaceID]
	if workspaceID == "" {
		statusMirrorTotal.WithLabelValues("no_metadata").Inc()
		return "", fmt.Errorf("%w: %s", ErrNoWorkspaceMetadata, sub.ID)
	}

	status := string(sub.Status)
	if !stripeinfra.KnownStatus(status) {
		statusMirrorTotal.WithLabelValues("unknown_status").Inc()
		s.log.Warn("unrecognised subscription status",
			zap.String("workspace_id", workspaceID),
			zap.String("subscription_id", sub.ID),
			zap.String("status", status),
		)
	}

	res := s.db.WithContext(ctx).
		Model(&workspaces.Workspace{}).
		Where("id = ? AND subscription_id = ?", workspaceID, sub.ID).
		Updates(map[string]interface{}{
			"status":  status,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		statusMirrorTotal.WithLabelValues("error").Inc()
		return workspaceID, fmt.Errorf("update workspace status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		ws, err := s.loadWorkspace(ctx, workspaceID)
		if err != nil {
			if errors.Is(err, ErrWorkspaceNotFound) {
				statusMirrorTotal.WithLabelValues("not_found").Inc()
			} else {
				statusMirrorTotal.WithLabelValues("error").Inc()
			}
			return workspaceID, err
		}
		statusMirrorTotal.WithLabelValues("stale").Inc()
		current := ""
		if ws.SubscriptionID != nil {
			current = *ws.SubscriptionID
		}
		s.log.Info("status event for a replaced subscription",
			zap.String("workspace_id", workspaceID),
			zap.String("subscription_id", sub.ID),
			zap.String("current_subscription_id", current),
			zap.String("status", status),
		)
		return workspaceID, fmt.Errorf("%w: %s on %s", ErrStaleSubscription, sub.ID, workspaceID)
	}

	statusMirrorTotal.WithLabelValues("ok").Inc()
	s.log.Info("subscription status mirrored",
		zap.String("workspace_id", workspaceID),
		zap.String("subscription_id", sub.ID),
		zap.String("status", status),
	)
	return workspaceID, nil
}

// ThresholdChange reports which subscriptions had their billing threshold
// moved after a payment method change.
type ThresholdChange struct {
	WorkspaceID     string   `json:"workspace_id"`
	AmountGTE       int64    `json:"amount_gte"`
	SubscriptionIDs []string `json:"subscription_ids"`
	// Unchanged is set when the customer still holds a payment method after
	// a detach.
	Unchanged bool `json:"unchanged,omitempty"`
}

// PaymentMethodAttached flags the customer's workspace and raises the
// auto-invoice threshold on its active subscriptions.
func (s *Service) PaymentMethodAttached(ctx context.Context, consumerID string) (*ThresholdChange, error) {
	ws, err := s.workspaceByConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}
	if err := s.setPaymentMethodAttached(ctx, ws, true); err != nil {
		return nil, err
	}
	return s.moveThresholds(ctx, ws, s.thresholdWithPaymentCents)
}

// PaymentMethodDetached clears the flag and lowers the threshold once the
// customer has no payment method left.
func (s *Service) PaymentMethodDetached(ctx context.Context, consumerID string) (*ThresholdChange, error) {
	ws, err := s.workspaceByConsumer(ctx, consumerID)
	if err != nil {
		return nil, err
	}

	client := s.clients.For(ws.Chargeable)
	remaining, err := client.HasPaymentMethod(ctx, consumerID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	if remaining {
		return &ThresholdChange{WorkspaceID: ws.ID, Unchanged: true, SubscriptionIDs: []string{}}, nil
	}

	if err := s.setPaymentMethodAttached(ctx, ws, false); err != nil {
		return nil, err
	}
	return s.moveThresholds(ctx, ws, s.thresholdCents)
}

func (s *Service) workspaceByConsumer(ctx context.Context, consumerID string) (*workspaces.Workspace, error) {
	var ws workspaces.Workspace
	err := s.db.WithContext(ctx).Where("consumer_id = ?", consumerID).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: consumer %s", ErrWorkspaceNotFound, consumerID)
	}
	if err != nil {
		return nil, fmt.Errorf("load workspace by consumer %s: %w", consumerID, err)
	}
	return &ws, nil
}

func (s *Service) setPaymentMethodAttached(ctx context.Context, ws *workspaces.Workspace, attached bool) error {
	err := s.db.WithContext(ctx).
		Model(&workspaces.Workspace{}).
		Where("id = ?", ws.ID).
		Updates(map[string]interface{}{
			"payment_method_attached": attached,
			"version":                 gorm.Expr("version + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("update payment method flag: %w", err)
	}
	ws.PaymentMethodAttached = attached
	return nil
}

func (s *Service) moveThresholds(ctx context.Context, ws *workspaces.Workspace, amount int64) (*ThresholdChange, error) {
	client := s.clients.For(ws.Chargeable)
	subs, err := client.ListActiveSubscriptions(ctx, *ws.ConsumerID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	change := &ThresholdChange{WorkspaceID: ws.ID, AmountGTE: amount, SubscriptionIDs: []string{}}
	for _, sub := range subs {
		_, err := client.UpdateSubscription(ctx, sub.ID, &stripe.SubscriptionParams{
			BillingThresholds: &stripe.SubscriptionBillingThresholdsParams{
				AmountGTE:               stripe.Int64(amount),
				ResetBillingCycleAnchor: stripe.Bool(false),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("update threshold on %s: %w", sub.ID, err)
		}
		change.SubscriptionIDs = append(change.SubscriptionIDs, sub.ID)
	}

	s.log.Info("billing threshold moved",
		zap.String("workspace_id", ws.ID),
		zap.Int64("amount_gte", amount),
		zap.Strings("subscriptions", change.SubscriptionIDs),
	)
	return change, nil
}
