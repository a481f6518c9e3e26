package reconcile

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"billing-service/internal/domain/plans"
	"billing-service/internal/domain/workspaces"
)

// DiffItems computes the single declarative update that turns current into
// desired: desired items whose price is absent are added, current items
// whose price is no longer desired are marked deleted. Items present on both
// sides are left out. Added items come first, in catalog order.
func DiffItems(current []*stripe.SubscriptionItem, desired []plans.Item) []*stripe.SubscriptionItemsParams {
	have := make(map[string]bool, len(current))
	for _, item := range current {
		if item.Price != nil {
			have[item.Price.ID] = true
		}
	}
	want := make(map[string]bool, len(desired))
	for _, item := range desired {
		want[item.Price] = true
	}

	var diff []*stripe.SubscriptionItemsParams
	for _, item := range desired {
		if !have[item.Price] {
			diff = append(diff, &stripe.SubscriptionItemsParams{
				Price:    stripe.String(item.Price),
				Metadata: item.Metadata,
			})
		}
	}
	for _, item := range current {
		if item.Price == nil || !want[item.Price.ID] {
			diff = append(diff, &stripe.SubscriptionItemsParams{
				ID:      stripe.String(item.ID),
				Deleted: stripe.Bool(true),
			})
		}
	}
	return diff
}

// SyncResult describes one workspace's resync.
type SyncResult struct {
	WorkspaceID string `json:"workspace_id"`
	Added       int    `json:"added"`
	Deleted     int    `json:"deleted"`
	Error       string `json:"error,omitempty"`
}

// SyncItems reconciles the workspace subscription's items with the catalog
// for its tier and billing mode. No update is sent when nothing differs.
func (s *Service) SyncItems(ctx context.Context, workspaceID string) (*SyncResult, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.SubscriptionID == nil || *ws.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSubscription, workspaceID)
	}

	client := s.clients.For(ws.Chargeable)
	sub, err := client.GetSubscription(ctx, *ws.SubscriptionID)
	if err != nil {
		syncItemsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	var current []*stripe.SubscriptionItem
	if sub.Items != nil {
		current = sub.Items.Data
	}
	diff := DiffItems(current, plans.ResolveCatalogItems(ws.Chargeable, ws.Tier))

	result := &SyncResult{WorkspaceID: ws.ID}
	for _, p := range diff {
		if p.Deleted != nil && *p.Deleted {
			result.Deleted++
		} else {
			result.Added++
		}
	}
	if len(diff) == 0 {
		syncItemsTotal.WithLabelValues("unchanged").Inc()
		return result, nil
	}

	if _, err := client.UpdateSubscription(ctx, sub.ID, &stripe.SubscriptionParams{Items: diff}); err != nil {
		syncItemsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("update subscription items: %w", err)
	}

	syncItemsTotal.WithLabelValues("updated").Inc()
	s.log.Info("subscription items synced",
		zap.String("workspace_id", ws.ID),
		zap.String("subscription_id", sub.ID),
		zap.Int("added", result.Added),
		zap.Int("deleted", result.Deleted),
	)
	return result, nil
}

// UpdateTier stores the new tier and resyncs items when the workspace has a
// subscription. A nil tier removes the flat-fee item.
func (s *Service) UpdateTier(ctx context.Context, workspaceID string, tier *plans.Tier) (*SyncResult, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var value interface{}
	if tier != nil {
		value = string(*tier)
	}
	if err := s.updateWorkspace(ctx, ws, map[string]interface{}{"tier": value}); err != nil {
		return nil, err
	}
	if !ws.Provisioned() {
		return &SyncResult{WorkspaceID: ws.ID}, nil
	}
	return s.SyncItems(ctx, ws.ID)
}

// SyncAll resyncs every provisioned workspace. Each workspace succeeds or
// fails on its own.
func (s *Service) SyncAll(ctx context.Context) ([]SyncResult, error) {
	list, err := s.provisionedWorkspaces(ctx, nil)
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, len(list))
	errs := forEach(ctx, s.concurrency, list, func(ctx context.Context, i int, ws workspaces.Workspace) error {
		res, err := s.SyncItems(ctx, ws.ID)
		if err == nil {
			results[i] = *res
		}
		return err
	})
	for i, ws := range list {
		if errs[i] != nil {
			results[i] = SyncResult{WorkspaceID: ws.ID, Error: errs[i].Error()}
			s.log.Warn("subscription item sync failed", zap.String("workspace_id", ws.ID), zap.Error(errs[i]))
		}
	}
	return results, nil
}
