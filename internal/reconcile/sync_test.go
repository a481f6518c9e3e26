package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v75"

	"billing-service/internal/domain/plans"
)

func currentItems(prices ...string) []*stripe.SubscriptionItem {
	out := make([]*stripe.SubscriptionItem, 0, len(prices))
	for _, p := range prices {
		out = append(out, &stripe.SubscriptionItem{ID: "si_" + p, Price: &stripe.Price{ID: p}})
	}
	return out
}

func TestDiffItems(t *testing.T) {
	diff := DiffItems(currentItems("a", "b"), []plans.Item{{Price: "b"}, {Price: "c"}})

	require.Len(t, diff, 2)
	assert.Equal(t, "c", *diff[0].Price)
	assert.Nil(t, diff[0].ID)
	assert.Equal(t, "si_a", *diff[1].ID)
	assert.True(t, *diff[1].Deleted)
}

func TestDiffItems_NoChange(t *testing.T) {
	diff := DiffItems(currentItems("a", "b"), []plans.Item{{Price: "b"}, {Price: "a"}})
	assert.Empty(t, diff)
}

func TestDiffItems_FromEmpty(t *testing.T) {
	desired := plans.ResolveCatalogItems(false, plans.TierPtr(plans.TierBasic))
	diff := DiffItems(nil, desired)

	require.Len(t, diff, len(desired))
	for i, p := range diff {
		assert.Equal(t, desired[i].Price, *p.Price)
		assert.Equal(t, desired[i].Metadata, p.Metadata)
	}
}

func TestSyncItems_UnchangedMakesNoUpdate(t *testing.T) {
	f := newFixture(t, Options{})
	f.provisioned(t, "ws-1", false, plans.TierPtr(plans.TierBasic), false)

	res, err := f.svc.SyncItems(context.Background(), "ws-1")
	require.NoError(t, err)

	assert.Zero(t, res.Added)
	assert.Zero(t, res.Deleted)
	assert.Zero(t, f.test.CallCount("UpdateSubscription"))
}

func TestSyncItems_NoSubscription(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-1", false, nil)

	_, err := f.svc.SyncItems(context.Background(), "ws-1")
	require.ErrorIs(t, err, ErrNoSubscription)
}

func TestUpdateTier_SwapsFlatFeeItem(t *testing.T) {
	f := newFixture(t, Options{})
	ws := f.provisioned(t, "ws-1", false, plans.TierPtr(plans.TierBasic), false)

	res, err := f.svc.UpdateTier(context.Background(), "ws-1", plans.TierPtr(plans.TierEnterprise))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Deleted)

	updates := f.test.SubscriptionUpdates[*ws.SubscriptionID]
	require.Len(t, updates, 1, "one declarative update per sync")

	sub := f.test.Subscriptions[*ws.SubscriptionID]
	var tiers []string
	for _, item := range sub.Items.Data {
		if tier, ok := plans.TierForItem(item.Metadata); ok {
			tiers = append(tiers, string(tier))
		}
	}
	assert.Equal(t, []string{"Enterprise"}, tiers)

	stored, err := f.svc.Workspace(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, plans.TierEnterprise, *stored.Tier)
}

func TestUpdateTier_ClearRemovesTierItem(t *testing.T) {
	f := newFixture(t, Options{})
	ws := f.provisioned(t, "ws-1", false, plans.TierPtr(plans.TierStandard), false)

	res, err := f.svc.UpdateTier(context.Background(), "ws-1", nil)
	require.NoError(t, err)
	assert.Zero(t, res.Added)
	assert.Equal(t, 1, res.Deleted)
	assert.Len(t, f.test.Subscriptions[*ws.SubscriptionID].Items.Data, 6)
}

func TestUpdateTier_Unprovisioned(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-1", false, nil)

	_, err := f.svc.UpdateTier(context.Background(), "ws-1", plans.TierPtr(plans.TierBasic))
	require.NoError(t, err)
	assert.Empty(t, f.test.Calls)
}

func TestSyncAll_IsolatesFailures(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 2})
	a := f.provisioned(t, "ws-a", false, nil, false)
	b := f.provisioned(t, "ws-b", false, nil, false)
	f.provisioned(t, "ws-c", true, nil, false)
	f.createWorkspace(t, "ws-bare", false, nil)

	// Drift ws-a off the catalog; break ws-b's subscription lookup.
	f.test.Subscriptions[*a.SubscriptionID].Items.Data = f.test.Subscriptions[*a.SubscriptionID].Items.Data[1:]
	f.test.Errors["GetSubscription:"+*b.SubscriptionID] = errors.New("boom")

	results, err := f.svc.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	byID := map[string]SyncResult{}
	for _, r := range results {
		byID[r.WorkspaceID] = r
	}
	assert.Equal(t, 1, byID["ws-a"].Added)
	assert.Empty(t, byID["ws-a"].Error)
	assert.Contains(t, byID["ws-b"].Error, "boom")
	assert.Empty(t, byID["ws-c"].Error)
	assert.Zero(t, byID["ws-c"].Added)
}

func TestVersionConflict(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-1", false, nil)

	stale, err := f.svc.Workspace(context.Background(), "ws-1")
	require.NoError(t, err)

	_, err = f.svc.UpdateTier(context.Background(), "ws-1", plans.TierPtr(plans.TierBasic))
	require.NoError(t, err)

	err = f.svc.updateWorkspace(context.Background(), stale, map[string]interface{}{"tier": "Enterprise"})
	require.ErrorIs(t, err, ErrVersionConflict)

	fresh, err := f.svc.Workspace(context.Background(), "ws-1")
	require.NoError(t, err)
	assert.Equal(t, plans.TierBasic, *fresh.Tier)
}
