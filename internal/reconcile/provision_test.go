package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-service/internal/domain/plans"
)

func TestSetup_CreatesCustomerAndSubscription(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-1", false, plans.TierPtr(plans.TierStandard))

	out, err := f.svc.Setup(context.Background(), "ws-1")
	require.NoError(t, err)

	assert.Equal(t, "credit-10-test", out.CouponID)
	assert.False(t, out.Chargeable)

	cus := f.test.Customers[out.ConsumerID]
	require.NotNil(t, cus)
	assert.Equal(t, "ws-1", cus.Metadata[plans.MetadataWorkspaceID])
	require.NotNil(t, cus.Discount)
	assert.Equal(t, "credit-10-test", cus.Discount.Coupon.ID)

	sub := f.test.Subscriptions[out.SubscriptionID]
	require.NotNil(t, sub)
	assert.Equal(t, "ws-1", sub.Metadata[plans.MetadataWorkspaceID])
	assert.Equal(t, int64(50), sub.BillingThresholds.AmountGTE)
	require.Len(t, sub.Items.Data, 7)
	last := sub.Items.Data[6]
	assert.Equal(t, "price_test_tier_standard", last.Price.ID)
	assert.Equal(t, "Standard", last.Metadata[plans.MetadataTier])

	ws, err := f.svc.Workspace(context.Background(), "ws-1")
	require.NoError(t, err)
	require.NotNil(t, ws.ConsumerID)
	require.NotNil(t, ws.SubscriptionID)
	assert.Equal(t, out.ConsumerID, *ws.ConsumerID)
	assert.Equal(t, out.SubscriptionID, *ws.SubscriptionID)
	assert.Equal(t, "credit-10-test", *ws.CouponID)
	assert.Equal(t, int64(1), ws.Version)

	assert.Zero(t, f.live.CallCount("CreateCustomer"))
}

func TestSetup_ChargeableUsesLiveClient(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-live", true, nil)

	out, err := f.svc.Setup(context.Background(), "ws-live")
	require.NoError(t, err)

	assert.True(t, out.Chargeable)
	assert.Equal(t, "credit-10", out.CouponID)
	assert.Equal(t, 1, f.live.CallCount("CreateSubscription"))
	assert.Zero(t, f.test.CallCount("CreateSubscription"))

	sub := f.live.Subscriptions[out.SubscriptionID]
	require.Len(t, sub.Items.Data, 6)
	for _, item := range sub.Items.Data {
		assert.Contains(t, item.Price.ID, "price_live_")
		assert.Empty(t, item.Metadata[plans.MetadataTier])
	}
}

func TestSetup_AlreadyProvisioned(t *testing.T) {
	f := newFixture(t, Options{})
	f.provisioned(t, "ws-1", false, nil, false)

	_, err := f.svc.Setup(context.Background(), "ws-1")
	require.ErrorIs(t, err, ErrAlreadyProvisioned)
	assert.True(t, IsPrecondition(err))
	assert.Equal(t, 1, f.test.CallCount("CreateCustomer"))
}

func TestSetup_MissingWorkspace(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.svc.Setup(context.Background(), "nope")
	require.ErrorIs(t, err, ErrWorkspaceNotFound)
	assert.Empty(t, f.test.Calls)
}

func TestSetup_RetryReusesProviderObjects(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-1", false, nil)

	f.test.Errors["CreateSubscription"] = errors.New("network down")
	_, err := f.svc.Setup(context.Background(), "ws-1")
	require.Error(t, err)
	delete(f.test.Errors, "CreateSubscription")

	out, err := f.svc.Setup(context.Background(), "ws-1")
	require.NoError(t, err)

	assert.Equal(t, 2, f.test.CallCount("CreateCustomer"))
	assert.Len(t, f.test.Customers, 1, "retry must not create a second customer")
	assert.Contains(t, f.test.Customers, out.ConsumerID)
}

func TestSetup_MixedModesGetDistinctIDs(t *testing.T) {
	f := newFixture(t, Options{})
	f.createWorkspace(t, "ws-test", false, nil)
	f.createWorkspace(t, "ws-live", true, nil)

	a, err := f.svc.Setup(context.Background(), "ws-test")
	require.NoError(t, err)
	b, err := f.svc.Setup(context.Background(), "ws-live")
	require.NoError(t, err)

	assert.NotEqual(t, a.ConsumerID, b.ConsumerID)
	assert.NotEqual(t, a.SubscriptionID, b.SubscriptionID)
	assert.Contains(t, f.test.Customers, a.ConsumerID)
	assert.Contains(t, f.live.Customers, b.ConsumerID)
}
