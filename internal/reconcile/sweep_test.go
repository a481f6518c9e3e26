package reconcile

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-service/internal/domain/workspaces"
)

type stubLocker struct {
	held     bool
	released []string
}

func (l *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if l.held {
		return "", false, nil
	}
	l.held = true
	return "token-" + key, true, nil
}

func (l *stubLocker) Release(_ context.Context, _ string, token string) error {
	l.held = false
	l.released = append(l.released, token)
	return nil
}

func TestSweepCoupons_Outcomes(t *testing.T) {
	f := newFixture(t, Options{Concurrency: 3})

	granted := f.provisioned(t, "ws-granted", false, nil, true)
	expired := f.provisioned(t, "ws-expired", false, nil, true)
	skipped := f.provisioned(t, "ws-skipped", false, nil, true)
	failed := f.provisioned(t, "ws-failed", true, nil, true)
	pastDue := f.provisioned(t, "ws-past-due", false, nil, false)
	f.createWorkspace(t, "ws-bare", false, nil)

	require.NoError(t, f.db.Model(&workspaces.Workspace{}).
		Where("id = ?", expired.ID).Update("coupon_id", nil).Error)
	require.NoError(t, f.db.Model(&workspaces.Workspace{}).
		Where("id = ?", pastDue.ID).Update("status", "past_due").Error)
	f.test.Subscriptions[*skipped.SubscriptionID].CurrentPeriodStart = testNow.AddDate(0, 0, -1).Unix()
	f.live.Errors["GetSubscription:"+*failed.SubscriptionID] = errors.New("provider unavailable")

	// Drop the granted customer's discount so re-application is visible.
	f.test.Customers[*granted.ConsumerID].Discount = nil

	report, err := f.svc.SweepCoupons(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ws-granted"}, report.Granted)
	assert.Equal(t, []string{"ws-expired"}, report.Expired)
	assert.Equal(t, []string{"ws-skipped"}, report.Skipped)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "ws-failed", report.Failed[0].WorkspaceID)
	assert.Equal(t, SweepFailed, report.Failed[0].Outcome)
	assert.Contains(t, report.Failed[0].Error, "provider unavailable")

	cus := f.test.Customers[*granted.ConsumerID]
	require.NotNil(t, cus.Discount)
	assert.Equal(t, "credit-10-test", cus.Discount.Coupon.ID)

	assert.Equal(t, []string{*expired.ConsumerID}, f.test.DiscountDeletes)
	assert.Nil(t, f.test.Customers[*expired.ConsumerID].Discount)
}

func TestSweepCoupons_PeriodBoundaryUsesUTCDate(t *testing.T) {
	late := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
	f := newFixture(t, Options{Now: func() time.Time { return late }})
	ws := f.provisioned(t, "ws-1", false, nil, true)

	// 00:30 on the same UTC day counts, regardless of local offset.
	f.test.Subscriptions[*ws.SubscriptionID].CurrentPeriodStart = time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC).Unix()

	report, err := f.svc.SweepCoupons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ws-1"}, report.Granted)
}

func TestSweepCoupons_LockHeld(t *testing.T) {
	locker := &stubLocker{held: true}
	f := newFixture(t, Options{Locker: locker})
	f.provisioned(t, "ws-1", false, nil, true)

	_, err := f.svc.SweepCoupons(context.Background())
	require.ErrorIs(t, err, ErrSweepInProgress)
	assert.Zero(t, f.test.CallCount("UpdateCustomer"))
}

func TestSweepCoupons_ReleasesLock(t *testing.T) {
	locker := &stubLocker{}
	f := newFixture(t, Options{Locker: locker})
	for _, id := range []string{"ws-b", "ws-a"} {
		f.provisioned(t, id, false, nil, true)
	}

	report, err := f.svc.SweepCoupons(context.Background())
	require.NoError(t, err)

	got := append([]string{}, report.Granted...)
	sort.Strings(got)
	assert.Equal(t, []string{"ws-a", "ws-b"}, got)
	assert.False(t, locker.held)
	assert.Equal(t, []string{"token-" + sweepLockKey}, locker.released)
}

func TestSweepCoupons_NoCandidates(t *testing.T) {
	f := newFixture(t, Options{})

	report, err := f.svc.SweepCoupons(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Granted)
	assert.NotNil(t, report.Failed)
	assert.Empty(t, f.test.Calls)
}
