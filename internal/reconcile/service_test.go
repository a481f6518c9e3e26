package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"billing-service/database/dbtest"
	"billing-service/internal/domain/plans"
	"billing-service/internal/domain/workspaces"
	stripeinfra "billing-service/internal/infra/stripe"
	"billing-service/internal/infra/stripe/stripetest"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	db   *gorm.DB
	test *stripetest.Fake
	live *stripetest.Fake
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		db:   dbtest.Open(t),
		test: stripetest.New("test"),
		live: stripetest.New("live"),
	}
	clock := func() time.Time { return testNow }
	f.test.Now = clock
	f.live.Now = clock
	if opts.Now == nil {
		opts.Now = clock
	}

	f.svc = New(f.db, &stripeinfra.Registry{Test: f.test, Live: f.live}, zap.NewNop(), opts)
	return f
}

func (f *fixture) createWorkspace(t *testing.T, id string, chargeable bool, tier *plans.Tier) *workspaces.Workspace {
	t.Helper()
	ws := &workspaces.Workspace{ID: id, Chargeable: chargeable, Tier: tier}
	require.NoError(t, f.db.Create(ws).Error)
	return ws
}

// provisioned creates and sets up a workspace, optionally marking it active.
func (f *fixture) provisioned(t *testing.T, id string, chargeable bool, tier *plans.Tier, active bool) *workspaces.Workspace {
	t.Helper()
	f.createWorkspace(t, id, chargeable, tier)
	_, err := f.svc.Setup(context.Background(), id)
	require.NoError(t, err)
	if active {
		require.NoError(t, f.db.Model(&workspaces.Workspace{}).
			Where("id = ?", id).
			Update("status", workspaces.StatusActive).Error)
	}
	ws, err := f.svc.Workspace(context.Background(), id)
	require.NoError(t, err)
	return ws
}

func (f *fixture) provider(chargeable bool) *stripetest.Fake {
	if chargeable {
		return f.live
	}
	return f.test
}
