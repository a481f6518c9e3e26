// Package reconcile keeps workspace billing state in the store and the
// payment provider in agreement: it provisions subscriptions, diffs their
// items against the catalog, reports metered usage and runs the coupon sweep.
package reconcile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	stripeinfra "billing-service/internal/infra/stripe"
)

var (
	ErrWorkspaceNotFound   = errors.New("workspace not found")
	ErrNoSubscription      = errors.New("workspace has no subscription")
	ErrNoSubscriptionItem  = errors.New("no subscription shape matched")
	ErrNoUnpaidInvoice     = errors.New("workspace has no unpaid invoice")
	ErrAlreadyProvisioned  = errors.New("workspace already has a subscription")
	ErrVersionConflict     = errors.New("workspace was modified concurrently")
	ErrUnknownTier         = errors.New("unknown tier")
	ErrUnknownCoupon       = errors.New("unknown coupon")
	ErrUnknownShape        = errors.New("unknown shape")
	ErrNoWorkspaceMetadata = errors.New("subscription carries no workspace_id metadata")
	ErrSweepInProgress     = errors.New("coupon sweep already running")
	ErrStaleSubscription   = errors.New("subscription is no longer the workspace's current one")
)

// IsPrecondition reports whether err means an expected row or relationship
// is absent. Callers should not retry these blindly.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound) ||
		errors.Is(err, ErrNoSubscription) ||
		errors.Is(err, ErrNoSubscriptionItem) ||
		errors.Is(err, ErrNoUnpaidInvoice) ||
		errors.Is(err, ErrAlreadyProvisioned)
}

// Locker serialises runs of a job across processes.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Options struct {
	// Concurrency bounds the fan-out of batch jobs.
	Concurrency int
	// ThresholdCents is the auto-invoice threshold for customers without a
	// payment method; ThresholdWithPaymentCents applies once one is attached.
	ThresholdCents            int64
	ThresholdWithPaymentCents int64
	// Locker is optional. Without it sweeps are not serialised.
	Locker Locker
	Now    func() time.Time
}

type Service struct {
	db      *gorm.DB
	clients *stripeinfra.Registry
	log     *zap.Logger

	concurrency               int
	thresholdCents            int64
	thresholdWithPaymentCents int64
	locker                    Locker
	nowFn                     func() time.Time
}

func New(db *gorm.DB, clients *stripeinfra.Registry, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		db:                        db,
		clients:                   clients,
		log:                       log.Named("reconcile"),
		concurrency:               opts.Concurrency,
		thresholdCents:            opts.ThresholdCents,
		thresholdWithPaymentCents: opts.ThresholdWithPaymentCents,
		locker:                    opts.Locker,
		nowFn:                     opts.Now,
	}
	if s.concurrency <= 0 {
		s.concurrency = 8
	}
	if s.thresholdCents <= 0 {
		s.thresholdCents = 50
	}
	if s.thresholdWithPaymentCents <= 0 {
		s.thresholdWithPaymentCents = 5000
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	return s
}
