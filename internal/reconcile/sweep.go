package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"billing-service/internal/domain/workspaces"
)

const (
	sweepLockKey = "billing:sweep:coupons"
	sweepLockTTL = 10 * time.Minute
)

type SweepOutcome string

const (
	SweepGranted SweepOutcome = "granted"
	SweepExpired SweepOutcome = "expired"
	SweepSkipped SweepOutcome = "skipped"
	SweepFailed  SweepOutcome = "failed"
)

// SweepResult is the outcome for one workspace.
type SweepResult struct {
	WorkspaceID string       `json:"workspace_id"`
	Outcome     SweepOutcome `json:"outcome"`
	Error       string       `json:"error,omitempty"`
}

// SweepReport groups workspace ids by outcome.
type SweepReport struct {
	Granted []string      `json:"granted"`
	Expired []string      `json:"expired"`
	Skipped []string      `json:"skipped"`
	Failed  []SweepResult `json:"failed"`
}

// SweepCoupons runs the monthly credit renewal over active workspaces. A
// workspace whose billing period started today gets its coupon re-applied,
// or its customer discount removed when it no longer holds one. One
// workspace failing does not affect the others.
func (s *Service) SweepCoupons(ctx context.Context) (*SweepReport, error) {
	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, sweepLockKey, sweepLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrSweepInProgress
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), sweepLockKey, token); err != nil {
				s.log.Warn("release sweep lock", zap.Error(err))
			}
		}()
	}

	list, err := s.provisionedWorkspaces(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", workspaces.StatusActive)
	})
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(list))
	errs := forEach(ctx, s.concurrency, list, func(ctx context.Context, i int, ws workspaces.Workspace) error {
		outcome, err := s.sweepOne(ctx, &ws)
		results[i] = SweepResult{WorkspaceID: ws.ID, Outcome: outcome}
		return err
	})

	report := &SweepReport{
		Granted: []string{},
		Expired: []string{},
		Skipped: []string{},
		Failed:  []SweepResult{},
	}
	for i, res := range results {
		if errs[i] != nil {
			res.WorkspaceID = list[i].ID
			res.Outcome = SweepFailed
			res.Error = errs[i].Error()
			s.log.Warn("coupon sweep failed for workspace",
				zap.String("workspace_id", res.WorkspaceID),
				zap.Error(errs[i]),
			)
		}
		sweepOutcomesTotal.WithLabelValues(string(res.Outcome)).Inc()
		switch res.Outcome {
		case SweepGranted:
			report.Granted = append(report.Granted, res.WorkspaceID)
		case SweepExpired:
			report.Expired = append(report.Expired, res.WorkspaceID)
		case SweepSkipped:
			report.Skipped = append(report.Skipped, res.WorkspaceID)
		default:
			report.Failed = append(report.Failed, res)
		}
	}

	s.log.Info("coupon sweep finished",
		zap.Int("candidates", len(list)),
		zap.Int("granted", len(report.Granted)),
		zap.Int("expired", len(report.Expired)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func (s *Service) sweepOne(ctx context.Context, ws *workspaces.Workspace) (SweepOutcome, error) {
	client := s.clients.For(ws.Chargeable)
	sub, err := client.GetSubscription(ctx, *ws.SubscriptionID)
	if err != nil {
		return SweepFailed, fmt.Errorf("get subscription: %w", err)
	}
	if !sameUTCDay(time.Unix(sub.CurrentPeriodStart, 0), s.nowFn()) {
		return SweepSkipped, nil
	}

	if ws.CouponID != nil && *ws.CouponID != "" {
		params := &stripe.CustomerParams{Coupon: stripe.String(*ws.CouponID)}
		if _, err := client.UpdateCustomer(ctx, *ws.ConsumerID, params); err != nil {
			return SweepFailed, fmt.Errorf("apply coupon %s: %w", *ws.CouponID, err)
		}
		return SweepGranted, nil
	}

	if err := client.DeleteCustomerDiscount(ctx, *ws.ConsumerID); err != nil {
		return SweepFailed, fmt.Errorf("delete discount: %w", err)
	}
	return SweepExpired, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
