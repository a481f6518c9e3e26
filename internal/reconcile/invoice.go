package reconcile

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v75"
	"go.uber.org/zap"

	"billing-service/internal/domain/access"
	"billing-service/internal/domain/plans"
)

// Period is a billing period in Unix milliseconds.
type Period struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// InvoiceSummary is what the dashboard shows on the billing page.
type InvoiceSummary struct {
	Open          *stripe.Invoice   `json:"open"`
	Upcoming      *stripe.Invoice   `json:"upcoming"`
	List          []*stripe.Invoice `json:"list"`
	Coupon        *stripe.Coupon    `json:"coupon"`
	CurrentPeriod Period            `json:"current_period"`
	Catalog       []plans.Item      `json:"catalog"`
	Access        access.State      `json:"access"`
}

// Invoice collects the workspace's invoices, coupon and current period.
func (s *Service) Invoice(ctx context.Context, workspaceID string) (*InvoiceSummary, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.SubscriptionID == nil || *ws.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSubscription, ws.ID)
	}
	subID := *ws.SubscriptionID
	client := s.clients.For(ws.Chargeable)

	out := &InvoiceSummary{
		Catalog: plans.ResolveCatalogItems(ws.Chargeable, ws.Tier),
		Access:  access.ForWorkspace(*ws),
	}

	open, err := client.ListInvoices(ctx, subID, string(stripe.InvoiceStatusOpen), 1)
	if err != nil {
		return nil, fmt.Errorf("list open invoices: %w", err)
	}
	if len(open) > 0 {
		out.Open = open[0]
	}

	if ws.CouponID != nil && *ws.CouponID != "" {
		coupon, err := client.GetCoupon(ctx, *ws.CouponID)
		if err != nil {
			return nil, fmt.Errorf("get coupon: %w", err)
		}
		out.Coupon = coupon
	}

	if out.List, err = client.ListInvoices(ctx, subID, "", 0); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	if out.List == nil {
		out.List = []*stripe.Invoice{}
	}

	sub, err := client.GetSubscription(ctx, subID)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	out.CurrentPeriod = Period{
		Start: sub.CurrentPeriodStart * 1000,
		End:   sub.CurrentPeriodEnd * 1000,
	}

	if out.Upcoming, err = client.UpcomingInvoice(ctx, subID); err != nil {
		return nil, fmt.Errorf("upcoming invoice: %w", err)
	}
	return out, nil
}

// PayOpenInvoice pays the first open invoice, falling back to the first
// uncollectible one.
func (s *Service) PayOpenInvoice(ctx context.Context, workspaceID string) (*stripe.Invoice, error) {
	ws, err := s.loadWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.SubscriptionID == nil || *ws.SubscriptionID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSubscription, ws.ID)
	}
	client := s.clients.For(ws.Chargeable)

	var target *stripe.Invoice
	for _, status := range []stripe.InvoiceStatus{stripe.InvoiceStatusOpen, stripe.InvoiceStatusUncollectible} {
		list, err := client.ListInvoices(ctx, *ws.SubscriptionID, string(status), 1)
		if err != nil {
			return nil, fmt.Errorf("list %s invoices: %w", status, err)
		}
		if len(list) > 0 {
			target = list[0]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoUnpaidInvoice, ws.ID)
	}

	paid, err := client.PayInvoice(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("pay invoice %s: %w", target.ID, err)
	}
	s.log.Info("invoice paid",
		zap.String("workspace_id", ws.ID),
		zap.String("invoice_id", paid.ID),
	)
	return paid, nil
}
