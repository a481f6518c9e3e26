package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Provider is the subset of the payment provider API the billing service
// uses. One Provider is bound to one set of credentials (test or live).
type Provider interface {
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
	UpdateCustomer(ctx context.Context, id string, params *stripe.CustomerParams) (*stripe.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	// DeleteCustomerDiscount succeeds when the customer has no discount.
	DeleteCustomerDiscount(ctx context.Context, customerID string) error

	CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, id string) error
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)

	CreateUsageRecord(ctx context.Context, params *stripe.UsageRecordParams) (*stripe.UsageRecord, error)

	// ListInvoices returns at most limit invoices; limit <= 0 means all.
	ListInvoices(ctx context.Context, subscriptionID, status string, limit int) ([]*stripe.Invoice, error)
	UpcomingInvoice(ctx context.Context, subscriptionID string) (*stripe.Invoice, error)
	PayInvoice(ctx context.Context, id string) (*stripe.Invoice, error)

	GetCoupon(ctx context.Context, id string) (*stripe.Coupon, error)
	HasPaymentMethod(ctx context.Context, customerID string) (bool, error)
}

type apiProvider struct {
	api *client.API
}

// NewProvider returns a Provider backed by the hosted API using key.
func NewProvider(key string) Provider {
	return &apiProvider{api: client.New(key, nil)}
}

func (p *apiProvider) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return p.api.Customers.New(params)
}

func (p *apiProvider) UpdateCustomer(ctx context.Context, id string, params *stripe.CustomerParams) (*stripe.Customer, error) {
	params.Context = ctx
	return p.api.Customers.Update(id, params)
}

func (p *apiProvider) DeleteCustomer(ctx context.Context, id string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	_, err := p.api.Customers.Del(id, params)
	return err
}

func (p *apiProvider) DeleteCustomerDiscount(ctx context.Context, customerID string) error {
	params := &stripe.CustomerDeleteDiscountParams{}
	params.Context = ctx
	_, err := p.api.Customers.DeleteDiscount(customerID, params)
	if IsResourceMissing(err) {
		return nil
	}
	return err
}

func (p *apiProvider) CreateSubscription(ctx context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	params.Context = ctx
	return p.api.Subscriptions.New(params)
}

func (p *apiProvider) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	return p.api.Subscriptions.Get(id, params)
}

func (p *apiProvider) UpdateSubscription(ctx context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	params.Context = ctx
	return p.api.Subscriptions.Update(id, params)
}

func (p *apiProvider) CancelSubscription(ctx context.Context, id string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	_, err := p.api.Subscriptions.Cancel(id, params)
	if IsResourceMissing(err) {
		return nil
	}
	return err
}

func (p *apiProvider) ListActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	var subs []*stripe.Subscription
	it := p.api.Subscriptions.List(params)
	for it.Next() {
		subs = append(subs, it.Subscription())
	}
	return subs, it.Err()
}

func (p *apiProvider) CreateUsageRecord(ctx context.Context, params *stripe.UsageRecordParams) (*stripe.UsageRecord, error) {
	params.Context = ctx
	return p.api.UsageRecords.New(params)
}

func (p *apiProvider) ListInvoices(ctx context.Context, subscriptionID, status string, limit int) ([]*stripe.Invoice, error) {
	params := &stripe.InvoiceListParams{
		Subscription: stripe.String(subscriptionID),
	}
	if status != "" {
		params.Status = stripe.String(status)
	}
	if limit > 0 {
		params.Limit = stripe.Int64(int64(limit))
	}
	params.Context = ctx

	var invoices []*stripe.Invoice
	it := p.api.Invoices.List(params)
	for it.Next() {
		invoices = append(invoices, it.Invoice())
		if limit > 0 && len(invoices) >= limit {
			break
		}
	}
	return invoices, it.Err()
}

func (p *apiProvider) UpcomingInvoice(ctx context.Context, subscriptionID string) (*stripe.Invoice, error) {
	params := &stripe.InvoiceUpcomingParams{
		Subscription: stripe.String(subscriptionID),
	}
	params.Context = ctx
	return p.api.Invoices.Upcoming(params)
}

func (p *apiProvider) PayInvoice(ctx context.Context, id string) (*stripe.Invoice, error) {
	params := &stripe.InvoicePayParams{}
	params.Context = ctx
	return p.api.Invoices.Pay(id, params)
}

func (p *apiProvider) GetCoupon(ctx context.Context, id string) (*stripe.Coupon, error) {
	params := &stripe.CouponParams{}
	params.Context = ctx
	return p.api.Coupons.Get(id, params)
}

func (p *apiProvider) HasPaymentMethod(ctx context.Context, customerID string) (bool, error) {
	params := &stripe.PaymentMethodListParams{
		Customer: stripe.String(customerID),
	}
	params.Limit = stripe.Int64(1)
	params.Context = ctx

	it := p.api.PaymentMethods.List(params)
	found := it.Next()
	if err := it.Err(); err != nil {
		return false, err
	}
	return found, nil
}

// IsResourceMissing reports whether err is the provider's 404 for an unknown id.
func IsResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}
