// Package stripetest provides an in-memory payment provider for tests.
package stripetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v75"

	stripeinfra "billing-service/internal/infra/stripe"
)

var _ stripeinfra.Provider = (*Fake)(nil)

// Fake implements stripe.Provider in memory. It honours idempotency keys on
// customer, subscription and usage-record creation the way the hosted API
// does. Errors can be injected per method ("GetSubscription") or per method
// and resource id ("GetSubscription:sub_2").
type Fake struct {
	mu   sync.Mutex
	seq  int
	mode string

	Now func() time.Time

	Customers      map[string]*stripe.Customer
	Subscriptions  map[string]*stripe.Subscription
	UsageRecords   []*stripe.UsageRecord
	Invoices       map[string][]*stripe.Invoice
	PaymentMethods map[string]int

	// SubscriptionUpdates keeps the params of every UpdateSubscription call.
	SubscriptionUpdates map[string][]*stripe.SubscriptionParams
	DiscountDeletes     []string
	Calls               []string

	Errors map[string]error

	idempotent map[string]any
}

// New returns an empty Fake. mode is embedded in every generated id
// ("cus_test_1"), so a test-mode and a live-mode fake never hand out the
// same id.
func New(mode string) *Fake {
	return &Fake{
		mode:                mode,
		Now:                 time.Now,
		Customers:           map[string]*stripe.Customer{},
		Subscriptions:       map[string]*stripe.Subscription{},
		Invoices:            map[string][]*stripe.Invoice{},
		PaymentMethods:      map[string]int{},
		SubscriptionUpdates: map[string][]*stripe.SubscriptionParams{},
		Errors:              map[string]error{},
		idempotent:          map[string]any{},
	}
}

func (f *Fake) nextID(prefix string) string {
	f.seq++
	if f.mode == "" {
		return fmt.Sprintf("%s_%d", prefix, f.seq)
	}
	return fmt.Sprintf("%s_%s_%d", prefix, f.mode, f.seq)
}

func (f *Fake) fail(method, id string) error {
	f.Calls = append(f.Calls, method)
	if err, ok := f.Errors[method+":"+id]; ok {
		return err
	}
	return f.Errors[method]
}

func idempotencyKey(method string, p stripe.Params) string {
	if p.IdempotencyKey == nil {
		return ""
	}
	return method + ":" + *p.IdempotencyKey
}

// CallCount returns how many times method was invoked.
func (f *Fake) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *Fake) CreateCustomer(_ context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateCustomer", ""); err != nil {
		return nil, err
	}
	key := idempotencyKey("CreateCustomer", params.Params)
	if prev, ok := f.idempotent[key]; ok && key != "" {
		return prev.(*stripe.Customer), nil
	}

	cus := &stripe.Customer{ID: f.nextID("cus"), Metadata: params.Metadata}
	if params.Coupon != nil {
		cus.Discount = &stripe.Discount{Coupon: &stripe.Coupon{ID: *params.Coupon}}
	}
	f.Customers[cus.ID] = cus
	if key != "" {
		f.idempotent[key] = cus
	}
	return cus, nil
}

func (f *Fake) UpdateCustomer(_ context.Context, id string, params *stripe.CustomerParams) (*stripe.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateCustomer", id); err != nil {
		return nil, err
	}
	cus, ok := f.Customers[id]
	if !ok {
		return nil, missing("customer", id)
	}
	if params.Coupon != nil {
		cus.Discount = &stripe.Discount{Coupon: &stripe.Coupon{ID: *params.Coupon}}
	}
	return cus, nil
}

func (f *Fake) DeleteCustomer(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteCustomer", id); err != nil {
		return err
	}
	if _, ok := f.Customers[id]; !ok {
		return missing("customer", id)
	}
	delete(f.Customers, id)
	return nil
}

func (f *Fake) DeleteCustomerDiscount(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteCustomerDiscount", customerID); err != nil {
		return err
	}
	if cus, ok := f.Customers[customerID]; ok {
		cus.Discount = nil
	}
	f.DiscountDeletes = append(f.DiscountDeletes, customerID)
	return nil
}

func (f *Fake) CreateSubscription(_ context.Context, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateSubscription", ""); err != nil {
		return nil, err
	}
	key := idempotencyKey("CreateSubscription", params.Params)
	if prev, ok := f.idempotent[key]; ok && key != "" {
		return prev.(*stripe.Subscription), nil
	}

	sub := &stripe.Subscription{
		ID:                 f.nextID("sub"),
		Status:             stripe.SubscriptionStatusActive,
		Metadata:           params.Metadata,
		CurrentPeriodStart: f.Now().Unix(),
		Items:              &stripe.SubscriptionItemList{},
	}
	if params.Customer != nil {
		sub.Customer = &stripe.Customer{ID: *params.Customer}
	}
	if params.BillingThresholds != nil && params.BillingThresholds.AmountGTE != nil {
		sub.BillingThresholds = &stripe.SubscriptionBillingThresholds{AmountGTE: *params.BillingThresholds.AmountGTE}
	}
	for _, item := range params.Items {
		sub.Items.Data = append(sub.Items.Data, f.newItem(sub.ID, item))
	}
	f.Subscriptions[sub.ID] = sub
	if key != "" {
		f.idempotent[key] = sub
	}
	return sub, nil
}

func (f *Fake) newItem(subID string, p *stripe.SubscriptionItemsParams) *stripe.SubscriptionItem {
	item := &stripe.SubscriptionItem{
		ID:           f.nextID("si"),
		Subscription: subID,
		Metadata:     p.Metadata,
	}
	if p.Price != nil {
		item.Price = &stripe.Price{ID: *p.Price}
	}
	return item
}

// AddSubscription stores sub as-is, for tests that need a specific shape.
func (f *Fake) AddSubscription(sub *stripe.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub.Items == nil {
		sub.Items = &stripe.SubscriptionItemList{}
	}
	f.Subscriptions[sub.ID] = sub
}

func (f *Fake) GetSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetSubscription", id); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[id]
	if !ok {
		return nil, missing("subscription", id)
	}
	return sub, nil
}

func (f *Fake) UpdateSubscription(_ context.Context, id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateSubscription", id); err != nil {
		return nil, err
	}
	sub, ok := f.Subscriptions[id]
	if !ok {
		return nil, missing("subscription", id)
	}
	f.SubscriptionUpdates[id] = append(f.SubscriptionUpdates[id], params)

	if params.BillingThresholds != nil && params.BillingThresholds.AmountGTE != nil {
		sub.BillingThresholds = &stripe.SubscriptionBillingThresholds{AmountGTE: *params.BillingThresholds.AmountGTE}
	}
	for _, p := range params.Items {
		switch {
		case p.Deleted != nil && *p.Deleted && p.ID != nil:
			kept := sub.Items.Data[:0]
			for _, item := range sub.Items.Data {
				if item.ID != *p.ID {
					kept = append(kept, item)
				}
			}
			sub.Items.Data = kept
		case p.ID == nil:
			sub.Items.Data = append(sub.Items.Data, f.newItem(sub.ID, p))
		}
	}
	return sub, nil
}

func (f *Fake) CancelSubscription(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CancelSubscription", id); err != nil {
		return err
	}
	if sub, ok := f.Subscriptions[id]; ok {
		sub.Status = stripe.SubscriptionStatusCanceled
	}
	return nil
}

func (f *Fake) ListActiveSubscriptions(_ context.Context, customerID string) ([]*stripe.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListActiveSubscriptions", customerID); err != nil {
		return nil, err
	}
	var subs []*stripe.Subscription
	for _, sub := range f.Subscriptions {
		if sub.Customer != nil && sub.Customer.ID == customerID && sub.Status == stripe.SubscriptionStatusActive {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (f *Fake) CreateUsageRecord(_ context.Context, params *stripe.UsageRecordParams) (*stripe.UsageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateUsageRecord", ""); err != nil {
		return nil, err
	}
	key := idempotencyKey("CreateUsageRecord", params.Params)
	if prev, ok := f.idempotent[key]; ok && key != "" {
		return prev.(*stripe.UsageRecord), nil
	}

	rec := &stripe.UsageRecord{ID: f.nextID("mbur")}
	if params.SubscriptionItem != nil {
		rec.SubscriptionItem = *params.SubscriptionItem
	}
	if params.Quantity != nil {
		rec.Quantity = *params.Quantity
	}
	if params.Timestamp != nil {
		rec.Timestamp = *params.Timestamp
	}
	f.UsageRecords = append(f.UsageRecords, rec)
	if key != "" {
		f.idempotent[key] = rec
	}
	return rec, nil
}

func (f *Fake) ListInvoices(_ context.Context, subscriptionID, status string, limit int) ([]*stripe.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListInvoices", subscriptionID); err != nil {
		return nil, err
	}
	var out []*stripe.Invoice
	for _, inv := range f.Invoices[subscriptionID] {
		if status != "" && string(inv.Status) != status {
			continue
		}
		out = append(out, inv)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *Fake) UpcomingInvoice(_ context.Context, subscriptionID string) (*stripe.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpcomingInvoice", subscriptionID); err != nil {
		return nil, err
	}
	return &stripe.Invoice{ID: "upcoming_" + subscriptionID, Status: stripe.InvoiceStatusDraft}, nil
}

func (f *Fake) PayInvoice(_ context.Context, id string) (*stripe.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("PayInvoice", id); err != nil {
		return nil, err
	}
	for _, invoices := range f.Invoices {
		for _, inv := range invoices {
			if inv.ID == id {
				inv.Status = stripe.InvoiceStatusPaid
				inv.Paid = true
				return inv, nil
			}
		}
	}
	return nil, missing("invoice", id)
}

func (f *Fake) GetCoupon(_ context.Context, id string) (*stripe.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetCoupon", id); err != nil {
		return nil, err
	}
	return &stripe.Coupon{ID: id, Valid: true}, nil
}

func (f *Fake) HasPaymentMethod(_ context.Context, customerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("HasPaymentMethod", customerID); err != nil {
		return false, err
	}
	return f.PaymentMethods[customerID] > 0, nil
}

func missing(kind, id string) error {
	return &stripe.Error{
		HTTPStatusCode: 404,
		Code:           stripe.ErrorCodeResourceMissing,
		Msg:            fmt.Sprintf("No such %s: '%s'", kind, id),
	}
}
