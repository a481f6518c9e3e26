package workspaces

import (
	"time"

	"billing-service/internal/domain/plans"
)

// Workspace is the billed tenant. ConsumerID and SubscriptionID are written
// together by provisioning and cleared together by reset.
type Workspace struct {
	ID          string  `gorm:"primaryKey;type:text"`
	DisplayName *string `gorm:"column:display_name"`

	ConsumerID     *string     `gorm:"column:consumer_id;uniqueIndex:idx_workspaces_consumer_id"`
	SubscriptionID *string     `gorm:"column:subscription_id;uniqueIndex:idx_workspaces_subscription_id"`
	CouponID       *string     `gorm:"column:coupon_id"`
	Tier           *plans.Tier `gorm:"column:tier;type:text"`
	Chargeable     bool        `gorm:"column:chargeable;not null;default:false"`

	// Mirrors the provider subscription status verbatim.
	Status                *string `gorm:"column:status;index"`
	PaymentMethodAttached bool    `gorm:"column:payment_method_attached;not null;default:false"`

	// Optimistic concurrency token, bumped on every guarded write.
	Version int64 `gorm:"column:version;not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Workspace) TableName() string {
	return "workspaces"
}

// Provisioned reports whether the workspace has a provider customer and
// subscription.
func (w *Workspace) Provisioned() bool {
	return w.ConsumerID != nil && *w.ConsumerID != "" &&
		w.SubscriptionID != nil && *w.SubscriptionID != ""
}

const StatusActive = "active"
