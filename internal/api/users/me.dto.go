package users

import "time"

type MeResponse struct {
	User       UserDTO        `json:"user"`
	Workspaces []WorkspaceDTO `json:"workspaces"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

/* ---------- WORKSPACE ---------- */

type WorkspaceDTO struct {
	ID          string     `json:"id"`
	DisplayName *string    `json:"display_name"`
	Billing     BillingDTO `json:"billing"`
	Access      AccessDTO  `json:"access"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Chargeable   bool             `json:"chargeable"`
	Tier         *string          `json:"tier"`
	CouponID     *string          `json:"coupon_id"`
	Subscription *SubscriptionDTO `json:"subscription"`
}

type SubscriptionDTO struct {
	Status                string    `json:"status"`
	RawStatus             *string   `json:"raw_status"`
	ConsumerID            *string   `json:"consumer_id"`
	SubscriptionID        *string   `json:"subscription_id"`
	PaymentMethodAttached bool      `json:"payment_method_attached"`
	UpdatedAt             time.Time `json:"updated_at"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	State string `json:"state"` // pending|full|suspended|locked
}
