package users

import (
	"billing-service/internal/domain/access"
	"billing-service/internal/domain/workspaces"
	"billing-service/internal/infra/stripe"
)

func BuildBillingDTO(ws workspaces.Workspace) BillingDTO {
	out := BillingDTO{
		Chargeable:   ws.Chargeable,
		CouponID:     ws.CouponID,
		Subscription: BuildSubscriptionDTO(ws),
	}
	if ws.Tier != nil {
		t := string(*ws.Tier)
		out.Tier = &t
	}
	return out
}

func BuildSubscriptionDTO(ws workspaces.Workspace) *SubscriptionDTO {
	if !ws.Provisioned() {
		return nil
	}
	return &SubscriptionDTO{
		Status:                stripe.NormalizeStatus(ws.Status),
		RawStatus:             ws.Status,
		ConsumerID:            ws.ConsumerID,
		SubscriptionID:        ws.SubscriptionID,
		PaymentMethodAttached: ws.PaymentMethodAttached,
		UpdatedAt:             ws.UpdatedAt,
	}
}

func BuildWorkspaceDTO(ws workspaces.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		ID:          ws.ID,
		DisplayName: ws.DisplayName,
		Billing:     BuildBillingDTO(ws),
		Access:      AccessDTO{State: string(access.ForWorkspace(ws))},
	}
}
