package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"billing-service/internal/domain/workspaces"
)

func strPtr(s string) *string { return &s }

func TestForWorkspace(t *testing.T) {
	provisioned := func(status *string) workspaces.Workspace {
		return workspaces.Workspace{
			ID:             "ws-1",
			ConsumerID:     strPtr("cus_1"),
			SubscriptionID: strPtr("sub_1"),
			Status:         status,
		}
	}

	cases := []struct {
		name string
		ws   workspaces.Workspace
		want State
	}{
		{"unprovisioned", workspaces.Workspace{ID: "ws-1", Status: strPtr("active")}, StateLocked},
		{"no status yet", provisioned(nil), StatePending},
		{"active", provisioned(strPtr("active")), StateFull},
		{"trialing", provisioned(strPtr("trialing")), StateFull},
		{"past due", provisioned(strPtr("past_due")), StateSuspended},
		{"unpaid", provisioned(strPtr("unpaid")), StateSuspended},
		{"canceled", provisioned(strPtr("canceled")), StateLocked},
		{"incomplete", provisioned(strPtr("incomplete")), StatePending},
		{"unknown", provisioned(strPtr("frozen")), StatePending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ForWorkspace(tc.ws))
		})
	}
}
