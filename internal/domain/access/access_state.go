package access

import (
	"billing-service/internal/domain/workspaces"
	"billing-service/internal/infra/stripe"
)

// ForWorkspace interprets the mirrored provider status. Only "active" and
// "past_due" carry product meaning; other statuses are opaque and map to the
// closest state.
func ForWorkspace(ws workspaces.Workspace) State {
	if !ws.Provisioned() {
		return StateLocked
	}

	switch stripe.NormalizeStatus(ws.Status) {
	case "none":
		// Provisioned, no webhook seen yet.
		return StatePending
	case "active", "trialing":
		return StateFull
	case "past_due":
		return StateSuspended
	case "canceled":
		return StateLocked
	default:
		return StatePending
	}
}
