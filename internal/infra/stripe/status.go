package stripe

import "strings"

// NormalizeStatus folds provider subscription statuses into the handful the
// product interprets. Unknown values are returned trimmed, unchanged.
func NormalizeStatus(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "none"
	}
	switch strings.TrimSpace(*s) {
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(*s)
	}
}

var knownStatuses = map[string]bool{
	"active":             true,
	"trialing":           true,
	"past_due":           true,
	"unpaid":             true,
	"canceled":           true,
	"incomplete":         true,
	"incomplete_expired": true,
	"paused":             true,
}

// KnownStatus reports whether s is a subscription status the provider
// documents.
func KnownStatus(s string) bool {
	return knownStatuses[s]
}
