package plans

import "strings"

// Tier is the subscription tier of a workspace. It gates the flat-fee
// catalog item; metered shapes are available on every tier.
type Tier string

// Tier constants (single source of truth)
const (
	TierBasic      Tier = "Basic"
	TierStandard   Tier = "Standard"
	TierEnterprise Tier = "Enterprise"
)

var tiers = []Tier{TierBasic, TierStandard, TierEnterprise}

// ParseTier accepts any casing of a known tier name.
func ParseTier(s string) (Tier, bool) {
	s = strings.TrimSpace(s)
	for _, t := range tiers {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// TierPtr is a convenience for optional tier columns.
func TierPtr(t Tier) *Tier {
	return &t
}

// Tiers returns the known tiers in ascending order.
func Tiers() []Tier {
	return append([]Tier(nil), tiers...)
}
