package plans

// StarterCouponLabel is granted to every newly provisioned workspace.
const StarterCouponLabel = "10"

type couponIDs struct {
	test string
	live string
}

// Labels are the discount amounts in dollars.
var coupons = map[string]couponIDs{
	"10":   {test: "credit-10-test", live: "credit-10"},
	"100":  {test: "credit-100-test", live: "credit-100"},
	"500":  {test: "credit-500-test", live: "credit-500"},
	"1000": {test: "credit-1000-test", live: "credit-1000"},
}

// ResolveCoupon maps a discount label to the provider coupon id for the
// billing mode. ok is false for unknown labels; callers treat that as "no
// coupon".
func ResolveCoupon(label string, chargeable bool) (id string, ok bool) {
	c, ok := coupons[label]
	if !ok {
		return "", false
	}
	if chargeable {
		return c.live, true
	}
	return c.test, true
}
