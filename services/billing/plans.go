// plans.go — subscription plans and their durations.
package billing

import "time"

// Plan prices in paise (INR).
const (
	monthlyPricePaise = 5000  // ₹50
	yearlyPricePaise  = 49900 // ₹499
)

// planAmount returns the charge for a plan, or 0 for an unknown plan.
func planAmount(plan string) int64 {
	switch plan {
	case "monthly":
		return monthlyPricePaise
	case "yearly":
		return yearlyPricePaise
	default:
		return 0
	}
}

// planDuration returns how long a plan's subscription runs from activation.
func planDuration(plan string) time.Duration {
	if plan == "yearly" {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}
