package dataset

// Tier is the severity band of a sales total.
type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

const (
	criticalThreshold = 1_000_000
	highThreshold     = 500_000
	mediumThreshold   = 100_000
)

// ClassifySales maps a sales total to its tier. Every bound is exclusive:
// exactly 1,000,000 is high, not critical.
func ClassifySales(total float64) Tier {
	switch {
	case total > criticalThreshold:
		return TierCritical
	case total > highThreshold:
		return TierHigh
	case total > mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}
