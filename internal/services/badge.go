package services

import "habit-tracker/internal/domain"

// Classify returns the badge of the tier with the highest threshold not
// above progress. Tiers may arrive in any order.
func Classify(progress float64, tiers []domain.Tier) (string, bool) {
	best := -1
	for i, tier := range tiers {
		if tier.Threshold > progress {
			continue
		}
		if best < 0 || tier.Threshold > tiers[best].Threshold {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return tiers[best].Badge, true
}
