package profit

import (
	"time"

	"server-profit-app/internal/model"
)

// Reward program thresholds, in tokens.
const (
	FullThreshold = 2000000
	GodThreshold  = 10000000
)

// DefaultStreakFloor is the balance below which a stake loses its
// eligibility streak. It equals the basic access threshold, not the full
// reward tier.
const DefaultStreakFloor = 500000

// MaxStakeDays caps the days credited to a stake within one period.
const MaxStakeDays = 30

// RewardTierFor returns the reward tier a balance qualifies for.
func RewardTierFor(balance float64) (model.Tier, bool) {
	switch {
	case balance >= GodThreshold:
		return model.TierGod, true
	case balance >= FullThreshold:
		return model.TierFull, true
	default:
		return "", false
	}
}

// LockDays is the wait between staked_at and eligible_at.
func LockDays(t model.Tier) int {
	if t == model.TierGod {
		return 90
	}
	return 30
}

func Multiplier(t model.Tier) float64 {
	if t == model.TierGod {
		return 1.5
	}
	return 1.0
}

func EligibleAt(stakedAt time.Time, t model.Tier) time.Time {
	return stakedAt.AddDate(0, 0, LockDays(t))
}
