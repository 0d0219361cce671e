package profit

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
	"server-profit-app/internal/pkg/metrics"
	"server-profit-app/internal/pkg/util"
)

// Calculator turns a period's staker pool into reward claims.
type Calculator struct {
	stakes  StakeStore
	periods PeriodStore
	claims  ClaimStore
}

func NewCalculator(stakes StakeStore, periods PeriodStore, claims ClaimStore) *Calculator {
	return &Calculator{stakes: stakes, periods: periods, claims: claims}
}

// Calculate computes and stores the claims of a period. An unknown period,
// an empty pool, no eligible stakers or zero total weight all yield an
// empty list and write nothing. Running it again replaces the pending
// claims of the period.
func (c *Calculator) Calculate(ctx context.Context, periodID string) ([]model.RewardClaim, error) {
	p, err := c.periods.Get(ctx, periodID)
	if err != nil {
		return nil, generr.Persistence(err, "get period")
	}
	if p == nil || p.StakerPool <= 0 {
		return []model.RewardClaim{}, nil
	}
	if p.Status != model.PeriodCalculating {
		return nil, generr.InvalidState("period %s is %s, want %s", periodID, p.Status, model.PeriodCalculating)
	}

	stakers, err := c.stakes.ListEligible(ctx)
	if err != nil {
		return nil, generr.Persistence(err, "list eligible stakes")
	}

	claims := Allocate(p.ID, p.StakerPool, p.PeriodEnd, stakers)
	if len(claims) == 0 {
		return []model.RewardClaim{}, nil
	}

	t := time.Now()
	if err = c.claims.ReplaceBatch(ctx, p.ID, claims); err != nil {
		if generr.KindOf(err) != generr.KindUnknown {
			return nil, err
		}
		return nil, generr.Persistence(err, "save reward claims")
	}
	metrics.RewardClaimsCalculated.Add(float64(len(claims)))
	log.Infof("period %s: saved %d reward claims, cost time: %v", p.ID, len(claims), time.Since(t))
	return claims, nil
}

// Allocate splits pool across stakers by amount x days x multiplier, where
// days is the whole days from staked_at to periodEnd clamped to
// [0, MaxStakeDays]. It returns nil when the total weight is zero.
// Claims are ordered by wallet.
func Allocate(periodID string, pool float64, periodEnd time.Time, stakers []model.Stake) []model.RewardClaim {
	if len(stakers) == 0 {
		return nil
	}
	sorted := make([]model.Stake, len(stakers))
	copy(sorted, stakers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].WalletAddress < sorted[j].WalletAddress })

	weights := make([]decimal.Decimal, len(sorted))
	total := decimal.Zero
	claims := make([]model.RewardClaim, len(sorted))
	for i, s := range sorted {
		days := StakeDays(s.StakedAt, periodEnd)
		mult := Multiplier(s.Tier)
		weights[i] = decimal.NewFromFloat(s.Amount).
			Mul(decimal.NewFromInt(int64(days))).
			Mul(decimal.NewFromFloat(mult))
		total = total.Add(weights[i])

		claims[i] = model.RewardClaim{
			WalletAddress:  s.WalletAddress,
			ProfitPeriodID: periodID,
			StakeAmount:    s.Amount,
			StakeDays:      days,
			TierMultiplier: mult,
			Status:         model.ClaimPending,
		}
	}
	if !total.IsPositive() {
		return nil
	}

	dPool := decimal.NewFromFloat(pool)
	for i := range claims {
		share := weights[i].Div(total)
		claims[i].SharePercent = share.InexactFloat64()
		claims[i].RewardAmount = dPool.Mul(share).InexactFloat64()
	}
	return claims
}

// StakeDays is the number of whole days a stake counts toward a period.
func StakeDays(stakedAt, periodEnd time.Time) int {
	days := util.WholeDays(stakedAt, periodEnd)
	if days < 0 {
		return 0
	}
	if days > MaxStakeDays {
		return MaxStakeDays
	}
	return days
}
