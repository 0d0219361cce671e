package profit

import (
	"context"

	"github.com/shopspring/decimal"

	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
)

type PeriodSummary struct {
	Period       *model.ProfitPeriod `json:"period"`
	Claims       []model.RewardClaim `json:"claims"`
	Buybacks     []model.Buyback     `json:"buybacks"`
	TotalClaimed float64             `json:"totalClaimed"`
	TotalPending float64             `json:"totalPending"`
	TotalBurned  float64             `json:"totalBurned"`
}

type DashboardStats struct {
	TotalStaked     float64             `json:"totalStaked"`
	TotalStakers    int                 `json:"totalStakers"`
	EligibleStakers int                 `json:"eligibleStakers"`
	TotalBurned     float64             `json:"totalBurned"`
	CurrentPeriod   *model.ProfitPeriod `json:"currentPeriod"`
}

// Reporter builds the read-only admin views.
type Reporter struct {
	stakes   StakeStore
	periods  PeriodStore
	claims   ClaimStore
	buybacks BuybackStore
}

func NewReporter(stakes StakeStore, periods PeriodStore, claims ClaimStore, buybacks BuybackStore) *Reporter {
	return &Reporter{stakes: stakes, periods: periods, claims: claims, buybacks: buybacks}
}

func (r *Reporter) PeriodSummary(ctx context.Context, periodID string) (*PeriodSummary, error) {
	p, err := r.periods.Get(ctx, periodID)
	if err != nil {
		return nil, generr.Persistence(err, "get period")
	}
	if p == nil {
		return nil, generr.NotFound("period %s", periodID)
	}
	claims, err := r.claims.List(ctx, model.ClaimFilter{PeriodID: periodID})
	if err != nil {
		return nil, generr.Persistence(err, "list claims")
	}
	buybacks, err := r.buybacks.List(ctx, periodID)
	if err != nil {
		return nil, generr.Persistence(err, "list buybacks")
	}

	claimed, pending := decimal.Zero, decimal.Zero
	for _, c := range claims {
		switch c.Status {
		case model.ClaimClaimed:
			claimed = claimed.Add(decimal.NewFromFloat(c.RewardAmount))
		case model.ClaimPending:
			pending = pending.Add(decimal.NewFromFloat(c.RewardAmount))
		}
	}

	return &PeriodSummary{
		Period:       p,
		Claims:       claims,
		Buybacks:     buybacks,
		TotalClaimed: claimed.InexactFloat64(),
		TotalPending: pending.InexactFloat64(),
		TotalBurned:  sumBurned(buybacks),
	}, nil
}

func (r *Reporter) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stakes, err := r.stakes.List(ctx)
	if err != nil {
		return nil, generr.Persistence(err, "list stakes")
	}
	current, err := r.periods.Latest(ctx)
	if err != nil {
		return nil, generr.Persistence(err, "latest period")
	}
	buybacks, err := r.buybacks.List(ctx, "")
	if err != nil {
		return nil, generr.Persistence(err, "list buybacks")
	}

	st := &DashboardStats{
		TotalStakers:  len(stakes),
		TotalBurned:   sumBurned(buybacks),
		CurrentPeriod: current,
	}
	staked := decimal.Zero
	for _, s := range stakes {
		staked = staked.Add(decimal.NewFromFloat(s.Amount))
		if s.IsEligible {
			st.EligibleStakers++
		}
	}
	st.TotalStaked = staked.InexactFloat64()
	return st, nil
}

func sumBurned(bs []model.Buyback) float64 {
	total := decimal.Zero
	for _, b := range bs {
		total = total.Add(decimal.NewFromFloat(b.TokensBurned))
	}
	return total.InexactFloat64()
}
