package profit

import (
	"context"
	"time"

	"server-profit-app/internal/model"
)

// StakeStore persists one stake row per wallet plus the daily snapshots.
// Get returns nil, nil for an unknown wallet.
type StakeStore interface {
	Get(ctx context.Context, wallet string) (*model.Stake, error)
	Save(ctx context.Context, s *model.Stake) error
	List(ctx context.Context) ([]model.Stake, error)
	ListEligible(ctx context.Context) ([]model.Stake, error)
	SaveSnapshot(ctx context.Context, s *model.StakeSnapshot) error
	Snapshots(ctx context.Context, wallet string) ([]model.StakeSnapshot, error)
}

// PeriodStore owns profit_periods. Get and Latest return nil, nil when
// nothing matches.
type PeriodStore interface {
	Create(ctx context.Context, p *model.ProfitPeriod) error
	Get(ctx context.Context, id string) (*model.ProfitPeriod, error)
	List(ctx context.Context) ([]model.ProfitPeriod, error)
	Latest(ctx context.Context) (*model.ProfitPeriod, error)
	// UpdateFinancials writes the amounts of p and moves it to calculating
	// unless the stored row is already distributed.
	UpdateFinancials(ctx context.Context, p *model.ProfitPeriod) (bool, error)
	// Distribute moves a calculating period to distributed.
	Distribute(ctx context.Context, id string, at time.Time) (bool, error)
}

type ClaimStore interface {
	// ReplaceBatch swaps the pending claims of a calculating period for
	// claims in one transaction. IDs are assigned in place.
	ReplaceBatch(ctx context.Context, periodID string, claims []model.RewardClaim) error
	// MarkClaimed fails with NotFound for an unknown id and InvalidState
	// for an expired claim.
	MarkClaimed(ctx context.Context, id, txSignature string, at time.Time) error
	List(ctx context.Context, f model.ClaimFilter) ([]model.RewardClaim, error)
	// ExpirePending expires pending claims of periods distributed before cutoff.
	ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error)
}

type BuybackStore interface {
	Insert(ctx context.Context, b *model.Buyback) error
	// List returns buybacks newest first. An empty periodID lists all.
	List(ctx context.Context, periodID string) ([]model.Buyback, error)
}

// BalanceOracle reports the token balance of a wallet in UI units.
type BalanceOracle interface {
	TokenBalance(ctx context.Context, wallet string) (float64, error)
}
