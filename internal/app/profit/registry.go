package profit

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
	"server-profit-app/internal/pkg/metrics"
	"server-profit-app/internal/pkg/util"
)

// Registry tracks one stake per wallet and its eligibility streak.
type Registry struct {
	stakes      StakeStore
	oracle      BalanceOracle
	clock       clockwork.Clock
	streakFloor float64
}

// NewRegistry builds a Registry. oracle may be nil when VerifyAll and
// Register are not used. A non-positive streakFloor falls back to
// DefaultStreakFloor.
func NewRegistry(stakes StakeStore, oracle BalanceOracle, clock clockwork.Clock, streakFloor float64) *Registry {
	if streakFloor <= 0 {
		streakFloor = DefaultStreakFloor
	}
	return &Registry{stakes: stakes, oracle: oracle, clock: clock, streakFloor: streakFloor}
}

// Upsert records the stake of wallet at balance. A new wallet starts its
// streak now; an existing wallet keeps staked_at.
func (r *Registry) Upsert(ctx context.Context, wallet string, balance float64) (*model.Stake, error) {
	tier, ok := RewardTierFor(balance)
	if !ok {
		return nil, generr.Validation("balance %.6f below the %d token minimum", balance, FullThreshold)
	}

	s, err := r.stakes.Get(ctx, wallet)
	if err != nil {
		return nil, generr.Persistence(err, "get stake")
	}

	now := r.clock.Now()
	if s == nil {
		s = &model.Stake{WalletAddress: wallet, StakedAt: now}
	}
	s.Amount = balance
	s.Tier = tier
	s.EligibleAt = EligibleAt(s.StakedAt, tier)
	s.IsEligible = !now.Before(s.EligibleAt)
	s.LastVerifiedAt = &now

	if err = r.stakes.Save(ctx, s); err != nil {
		return nil, generr.Persistence(err, "save stake")
	}
	return s, nil
}

// Register looks up the live balance of wallet and upserts it.
func (r *Registry) Register(ctx context.Context, wallet string) (*model.Stake, error) {
	balance, err := r.balance(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return r.Upsert(ctx, wallet, balance)
}

// Verify writes the day's snapshot for wallet and refreshes its stake.
// A balance under the streak floor restarts the lock timer. It returns
// whether the stake is reward eligible now.
func (r *Registry) Verify(ctx context.Context, wallet string, balance float64) (bool, error) {
	now := r.clock.Now()
	tier, tierMet := RewardTierFor(balance)

	snap := &model.StakeSnapshot{
		WalletAddress: wallet,
		SnapshotDate:  util.DateString(now),
		Balance:       balance,
		StillEligible: tierMet,
	}
	if err := r.stakes.SaveSnapshot(ctx, snap); err != nil {
		return false, generr.Persistence(err, "save snapshot")
	}

	s, err := r.stakes.Get(ctx, wallet)
	if err != nil {
		return false, generr.Persistence(err, "get stake")
	}
	if s == nil {
		return false, nil
	}

	s.LastVerifiedAt = &now
	if balance < r.streakFloor {
		s.StakedAt = now
		s.EligibleAt = EligibleAt(now, s.Tier)
		s.IsEligible = false
	} else {
		s.Amount = balance
		if tierMet && tier != s.Tier {
			s.Tier = tier
			s.EligibleAt = EligibleAt(s.StakedAt, tier)
		}
		s.IsEligible = tierMet && !now.Before(s.EligibleAt)
	}

	if err = r.stakes.Save(ctx, s); err != nil {
		return false, generr.Persistence(err, "save stake")
	}
	return s.IsEligible, nil
}

// VerifyReport summarises one verification pass.
type VerifyReport struct {
	Checked  int `json:"checked"`
	Eligible int `json:"eligible"`
	Reset    int `json:"reset"`
	Failed   int `json:"failed"`
}

// VerifyAll re-checks every stake against the oracle. A wallet whose
// lookup or update fails is counted and skipped.
func (r *Registry) VerifyAll(ctx context.Context) (VerifyReport, error) {
	var rep VerifyReport
	stakes, err := r.stakes.List(ctx)
	if err != nil {
		return rep, generr.Persistence(err, "list stakes")
	}

	start := time.Now()
	for _, s := range stakes {
		if cerr := ctx.Err(); cerr != nil {
			return rep, errors.Wrap(cerr, "verify stakes")
		}
		rep.Checked++

		balance, err := r.balance(ctx, s.WalletAddress)
		if err == nil {
			var eligible bool
			eligible, err = r.Verify(ctx, s.WalletAddress, balance)
			switch {
			case err != nil:
			case balance < r.streakFloor:
				rep.Reset++
				metrics.StakeVerificationsTotal.WithLabelValues("reset").Inc()
			case eligible:
				rep.Eligible++
				metrics.StakeVerificationsTotal.WithLabelValues("eligible").Inc()
			default:
				metrics.StakeVerificationsTotal.WithLabelValues("waiting").Inc()
			}
		}
		if err != nil {
			rep.Failed++
			metrics.StakeVerificationsTotal.WithLabelValues("error").Inc()
			log.WithField("wallet", s.WalletAddress).Errorf("err: %+v", errors.Wrap(err, "verify stake"))
		}
	}

	log.WithFields(log.Fields{
		"checked":  rep.Checked,
		"eligible": rep.Eligible,
		"reset":    rep.Reset,
		"failed":   rep.Failed,
	}).Infof("stake verification done, cost time: %v", time.Since(start))
	return rep, nil
}

func (r *Registry) ListEligible(ctx context.Context) ([]model.Stake, error) {
	stakes, err := r.stakes.ListEligible(ctx)
	return stakes, generr.Persistence(err, "list eligible stakes")
}

// Get returns nil, nil for an unknown wallet.
func (r *Registry) Get(ctx context.Context, wallet string) (*model.Stake, error) {
	s, err := r.stakes.Get(ctx, wallet)
	return s, generr.Persistence(err, "get stake")
}

// List returns every stake, largest amount first.
func (r *Registry) List(ctx context.Context) ([]model.Stake, error) {
	stakes, err := r.stakes.List(ctx)
	return stakes, generr.Persistence(err, "list stakes")
}

// Snapshots returns the verification history of a wallet, newest first.
func (r *Registry) Snapshots(ctx context.Context, wallet string) ([]model.StakeSnapshot, error) {
	snaps, err := r.stakes.Snapshots(ctx, wallet)
	return snaps, generr.Persistence(err, "list stake snapshots")
}

func (r *Registry) balance(ctx context.Context, wallet string) (float64, error) {
	if r.oracle == nil {
		return 0, errors.New("no balance oracle configured")
	}
	start := time.Now()
	balance, err := r.oracle.TokenBalance(ctx, wallet)
	metrics.RecordBalanceLookup(time.Since(start), err)
	return balance, errors.Wrapf(err, "token balance of %s", wallet)
}
