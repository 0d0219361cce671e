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
)

// DefaultClaimTTL is how long a claim stays pending after its period is
// distributed.
const DefaultClaimTTL = 90 * 24 * time.Hour

// Recorder records the manual settlement side: claim payouts, buybacks
// and the expiry of unclaimed rewards.
type Recorder struct {
	claims   ClaimStore
	buybacks BuybackStore
	clock    clockwork.Clock
}

func NewRecorder(claims ClaimStore, buybacks BuybackStore, clock clockwork.Clock) *Recorder {
	return &Recorder{claims: claims, buybacks: buybacks, clock: clock}
}

// Settle records txSignature on a claim. A claim that is already claimed
// gets its signature overwritten; an expired one is refused.
func (r *Recorder) Settle(ctx context.Context, claimID, txSignature string) error {
	err := r.claims.MarkClaimed(ctx, claimID, txSignature, r.clock.Now())
	metrics.RecordSettlement(err == nil)
	return err
}

// MarkClaimed is Settle reporting false instead of an error. The failure
// is logged.
func (r *Recorder) MarkClaimed(ctx context.Context, claimID, txSignature string) bool {
	err := r.Settle(ctx, claimID, txSignature)
	switch {
	case err == nil:
		return true
	case generr.KindOf(err) == generr.KindPersistence:
		log.Errorf("err: %+v", errors.Wrapf(err, "mark claim %s claimed", claimID))
	default:
		log.Warnf("mark claim %s claimed: %v", claimID, err)
	}
	return false
}

// RecordBuyback appends a buyback row, executed now. It reports false on
// a storage failure.
func (r *Recorder) RecordBuyback(ctx context.Context, periodID string, amountSol, tokensBought, tokensBurned float64, txSignature string) bool {
	b := &model.Buyback{
		ProfitPeriodID: periodID,
		AmountSol:      amountSol,
		TokensBought:   tokensBought,
		TokensBurned:   tokensBurned,
		TxSignature:    txSignature,
		ExecutedAt:     r.clock.Now(),
	}
	if err := r.buybacks.Insert(ctx, b); err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "insert buyback"))
		return false
	}
	return true
}

// PendingClaims lists the unsettled claims of a wallet.
func (r *Recorder) PendingClaims(ctx context.Context, wallet string) ([]model.RewardClaim, error) {
	return r.ListClaims(ctx, model.ClaimFilter{Wallet: wallet, Status: model.ClaimPending})
}

func (r *Recorder) ListClaims(ctx context.Context, f model.ClaimFilter) ([]model.RewardClaim, error) {
	switch f.Status {
	case "", model.ClaimPending, model.ClaimClaimed, model.ClaimExpired:
	default:
		return nil, generr.Validation("unknown claim status %q", f.Status)
	}
	claims, err := r.claims.List(ctx, f)
	return claims, generr.Persistence(err, "list claims")
}

// ListBuybacks returns buybacks newest first; an empty periodID lists all.
func (r *Recorder) ListBuybacks(ctx context.Context, periodID string) ([]model.Buyback, error) {
	bs, err := r.buybacks.List(ctx, periodID)
	return bs, generr.Persistence(err, "list buybacks")
}

// ExpireClaims expires pending claims of periods distributed more than ttl
// ago and returns how many changed.
func (r *Recorder) ExpireClaims(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	now := r.clock.Now()
	n, err := r.claims.ExpirePending(ctx, now.Add(-ttl), now)
	if err != nil {
		return 0, generr.Persistence(err, "expire claims")
	}
	if n > 0 {
		metrics.ClaimsExpiredTotal.Add(float64(n))
		log.Infof("expired %d pending claims", n)
	}
	return n, nil
}
