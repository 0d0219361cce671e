package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
)

const batchSize = 500

type ClaimDao struct {
	db *gorm.DB
}

func NewClaim(db *gorm.DB) *ClaimDao {
	return &ClaimDao{db: db}
}

// ReplaceBatch locks the period row, checks it is still calculating with a
// positive pool and has no settled claim, then swaps its pending claims for
// the new batch. A claim settled concurrently survives the delete and makes
// the insert fail on uk_wallet_period.
func (d *ClaimDao) ReplaceBatch(ctx context.Context, periodID string, claims []model.RewardClaim) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.ProfitPeriod
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", periodID).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return generr.NotFound("period %s", periodID)
		}
		if err != nil {
			return err
		}
		if p.Status != model.PeriodCalculating {
			return generr.InvalidState("period %s is %s, want %s", periodID, p.Status, model.PeriodCalculating)
		}
		if p.StakerPool <= 0 {
			return generr.InvalidState("period %s has an empty staker pool", periodID)
		}

		var claimed int64
		err = tx.Model(&model.RewardClaim{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("profit_period_id = ? AND status = ?", periodID, model.ClaimClaimed).
			Count(&claimed).Error
		if err != nil {
			return err
		}
		if claimed > 0 {
			return generr.InvalidState("period %s already has %d settled claims", periodID, claimed)
		}

		if err = deletePending(tx, periodID); err != nil {
			return err
		}
		if len(claims) == 0 {
			return nil
		}
		return tx.CreateInBatches(claims, batchSize).Error
	})
}

func deletePending(tx *gorm.DB, periodID string) error {
	return tx.Where("profit_period_id = ? AND status = ?", periodID, model.ClaimPending).
		Delete(&model.RewardClaim{}).Error
}

// MarkClaimed settles a pending or already claimed claim. An unknown id is
// NotFound, an expired claim InvalidState.
func (d *ClaimDao) MarkClaimed(ctx context.Context, id, txSignature string, at time.Time) error {
	db := d.db.WithContext(ctx)
	res := db.Model(&model.RewardClaim{}).
		Where("id = ? AND status <> ?", id, model.ClaimExpired).
		Updates(map[string]interface{}{
			"status":       model.ClaimClaimed,
			"tx_signature": txSignature,
			"claimed_at":   at,
		})
	if res.Error != nil {
		return generr.Persistence(res.Error, "mark claim claimed")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var c model.RewardClaim
	err := db.Select("id", "status").Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return generr.NotFound("claim %s", id)
	}
	if err != nil {
		return generr.Persistence(err, "get claim")
	}
	return generr.InvalidState("claim %s is %s", id, c.Status)
}

func (d *ClaimDao) List(ctx context.Context, f model.ClaimFilter) ([]model.RewardClaim, error) {
	q := d.db.WithContext(ctx)
	if f.PeriodID != "" {
		q = q.Where("profit_period_id = ?", f.PeriodID)
	}
	if f.Wallet != "" {
		q = q.Where("wallet_address = ?", f.Wallet)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var claims []model.RewardClaim
	err := q.Order("reward_amount desc").Order("wallet_address").Find(&claims).Error
	return claims, err
}

func (d *ClaimDao) ExpirePending(ctx context.Context, cutoff, at time.Time) (int64, error) {
	db := d.db.WithContext(ctx)
	distributed := db.Model(&model.ProfitPeriod{}).Select("id").
		Where("status = ? AND distributed_at < ?", model.PeriodDistributed, cutoff)
	res := db.Model(&model.RewardClaim{}).
		Where("status = ? AND profit_period_id IN (?)", model.ClaimPending, distributed).
		Updates(map[string]interface{}{
			"status":     model.ClaimExpired,
			"expired_at": at,
		})
	return res.RowsAffected, res.Error
}
