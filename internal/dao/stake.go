package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"server-profit-app/internal/model"
)

type StakeDao struct {
	db *gorm.DB
}

func NewStake(db *gorm.DB) *StakeDao {
	return &StakeDao{db: db}
}

func (d *StakeDao) Get(ctx context.Context, wallet string) (*model.Stake, error) {
	var s model.Stake
	err := d.db.WithContext(ctx).Where("wallet_address = ?", wallet).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save inserts s when it has no ID yet, otherwise updates every column.
func (d *StakeDao) Save(ctx context.Context, s *model.Stake) error {
	if s.ID == "" {
		return d.db.WithContext(ctx).Create(s).Error
	}
	return d.db.WithContext(ctx).Save(s).Error
}

func (d *StakeDao) List(ctx context.Context) ([]model.Stake, error) {
	var stakes []model.Stake
	err := d.db.WithContext(ctx).Order("amount desc").Order("wallet_address").Find(&stakes).Error
	return stakes, err
}

func (d *StakeDao) ListEligible(ctx context.Context) ([]model.Stake, error) {
	var stakes []model.Stake
	err := d.db.WithContext(ctx).Where("is_eligible = ?", true).Find(&stakes).Error
	return stakes, err
}

// SaveSnapshot upserts on (wallet_address, snapshot_date).
func (d *StakeDao) SaveSnapshot(ctx context.Context, s *model.StakeSnapshot) error {
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}, {Name: "snapshot_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "still_eligible", "updated_at"}),
	}).Create(s).Error
}

// Snapshots returns the snapshots of a wallet, newest first.
func (d *StakeDao) Snapshots(ctx context.Context, wallet string) ([]model.StakeSnapshot, error) {
	var snaps []model.StakeSnapshot
	err := d.db.WithContext(ctx).Where("wallet_address = ?", wallet).Order("snapshot_date desc").Find(&snaps).Error
	return snaps, err
}
