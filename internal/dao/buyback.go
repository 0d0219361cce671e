package dao

import (
	"context"

	"gorm.io/gorm"

	"server-profit-app/internal/model"
)

type BuybackDao struct {
	db *gorm.DB
}

func NewBuyback(db *gorm.DB) *BuybackDao {
	return &BuybackDao{db: db}
}

func (d *BuybackDao) Insert(ctx context.Context, b *model.Buyback) error {
	return d.db.WithContext(ctx).Create(b).Error
}

func (d *BuybackDao) List(ctx context.Context, periodID string) ([]model.Buyback, error) {
	q := d.db.WithContext(ctx)
	if periodID != "" {
		q = q.Where("profit_period_id = ?", periodID)
	}
	var bs []model.Buyback
	err := q.Order("executed_at desc").Find(&bs).Error
	return bs, err
}
