package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"server-profit-app/internal/model"
)

type PeriodDao struct {
	db *gorm.DB
}

func NewPeriod(db *gorm.DB) *PeriodDao {
	return &PeriodDao{db: db}
}

func (d *PeriodDao) Create(ctx context.Context, p *model.ProfitPeriod) error {
	return d.db.WithContext(ctx).Create(p).Error
}

func (d *PeriodDao) Get(ctx context.Context, id string) (*model.ProfitPeriod, error) {
	var p model.ProfitPeriod
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *PeriodDao) List(ctx context.Context) ([]model.ProfitPeriod, error) {
	var ps []model.ProfitPeriod
	err := d.db.WithContext(ctx).Order("period_end desc").Find(&ps).Error
	return ps, err
}

// Latest returns the period with the latest end date.
func (d *PeriodDao) Latest(ctx context.Context) (*model.ProfitPeriod, error) {
	var p model.ProfitPeriod
	err := d.db.WithContext(ctx).Order("period_end desc").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *PeriodDao) UpdateFinancials(ctx context.Context, p *model.ProfitPeriod) (bool, error) {
	res := d.db.WithContext(ctx).Model(&model.ProfitPeriod{}).
		Where("id = ? AND status <> ?", p.ID, model.PeriodDistributed).
		Updates(map[string]interface{}{
			"total_revenue":  p.TotalRevenue,
			"total_costs":    p.TotalCosts,
			"net_profit":     p.NetProfit,
			"staker_pool":    p.StakerPool,
			"buyback_amount": p.BuybackAmount,
			"team_amount":    p.TeamAmount,
			"status":         model.PeriodCalculating,
		})
	return res.RowsAffected > 0, res.Error
}

func (d *PeriodDao) Distribute(ctx context.Context, id string, at time.Time) (bool, error) {
	res := d.db.WithContext(ctx).Model(&model.ProfitPeriod{}).
		Where("id = ? AND status = ?", id, model.PeriodCalculating).
		Updates(map[string]interface{}{
			"status":         model.PeriodDistributed,
			"distributed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}
