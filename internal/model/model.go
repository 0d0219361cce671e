package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tier string

const (
	TierFull Tier = "full"
	TierGod  Tier = "god"
)

type PeriodStatus string

const (
	PeriodOpen        PeriodStatus = "open"
	PeriodCalculating PeriodStatus = "calculating"
	PeriodDistributed PeriodStatus = "distributed"
)

type ClaimStatus string

const (
	ClaimPending ClaimStatus = "pending"
	ClaimClaimed ClaimStatus = "claimed"
	ClaimExpired ClaimStatus = "expired"
)

// 质押快照，每个钱包一行
type Stake struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	WalletAddress  string     `gorm:"uniqueIndex;size:64;not null" json:"wallet_address"`
	Amount         float64    `gorm:"not null" json:"amount"`               // 质押数量
	Tier           Tier       `gorm:"size:16;not null" json:"tier"`         // full / god
	StakedAt       time.Time  `gorm:"not null" json:"staked_at"`            // 连续持有起点
	EligibleAt     time.Time  `gorm:"not null" json:"eligible_at"`          // staked_at + lock days
	IsEligible     bool       `gorm:"index;not null" json:"is_eligible"`    // 是否可参与分红
	LastVerifiedAt *time.Time `json:"last_verified_at"`                     // 最近一次校验
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (s *Stake) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// StakeSnapshot is the daily audit row written by the verification pass.
type StakeSnapshot struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex:uk_wallet_date;size:64;not null" json:"wallet_address"`
	SnapshotDate  string    `gorm:"uniqueIndex:uk_wallet_date;size:10;not null" json:"snapshot_date"` // 2006-01-02
	Balance       float64   `gorm:"not null" json:"balance"`
	StillEligible bool      `gorm:"not null" json:"still_eligible"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ProfitPeriod struct {
	ID            string       `gorm:"primaryKey;size:36" json:"id"`
	PeriodStart   time.Time    `gorm:"not null" json:"period_start"`
	PeriodEnd     time.Time    `gorm:"index;not null" json:"period_end"`
	TotalRevenue  float64      `gorm:"not null;default:0" json:"total_revenue"`  // 总收入
	TotalCosts    float64      `gorm:"not null;default:0" json:"total_costs"`    // 总成本
	NetProfit     float64      `gorm:"not null;default:0" json:"net_profit"`     // 净利润
	StakerPool    float64      `gorm:"not null;default:0" json:"staker_pool"`    // 20%
	BuybackAmount float64      `gorm:"not null;default:0" json:"buyback_amount"` // 30%
	TeamAmount    float64      `gorm:"not null;default:0" json:"team_amount"`    // 50%
	Status        PeriodStatus `gorm:"size:16;not null;default:'open'" json:"status"`
	DistributedAt *time.Time   `json:"distributed_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (p *ProfitPeriod) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type RewardClaim struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	WalletAddress  string      `gorm:"uniqueIndex:uk_wallet_period;index;size:64;not null" json:"wallet_address"`
	ProfitPeriodID string      `gorm:"uniqueIndex:uk_wallet_period;size:36;not null" json:"profit_period_id"`
	StakeAmount    float64     `gorm:"not null" json:"stake_amount"`     // 计算时的质押量
	StakeDays      int         `gorm:"not null" json:"stake_days"`       // [0, 30]
	TierMultiplier float64     `gorm:"not null" json:"tier_multiplier"`  // 1.0 / 1.5
	SharePercent   float64     `gorm:"column:share_percentage;not null" json:"share_percentage"`
	RewardAmount   float64     `gorm:"not null" json:"reward_amount"`
	Status         ClaimStatus `gorm:"size:16;index;not null;default:'pending'" json:"status"`
	TxSignature    string      `gorm:"size:128" json:"tx_signature,omitempty"`
	ClaimedAt      *time.Time  `json:"claimed_at,omitempty"`
	ExpiredAt      *time.Time  `json:"expired_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (c *RewardClaim) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Buyback is append only.
type Buyback struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ProfitPeriodID string    `gorm:"index;size:36;not null" json:"profit_period_id"`
	AmountSol      float64   `gorm:"not null" json:"amount_sol"`
	TokensBought   float64   `gorm:"not null" json:"tokens_bought"`
	TokensBurned   float64   `gorm:"not null" json:"tokens_burned"`
	TxSignature    string    `gorm:"size:128;not null" json:"tx_signature"`
	ExecutedAt     time.Time `gorm:"index;not null" json:"executed_at"`
}

func (b *Buyback) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Stake{}, &StakeSnapshot{}, &ProfitPeriod{}, &RewardClaim{}, &Buyback{},
	}
}

// ClaimFilter narrows claim listings. Zero fields match everything.
type ClaimFilter struct {
	PeriodID string
	Wallet   string
	Status   ClaimStatus
}
