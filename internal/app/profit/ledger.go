package profit

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
	"server-profit-app/internal/pkg/util"
)

// Profit split, in percent of net profit. The team takes the remainder.
var (
	stakerShare  = decimal.NewFromInt(20)
	buybackShare = decimal.NewFromInt(30)
	hundred      = decimal.NewFromInt(100)
)

// Split holds the three allocations of a period's net profit.
type Split struct {
	NetProfit  float64
	StakerPool float64
	Buyback    float64
	Team       float64
}

// SplitProfit computes net = max(0, revenue-costs) and the 20/30/50 split.
// The three parts sum to net exactly in decimal.
func SplitProfit(revenue, costs float64) Split {
	net := decimal.NewFromFloat(revenue).Sub(decimal.NewFromFloat(costs))
	if net.IsNegative() {
		net = decimal.Zero
	}
	staker := net.Mul(stakerShare).Div(hundred)
	buyback := net.Mul(buybackShare).Div(hundred)
	team := net.Sub(staker).Sub(buyback)

	return Split{
		NetProfit:  net.InexactFloat64(),
		StakerPool: staker.InexactFloat64(),
		Buyback:    buyback.InexactFloat64(),
		Team:       team.InexactFloat64(),
	}
}

// Ledger owns the period state machine open -> calculating -> distributed.
type Ledger struct {
	periods PeriodStore
	clock   clockwork.Clock
}

func NewLedger(periods PeriodStore, clock clockwork.Clock) *Ledger {
	return &Ledger{periods: periods, clock: clock}
}

// CreatePeriod opens a period covering [start, end). Both are truncated
// to UTC dates.
func (l *Ledger) CreatePeriod(ctx context.Context, start, end time.Time) (*model.ProfitPeriod, error) {
	start, end = util.DateOf(start), util.DateOf(end)
	if !start.Before(end) {
		return nil, generr.Validation("period start %s must be before end %s",
			util.DateString(start), util.DateString(end))
	}

	p := &model.ProfitPeriod{PeriodStart: start, PeriodEnd: end, Status: model.PeriodOpen}
	if err := l.periods.Create(ctx, p); err != nil {
		return nil, generr.Persistence(err, "create period")
	}
	return p, nil
}

// RecordFinancials stores revenue and costs, derives the split and moves
// the period to calculating. Re-recording overwrites until the period is
// distributed.
func (l *Ledger) RecordFinancials(ctx context.Context, id string, revenue, costs float64) (*model.ProfitPeriod, error) {
	if revenue < 0 || costs < 0 {
		return nil, generr.Validation("revenue and costs must not be negative")
	}

	p, err := l.periods.Get(ctx, id)
	if err != nil {
		return nil, generr.Persistence(err, "get period")
	}
	if p == nil {
		return nil, generr.NotFound("period %s", id)
	}
	if p.Status == model.PeriodDistributed {
		return nil, generr.InvalidState("period %s is already distributed", id)
	}

	split := SplitProfit(revenue, costs)
	p.TotalRevenue = revenue
	p.TotalCosts = costs
	p.NetProfit = split.NetProfit
	p.StakerPool = split.StakerPool
	p.BuybackAmount = split.Buyback
	p.TeamAmount = split.Team
	p.Status = model.PeriodCalculating

	ok, err := l.periods.UpdateFinancials(ctx, p)
	if err != nil {
		return nil, generr.Persistence(err, "update period financials")
	}
	if !ok {
		return nil, generr.InvalidState("period %s is already distributed", id)
	}
	return p, nil
}

// MarkDistributed closes a calculating period.
func (l *Ledger) MarkDistributed(ctx context.Context, id string) (*model.ProfitPeriod, error) {
	ok, err := l.periods.Distribute(ctx, id, l.clock.Now())
	if err != nil {
		return nil, generr.Persistence(err, "distribute period")
	}

	p, err := l.periods.Get(ctx, id)
	if err != nil {
		return nil, generr.Persistence(err, "get period")
	}
	if p == nil {
		return nil, generr.NotFound("period %s", id)
	}
	if !ok {
		return nil, generr.InvalidState("period %s is %s, want %s", id, p.Status, model.PeriodCalculating)
	}
	return p, nil
}

// Get returns nil, nil for an unknown id.
func (l *Ledger) Get(ctx context.Context, id string) (*model.ProfitPeriod, error) {
	p, err := l.periods.Get(ctx, id)
	return p, generr.Persistence(err, "get period")
}

// List returns periods, latest period_end first.
func (l *Ledger) List(ctx context.Context) ([]model.ProfitPeriod, error) {
	ps, err := l.periods.List(ctx)
	return ps, generr.Persistence(err, "list periods")
}
