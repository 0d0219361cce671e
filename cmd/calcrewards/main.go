// calcrewards computes the reward claims of one profit period and writes the
// payout file for the transfer script.
package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"server-profit-app/config"
	"server-profit-app/internal/app/profit"
	"server-profit-app/internal/dao"
	"server-profit-app/internal/db"
	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/logger"
)

var (
	periodID string
	outDir   string
)

func init() {
	flag.StringVar(&periodID, "period", "", "profit period id")
	flag.StringVar(&outDir, "out", ".", "payout file directory")
}

func main() {
	flag.Parse()
	if periodID == "" {
		log.Fatal("-period is required")
	}
	config.Init()
	logger.Init(config.Server.LogLevel, config.Server.LogFormat)
	db.Init()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	claimDao := dao.NewClaim(db.MysqlCli)
	calc := profit.NewCalculator(dao.NewStake(db.MysqlCli), dao.NewPeriod(db.MysqlCli), claimDao)
	claims, err := calc.Calculate(ctx, periodID)
	if err != nil {
		log.Fatalf("calculate period %s: %+v", periodID, err)
	}
	if len(claims) == 0 {
		log.Warnf("period %s produced no claims", periodID)
		return
	}

	pending, err := claimDao.List(ctx, model.ClaimFilter{PeriodID: periodID, Status: model.ClaimPending})
	if err != nil {
		log.Fatalf("list claims: %+v", err)
	}
	path, err := profit.WritePayoutFile(outDir, periodID, pending, time.Now())
	if err != nil {
		log.Fatalf("write payout file: %+v", err)
	}
	log.Infof("period %s: %d claims, payout file %s", periodID, len(claims), path)
}
