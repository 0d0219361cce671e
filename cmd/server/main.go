package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"server-profit-app/config"
	"server-profit-app/internal/app/access"
	"server-profit-app/internal/app/client"
	"server-profit-app/internal/app/profit"
	"server-profit-app/internal/app/ratelimit"
	"server-profit-app/internal/app/service"
	"server-profit-app/internal/dao"
	"server-profit-app/internal/db"
	"server-profit-app/internal/pkg/logger"
)

func main() {
	flag.Parse()
	config.Init()
	logger.Init(config.Server.LogLevel, config.Server.LogFormat)
	db.Init()
	defer db.Close()

	clock := clockwork.NewRealClock()
	solCfg := config.Solana
	oracle, err := client.NewTokenBalances(client.NewRPC(solCfg.RPCURL), solCfg.TokenMint, solCfg.Commitment,
		time.Duration(solCfg.TimeoutSec)*time.Second)
	if err != nil {
		log.Fatalf("init token balance oracle: %+v", err)
	}

	profitCfg := config.Profit
	window := time.Duration(profitCfg.RateLimitWindowSec) * time.Second
	var limiter ratelimit.Limiter
	if config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
			PoolSize: config.Redis.PoolSize,
		})
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb, clock, window, profitCfg.RateLimitMaxRequest)
	} else {
		log.Warn("redis not configured, rate limiting per instance")
		limiter = ratelimit.NewLocal(clock, window, profitCfg.RateLimitMaxRequest)
	}

	stakes, periods := dao.NewStake(db.MysqlCli), dao.NewPeriod(db.MysqlCli)
	claims, buybacks := dao.NewClaim(db.MysqlCli), dao.NewBuyback(db.MysqlCli)
	registry := profit.NewRegistry(stakes, oracle, clock, profitCfg.StreakFloor)
	recorder := profit.NewRecorder(claims, buybacks, clock)
	ttl := time.Duration(profitCfg.ClaimTTLDays) * 24 * time.Hour

	go service.RunHttp(service.Deps{
		DB:    db.MysqlCli,
		Clock: clock,
		Profit: &profit.Handler{
			Registry:   registry,
			Ledger:     profit.NewLedger(periods, clock),
			Calculator: profit.NewCalculator(stakes, periods, claims),
			Recorder:   recorder,
			Reporter:   profit.NewReporter(stakes, periods, claims, buybacks),
			ClaimTTL:   ttl,
		},
		Access: access.NewHandler(oracle, limiter, registry, clock),
	})
	ticker, err := service.ProfitTicker(registry, recorder, ttl, limiter)
	if err != nil {
		log.Fatalf("schedule jobs: %+v", err)
	}

	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown Server ...")
	ticker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if srv := service.GetHttp(); srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server Shutdown:", err)
		}
	}
	log.Info("Server exiting")
}
