package service

import (
	"context"
	"time"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"

	"server-profit-app/config"
	"server-profit-app/internal/app/profit"
	"server-profit-app/internal/app/ratelimit"
	"server-profit-app/internal/app/warn"
)

// Pruner drops idle per-key state, as the in-process rate limiter does.
type Pruner interface {
	Prune()
}

// ProfitTicker schedules the daily stake verification and the claim expiry
// sweep, plus a prune of limiter once per rate limit window when it keeps
// state in process. The returned cron must be stopped on shutdown.
func ProfitTicker(registry *profit.Registry, recorder *profit.Recorder, ttl time.Duration, limiter ratelimit.Limiter) (*cron.Cron, error) {
	c := cron.New()
	cfg := config.Profit
	if err := c.AddFunc(cfg.VerifySchedule, func() { VerifyJob(registry) }); err != nil {
		return nil, err
	}
	if err := c.AddFunc(cfg.ExpirySchedule, func() { ExpiryJob(recorder, ttl) }); err != nil {
		return nil, err
	}
	if p, ok := limiter.(Pruner); ok {
		window := time.Duration(cfg.RateLimitWindowSec) * time.Second
		if window < time.Minute {
			window = time.Minute
		}
		c.Schedule(cron.Every(window), cron.FuncJob(p.Prune))
	}
	c.Start()
	return c, nil
}

func VerifyJob(registry *profit.Registry) {
	report, err := registry.VerifyAll(context.Background())
	if warn.Must("verify stakes", err) != nil {
		return
	}
	log.Infof("stake verification done: %+v", report)
}

func ExpiryJob(recorder *profit.Recorder, ttl time.Duration) {
	n, err := recorder.ExpireClaims(context.Background(), ttl)
	if warn.Must("expire claims", err) != nil {
		return
	}
	log.Infof("expired %d reward claims", n)
}
