package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profit_app_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profit_app_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	StakeVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profit_app_stake_verifications_total",
			Help: "Stake verifications by outcome (eligible, waiting, reset, error)",
		},
		[]string{"result"},
	)

	RewardClaimsCalculated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profit_app_reward_claims_calculated_total",
			Help: "Reward claims written by the calculator",
		},
	)

	ClaimsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profit_app_claims_settled_total",
			Help: "Claim settlement attempts by status",
		},
		[]string{"status"},
	)

	ClaimsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profit_app_claims_expired_total",
			Help: "Pending claims moved to expired",
		},
	)

	BalanceLookupDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "profit_app_balance_lookup_duration_seconds",
			Help:    "Duration of token balance lookups against the RPC node",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"status"},
	)

	JobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profit_app_job_failures_total",
			Help: "Failed background jobs by job",
		},
		[]string{"job"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profit_app_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// Middleware records request counts and latency per route.
func Middleware(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
	HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
}

// RecordBalanceLookup records one oracle call.
func RecordBalanceLookup(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	BalanceLookupDuration.WithLabelValues(status).Observe(d.Seconds())
}

func RecordSettlement(ok bool) {
	if ok {
		ClaimsSettledTotal.WithLabelValues("claimed").Inc()
		return
	}
	ClaimsSettledTotal.WithLabelValues("failed").Inc()
}
