package access

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"server-profit-app/internal/app/client"
	"server-profit-app/internal/app/profit"
	"server-profit-app/internal/app/ratelimit"
	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
	"server-profit-app/internal/pkg/metrics"
)

type Handler struct {
	oracle   profit.BalanceOracle
	limiter  ratelimit.Limiter
	registry *profit.Registry
	clock    clockwork.Clock
}

func NewHandler(oracle profit.BalanceOracle, limiter ratelimit.Limiter, registry *profit.Registry, clock clockwork.Clock) *Handler {
	return &Handler{oracle: oracle, limiter: limiter, registry: registry, clock: clock}
}

type balanceResp struct {
	Tier
	Balance float64      `json:"balance"`
	Stake   *model.Stake `json:"stake"`
}

// CheckBalance returns the access tier of a wallet and its stake, if any.
// Requests are limited per wallet.
func (h *Handler) CheckBalance(c *gin.Context) {
	req := struct {
		Wallet string `json:"wallet" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, generr.InvalidWallet)
		return
	}
	if !client.ValidWallet(req.Wallet) {
		c.JSON(http.StatusBadRequest, generr.InvalidWallet)
		return
	}

	ctx := c.Request.Context()
	res, err := h.limiter.Allow(ctx, req.Wallet)
	if err != nil {
		// limiter backend down, let the request through
		log.Warnf("rate limit check failed: %v", err)
	} else {
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
		if !res.Allowed {
			retry := int(res.ResetAt.Sub(h.clock.Now()).Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			metrics.RateLimitedTotal.Inc()
			c.JSON(http.StatusTooManyRequests, generr.RateLimited)
			return
		}
	}

	start := time.Now()
	balance, err := h.oracle.TokenBalance(ctx, req.Wallet)
	metrics.RecordBalanceLookup(time.Since(start), err)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "check token balance"))
		c.JSON(http.StatusBadGateway, generr.BalanceLookup)
		return
	}

	stake, err := h.registry.Get(ctx, req.Wallet)
	if err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "get stake"))
		c.JSON(http.StatusInternalServerError, generr.ReadDB)
		return
	}

	c.JSON(http.StatusOK, generr.OK(balanceResp{Tier: TierFor(balance), Balance: balance, Stake: stake}))
}
