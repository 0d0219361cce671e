package profit

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"server-profit-app/internal/app/client"
	"server-profit-app/internal/model"
	"server-profit-app/internal/pkg/generr"
	"server-profit-app/internal/pkg/util"
)

// Handler exposes the profit sharing program over HTTP.
type Handler struct {
	Registry   *Registry
	Ledger     *Ledger
	Calculator *Calculator
	Recorder   *Recorder
	Reporter   *Reporter
	ClaimTTL   time.Duration
}

func fail(c *gin.Context, desc string, err error) {
	status, body := generr.Response(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("err: %+v", errors.Wrap(err, desc))
	}
	c.JSON(status, body)
}

func (h *Handler) Dashboard(c *gin.Context) {
	st, err := h.Reporter.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, "dashboard", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(st))
}

func (h *Handler) ListStakes(c *gin.Context) {
	stakes, err := h.Registry.List(c.Request.Context())
	if err != nil {
		fail(c, "list stakes", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(stakes))
}

func (h *Handler) StakeSnapshots(c *gin.Context) {
	wallet := c.Param("wallet")
	if !client.ValidWallet(wallet) {
		c.JSON(http.StatusBadRequest, generr.InvalidWallet)
		return
	}
	snaps, err := h.Registry.Snapshots(c.Request.Context(), wallet)
	if err != nil {
		fail(c, "stake snapshots", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(snaps))
}

// RegisterStake upserts a wallet with its live token balance.
func (h *Handler) RegisterStake(c *gin.Context) {
	req := struct {
		Wallet string `json:"wallet" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	if !client.ValidWallet(req.Wallet) {
		c.JSON(http.StatusBadRequest, generr.InvalidWallet)
		return
	}

	s, err := h.Registry.Register(c.Request.Context(), req.Wallet)
	if err != nil {
		if generr.KindOf(err) == generr.KindUnknown {
			log.Errorf("err: %+v", errors.Wrap(err, "register stake"))
			c.JSON(http.StatusBadGateway, generr.BalanceLookup)
			return
		}
		fail(c, "register stake", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(s))
}

func (h *Handler) VerifyStakes(c *gin.Context) {
	rep, err := h.Registry.VerifyAll(c.Request.Context())
	if err != nil {
		fail(c, "verify stakes", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(rep))
}

func (h *Handler) ListPeriods(c *gin.Context) {
	ps, err := h.Ledger.List(c.Request.Context())
	if err != nil {
		fail(c, "list periods", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(ps))
}

// PostPeriod runs one period action: create, record, calculate or
// distribute.
func (h *Handler) PostPeriod(c *gin.Context) {
	req := struct {
		Action      string   `json:"action" binding:"required"`
		PeriodID    string   `json:"periodId"`
		PeriodStart string   `json:"periodStart"`
		PeriodEnd   string   `json:"periodEnd"`
		Revenue     *float64 `json:"revenue"`
		Costs       *float64 `json:"costs"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case "create":
		start, err := util.ParseDate(req.PeriodStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, generr.ParseParam)
			return
		}
		end, err := util.ParseDate(req.PeriodEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, generr.ParseParam)
			return
		}
		p, err := h.Ledger.CreatePeriod(ctx, start, end)
		if err != nil {
			fail(c, "create period", err)
			return
		}
		c.JSON(http.StatusOK, generr.OK(p))

	case "record":
		if req.PeriodID == "" || req.Revenue == nil || req.Costs == nil {
			c.JSON(http.StatusBadRequest, generr.ParseParam)
			return
		}
		p, err := h.Ledger.RecordFinancials(ctx, req.PeriodID, *req.Revenue, *req.Costs)
		if err != nil {
			fail(c, "record financials", err)
			return
		}
		c.JSON(http.StatusOK, generr.OK(p))

	case "calculate":
		if req.PeriodID == "" {
			c.JSON(http.StatusBadRequest, generr.ParseParam)
			return
		}
		claims, err := h.Calculator.Calculate(ctx, req.PeriodID)
		if err != nil {
			fail(c, "calculate rewards", err)
			return
		}
		c.JSON(http.StatusOK, generr.OK(gin.H{"claims": claims, "count": len(claims)}))

	case "distribute":
		if req.PeriodID == "" {
			c.JSON(http.StatusBadRequest, generr.ParseParam)
			return
		}
		p, err := h.Ledger.MarkDistributed(ctx, req.PeriodID)
		if err != nil {
			fail(c, "mark distributed", err)
			return
		}
		c.JSON(http.StatusOK, generr.OK(p))

	default:
		c.JSON(http.StatusBadRequest, generr.PeriodAction)
	}
}

func (h *Handler) PeriodSummary(c *gin.Context) {
	sum, err := h.Reporter.PeriodSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, "period summary", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(sum))
}

// ExportPayouts serves the pending payouts of a period as a text file.
func (h *Handler) ExportPayouts(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	p, err := h.Ledger.Get(ctx, id)
	if err != nil {
		fail(c, "get period", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, generr.PeriodNotFound)
		return
	}
	claims, err := h.Recorder.ListClaims(ctx, model.ClaimFilter{PeriodID: id, Status: model.ClaimPending})
	if err != nil {
		fail(c, "list claims", err)
		return
	}

	var buf bytes.Buffer
	if _, err = WritePayouts(&buf, claims); err != nil {
		fail(c, "write payouts", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", PayoutFileName(id, time.Now())))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *Handler) ListClaims(c *gin.Context) {
	req := struct {
		PeriodID string `form:"periodId"`
		Wallet   string `form:"wallet"`
		Status   string `form:"status"`
	}{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}
	claims, err := h.Recorder.ListClaims(c.Request.Context(), model.ClaimFilter{
		PeriodID: req.PeriodID,
		Wallet:   req.Wallet,
		Status:   model.ClaimStatus(req.Status),
	})
	if err != nil {
		fail(c, "list claims", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(claims))
}

// SettleClaim records the payout transaction of a claim.
func (h *Handler) SettleClaim(c *gin.Context) {
	req := struct {
		ClaimID     string `json:"claimId" binding:"required"`
		TxSignature string `json:"txSignature" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}
	if !util.IsTxSignature(req.TxSignature) {
		c.JSON(http.StatusBadRequest, generr.InvalidTxSig)
		return
	}
	if err := h.Recorder.Settle(c.Request.Context(), req.ClaimID, req.TxSignature); err != nil {
		fail(c, "settle claim", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(nil))
}

func (h *Handler) ExpireClaims(c *gin.Context) {
	n, err := h.Recorder.ExpireClaims(c.Request.Context(), h.ClaimTTL)
	if err != nil {
		fail(c, "expire claims", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(gin.H{"expired": n}))
}

func (h *Handler) ListBuybacks(c *gin.Context) {
	bs, err := h.Recorder.ListBuybacks(c.Request.Context(), c.Query("periodId"))
	if err != nil {
		fail(c, "list buybacks", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(bs))
}

func (h *Handler) RecordBuyback(c *gin.Context) {
	req := struct {
		PeriodID     string  `json:"periodId" binding:"required"`
		AmountSol    float64 `json:"amountSol" binding:"gte=0"`
		TokensBought float64 `json:"tokensBought" binding:"gte=0"`
		TokensBurned float64 `json:"tokensBurned" binding:"gte=0"`
		TxSignature  string  `json:"txSignature" binding:"required"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Errorf("err: %+v", errors.Wrap(err, "should bind"))
		c.JSON(http.StatusBadRequest, generr.ParseParam)
		return
	}
	if !util.IsTxSignature(req.TxSignature) {
		c.JSON(http.StatusBadRequest, generr.InvalidTxSig)
		return
	}

	ctx := c.Request.Context()
	p, err := h.Ledger.Get(ctx, req.PeriodID)
	if err != nil {
		fail(c, "get period", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, generr.PeriodNotFound)
		return
	}
	if !h.Recorder.RecordBuyback(ctx, req.PeriodID, req.AmountSol, req.TokensBought, req.TokensBurned, req.TxSignature) {
		c.JSON(http.StatusInternalServerError, generr.BuybackNotSaved)
		return
	}
	c.JSON(http.StatusOK, generr.OK(nil))
}

// PendingClaims lists the unsettled rewards of one wallet.
func (h *Handler) PendingClaims(c *gin.Context) {
	claims, err := h.Recorder.PendingClaims(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		fail(c, "pending claims", err)
		return
	}
	c.JSON(http.StatusOK, generr.OK(claims))
}
