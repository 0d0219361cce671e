package profit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-profit-app/internal/model"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newRouter(e *env) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &Handler{
		Registry:   e.registry,
		Ledger:     e.ledger,
		Calculator: e.calc,
		Recorder:   e.recorder,
		Reporter:   e.reporter,
	}
	r := gin.New()
	r.GET("/api/claims/:wallet", h.PendingClaims)
	admin := r.Group("/admin")
	admin.GET("/dashboard", h.Dashboard)
	admin.GET("/stakes", h.ListStakes)
	admin.POST("/stakes", h.RegisterStake)
	admin.GET("/stakes/:wallet/snapshots", h.StakeSnapshots)
	admin.GET("/periods", h.ListPeriods)
	admin.POST("/periods", h.PostPeriod)
	admin.GET("/periods/:id/summary", h.PeriodSummary)
	admin.GET("/periods/:id/export", h.ExportPayouts)
	admin.GET("/claims", h.ListClaims)
	admin.POST("/claims", h.SettleClaim)
	admin.POST("/claims/expire", h.ExpireClaims)
	admin.GET("/buybacks", h.ListBuybacks)
	admin.POST("/buybacks", h.RecordBuyback)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func txSig() string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = byte(i + 1)
	}
	return base58.Encode(b)
}

func TestPeriodFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	r := newRouter(e)
	e.seedEligible(t, "A", 1000000, model.TierFull, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC))

	w, res := do(t, r, http.MethodPost, "/admin/periods",
		`{"action":"create","periodStart":"2024-01-01","periodEnd":"2024-02-01"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var p model.ProfitPeriod
	require.NoError(t, json.Unmarshal(res.Data, &p))
	require.NotEmpty(t, p.ID)

	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"calculate","periodId":"`+p.ID+`"}`)
	assert.Equal(t, http.StatusOK, w.Code, "open period has an empty pool")

	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"record","periodId":"`+p.ID+`","revenue":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"record","periodId":"`+p.ID+`","revenue":100,"costs":40}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, res = do(t, r, http.MethodPost, "/admin/periods", `{"action":"calculate","periodId":"`+p.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var calc struct {
		Claims []model.RewardClaim `json:"claims"`
		Count  int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &calc))
	require.Equal(t, 1, calc.Count)
	assert.InDelta(t, 12.0, calc.Claims[0].RewardAmount, 1e-9)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/periods/"+p.ID+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "A,12.000000\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "payout_"+p.ID)

	w, res = do(t, r, http.MethodGet, "/api/claims/A", "")
	require.Equal(t, http.StatusOK, w.Code)
	var pending []model.RewardClaim
	require.NoError(t, json.Unmarshal(res.Data, &pending))
	require.Len(t, pending, 1)

	w, res = do(t, r, http.MethodPost, "/admin/claims", `{"claimId":"`+pending[0].ID+`","txSignature":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 806, res.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/claims", `{"claimId":"`+pending[0].ID+`","txSignature":"`+txSig()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"calculate","periodId":"`+p.ID+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/buybacks",
		`{"periodId":"`+p.ID+`","amountSol":1.5,"tokensBought":1000,"tokensBurned":1000,"txSignature":"`+txSig()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"distribute","periodId":"`+p.ID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"distribute","periodId":"`+p.ID+`"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, res = do(t, r, http.MethodGet, "/admin/periods/"+p.ID+"/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sum PeriodSummary
	require.NoError(t, json.Unmarshal(res.Data, &sum))
	assert.InDelta(t, 12.0, sum.TotalClaimed, 1e-9)
	assert.Equal(t, 1000.0, sum.TotalBurned)

	w, res = do(t, r, http.MethodGet, "/admin/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	var dash DashboardStats
	require.NoError(t, json.Unmarshal(res.Data, &dash))
	assert.Equal(t, 1, dash.TotalStakers)
	require.NotNil(t, dash.CurrentPeriod)
	assert.Equal(t, model.PeriodDistributed, dash.CurrentPeriod.Status)
}

func TestPeriodErrorsOverHTTP(t *testing.T) {
	e := newEnv(t)
	r := newRouter(e)

	w, res := do(t, r, http.MethodPost, "/admin/periods", `{"action":"close"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 803, res.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/periods",
		`{"action":"create","periodStart":"2024-02-01","periodEnd":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/periods", `{"action":"record","periodId":"nope","revenue":1,"costs":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/admin/periods/nope/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/admin/periods/nope/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodGet, "/admin/claims?status=paid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/claims", `{"claimId":"nope","txSignature":"`+txSig()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/buybacks",
		`{"periodId":"nope","amountSol":1,"tokensBought":1,"tokensBurned":1,"txSignature":"`+txSig()+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/buybacks", `{"periodId":"p","amountSol":-1,"txSignature":"`+txSig()+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterStakeOverHTTP(t *testing.T) {
	e := newEnv(t)
	r := newRouter(e)
	const wallet = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	const poor = "11111111111111111111111111111111"

	w, res := do(t, r, http.MethodPost, "/admin/stakes", `{"wallet":"not-a-key"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 701, res.Code)

	w, _ = do(t, r, http.MethodPost, "/admin/stakes", `{"wallet":"`+wallet+`"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code, "oracle has no balance")

	e.oracle[wallet] = 2500000
	e.oracle[poor] = 10
	w, _ = do(t, r, http.MethodPost, "/admin/stakes", `{"wallet":"`+wallet+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodPost, "/admin/stakes", `{"wallet":"`+poor+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, res = do(t, r, http.MethodGet, "/admin/stakes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stakes []model.Stake
	require.NoError(t, json.Unmarshal(res.Data, &stakes))
	require.Len(t, stakes, 1)
	assert.Equal(t, model.TierFull, stakes[0].Tier)

	w, _ = do(t, r, http.MethodGet, "/admin/stakes/not-a-key/snapshots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := e.registry.Verify(context.Background(), wallet, 2400000)
	require.NoError(t, err)
	w, res = do(t, r, http.MethodGet, "/admin/stakes/"+wallet+"/snapshots", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snaps []model.StakeSnapshot
	require.NoError(t, json.Unmarshal(res.Data, &snaps))
	require.Len(t, snaps, 1)
	assert.Equal(t, 2400000.0, snaps[0].Balance)
	assert.True(t, snaps[0].StillEligible)
}
