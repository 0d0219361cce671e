package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server-profit-app/config"
	"server-profit-app/internal/app/access"
	"server-profit-app/internal/app/profit"
	"server-profit-app/internal/app/ratelimit"
	"server-profit-app/internal/dao"
	"server-profit-app/internal/pkg/middleware"
	"server-profit-app/internal/pkg/testutil"
	"server-profit-app/internal/pkg/util"
)

const secret = "test-admin-secret"

type zeroOracle struct{}

func (zeroOracle) TokenBalance(context.Context, string) (float64, error) { return 0, nil }

func newTestRouter(t *testing.T) (*gin.Engine, clockwork.FakeClock) {
	gin.SetMode(gin.TestMode)
	config.Server.AdminSecret = secret
	t.Cleanup(func() { config.Server.AdminSecret = "" })

	gdb := testutil.NewTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	stakes, periods := dao.NewStake(gdb), dao.NewPeriod(gdb)
	claims, buybacks := dao.NewClaim(gdb), dao.NewBuyback(gdb)
	registry := profit.NewRegistry(stakes, zeroOracle{}, clock, 0)

	return NewRouter(Deps{
		DB:    gdb,
		Clock: clock,
		Profit: &profit.Handler{
			Registry:   registry,
			Ledger:     profit.NewLedger(periods, clock),
			Calculator: profit.NewCalculator(stakes, periods, claims),
			Recorder:   profit.NewRecorder(claims, buybacks, clock),
			Reporter:   profit.NewReporter(stakes, periods, claims, buybacks),
			ClaimTTL:   profit.DefaultClaimTTL,
		},
		Access: access.NewHandler(zeroOracle{}, ratelimit.NewLocal(clock, 15*time.Minute, 10), registry, clock),
	}), clock
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
}

func TestHealthWithoutDB(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", health(nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminRequiresSign(t *testing.T) {
	r, clock := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ts := clock.Now().Unix()
	body := `{"action":"create","periodStart":"2024-02-01","periodEnd":"2024-02-29"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/periods", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(middleware.HeaderSign, util.GenSignCode(secret, ts, []byte(body)))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"open"`)
}

func TestPublicRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/claims/11111111111111111111111111111111", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/check-balance",
		strings.NewReader(`{"wallet":"11111111111111111111111111111111"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"level":"none"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfitTickerSchedulesPrune(t *testing.T) {
	saved := config.Profit
	t.Cleanup(func() { config.Profit = saved })
	config.Profit.VerifySchedule = "0 0 0 * * *"
	config.Profit.ExpirySchedule = "0 30 0 * * *"
	config.Profit.RateLimitWindowSec = 900

	clock := clockwork.NewFakeClock()
	local, err := ProfitTicker(nil, nil, profit.DefaultClaimTTL, ratelimit.NewLocal(clock, time.Minute, 1))
	require.NoError(t, err)
	defer local.Stop()
	assert.Len(t, local.Entries(), 3)

	shared, err := ProfitTicker(nil, nil, profit.DefaultClaimTTL, ratelimit.NewRedis(nil, clock, time.Minute, 1))
	require.NoError(t, err)
	defer shared.Stop()
	assert.Len(t, shared.Entries(), 2)
}
