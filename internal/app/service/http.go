package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"server-profit-app/config"
	"server-profit-app/internal/app/access"
	"server-profit-app/internal/app/profit"
	"server-profit-app/internal/pkg/middleware"
	"server-profit-app/internal/pkg/metrics"
)

var srv *http.Server

// Deps holds everything the routes need.
type Deps struct {
	DB     *gorm.DB
	Clock  clockwork.Clock
	Profit *profit.Handler
	Access *access.Handler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware)
	pprof.Register(r)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", health(d.DB))

	api := r.Group("/api")
	api.POST("/check-balance", d.Access.CheckBalance)
	api.GET("/claims/:wallet", d.Profit.PendingClaims)

	admin := r.Group("/admin")
	admin.Use(middleware.AdminSign(config.Server.AdminSecret, d.Clock))
	admin.GET("/dashboard", d.Profit.Dashboard)
	admin.GET("/stakes", d.Profit.ListStakes)
	admin.POST("/stakes", d.Profit.RegisterStake)
	admin.POST("/stakes/verify", d.Profit.VerifyStakes)
	admin.GET("/stakes/:wallet/snapshots", d.Profit.StakeSnapshots)
	admin.GET("/periods", d.Profit.ListPeriods)
	admin.POST("/periods", d.Profit.PostPeriod)
	admin.GET("/periods/:id/summary", d.Profit.PeriodSummary)
	admin.GET("/periods/:id/export", d.Profit.ExportPayouts)
	admin.GET("/claims", d.Profit.ListClaims)
	admin.POST("/claims", d.Profit.SettleClaim)
	admin.POST("/claims/expire", d.Profit.ExpireClaims)
	admin.GET("/buybacks", d.Profit.ListBuybacks)
	admin.POST("/buybacks", d.Profit.RecordBuyback)
	return r
}

func health(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		err := ping(c.Request.Context(), gdb)
		latency := time.Since(start).Milliseconds()
		if err != nil {
			log.Warnf("health check: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down", "latencyMs": latency})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up", "latencyMs": latency})
	}
}

func ping(ctx context.Context, gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("no database")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func RunHttp(d Deps) {
	srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler: NewRouter(d),
	}

	log.Infof("Start to listen %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("listen: %s\n", err)
	}
}

func GetHttp() *http.Server {
	return srv
}
