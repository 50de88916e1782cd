package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wagerledger/metrics"
	"wagerledger/service"
)

// RouterConfig holds everything the HTTP API is built from
type RouterConfig struct {
	Ledger      service.LedgerService
	Withdrawals service.WithdrawalService
	Metrics     *metrics.LedgerMetrics
	Gatherer    prometheus.Gatherer

	// Clock, when set, is exposed under /api/dev/clock
	Clock *service.ManualClock
}

// NewRouter builds the gin engine serving the ledger API
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), MetricsMiddleware(cfg.Metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	ledgerHandler := NewLedgerHandler(cfg.Ledger, cfg.Metrics)
	withdrawalHandler := NewWithdrawalHandler(cfg.Withdrawals, cfg.Metrics)

	api := router.Group("/api")
	{
		api.GET("/parameters", ledgerHandler.GetParameters)

		users := api.Group("/users/:userID")
		{
			users.POST("", ledgerHandler.InitializeUser)
			users.GET("", ledgerHandler.GetLedger)
			users.POST("/deposits", ledgerHandler.Deposit)
			users.POST("/bets", ledgerHandler.PlaceBet)
			users.GET("/bets", ledgerHandler.GetBets)
			users.GET("/history", ledgerHandler.GetHistory)

			withdrawal := users.Group("/withdrawal")
			{
				withdrawal.POST("", withdrawalHandler.RequestWithdrawal)
				withdrawal.GET("", withdrawalHandler.GetWithdrawal)
				withdrawal.POST("/approve", withdrawalHandler.Approve)
				withdrawal.POST("/execute", withdrawalHandler.Execute)
			}
		}

		if cfg.Clock != nil {
			clockHandler := NewClockHandler(cfg.Clock)
			dev := api.Group("/dev")
			{
				dev.GET("/clock", clockHandler.Get)
				dev.POST("/clock/advance", clockHandler.Advance)
			}
		}
	}

	return router
}
