package api_gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banking-ledger-core/internal/api_gateway/handler"
	"github.com/banking-ledger-core/internal/api_gateway/middleware"
	"github.com/banking-ledger-core/internal/platform/metrics"
)

// HealthChecker is a dependency probed by /health
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type routes struct {
	accounts     *handler.AccountHandler
	transactions *handler.TransactionHandler
	admin        *handler.AdminHandler
	metrics      *metrics.Metrics
	// metricsHandler is mounted on metricsPath when not nil
	metricsHandler http.Handler
	metricsPath    string
	health         map[string]HealthChecker
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, rt routes) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.ClientIP())
	r.Use(middleware.Logger(logger))
	r.Use(rt.metrics.Middleware())

	v1 := r.Group("/api/v1")
	{
		// Account holder operations
		user := v1.Group("", middleware.RequireActor(middleware.UserIDHeader))
		{
			accounts := user.Group("/accounts")
			accounts.POST("", rt.accounts.Create)
			accounts.GET("/:id", rt.accounts.GetByID)
			accounts.GET("/:id/transactions", rt.accounts.GetHistory)
			accounts.POST("/:id/limit-upgrades", rt.transactions.RequestLimitUpgrade)

			transactions := user.Group("/transactions")
			transactions.POST("", rt.transactions.Create)
			transactions.GET("/:id", rt.transactions.GetByID)
		}

		// Administrative operations
		admin := v1.Group("/admin", middleware.RequireActor(middleware.AdminIDHeader))
		{
			admin.POST("/transactions/:id/reverse", rt.admin.ReverseTransaction)
			admin.GET("/flagged-transactions", rt.admin.ListFlagged)
			admin.POST("/flagged-transactions/:id/review", rt.admin.ReviewFlagged)
			admin.GET("/limit-upgrades", rt.admin.ListUpgrades)
			admin.POST("/limit-upgrades/:id/approve", rt.admin.ApproveUpgrade)
			admin.POST("/limit-upgrades/:id/reject", rt.admin.RejectUpgrade)
		}
	}

	r.GET("/health", healthHandler(rt.health))

	if rt.metricsHandler != nil {
		r.GET(rt.metricsPath, gin.WrapH(rt.metricsHandler))
	}
}

// healthHandler reports 503 when any dependency fails its ping
func healthHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				components[name] = err.Error()
				continue
			}
			components[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "components": components, "timestamp": time.Now().UTC()})
	}
}
