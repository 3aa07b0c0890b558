package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PratikDhanave/analytics-portal/internal/auth"
	"github.com/PratikDhanave/analytics-portal/internal/config"
	"github.com/PratikDhanave/analytics-portal/internal/handlers"
	"github.com/PratikDhanave/analytics-portal/internal/logger"
	"github.com/PratikDhanave/analytics-portal/internal/metrics"
	"github.com/PratikDhanave/analytics-portal/internal/store"
)

// registerHealth wires the liveness and readiness probes shared by both
// services.
func registerHealth(r *gin.Engine, st *store.Store) {
	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}

// NewAPIRouter builds the ingestion service router.
// Public: /health, /ready, /metrics. Ingestion: POST /analytics.
func NewAPIRouter(st *store.Store, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))

	registerHealth(r, st)
	r.GET("/metrics", metrics.Handler())

	handlers.RegisterAnalyticsRoutes(r, st, log)

	return r
}

// NewDashboardRouter builds the admin dashboard router. The operator surface
// is session-gated behind the shared admin secret.
func NewDashboardRouter(cfg config.Config, st *store.Store, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))
	r.SetHTMLTemplate(handlers.DashboardTemplates())

	registerHealth(r, st)

	sessions := auth.NewSessions(cfg.AdminPassword)
	handlers.RegisterDashboardRoutes(r, st, sessions, log)

	return r
}
