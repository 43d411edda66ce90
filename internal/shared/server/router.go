package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-backend/internal/alerts"
	"compliance-backend/internal/documents"
	"compliance-backend/internal/findings"
	"compliance-backend/internal/orchestrator"
	"compliance-backend/internal/patterns"
	"compliance-backend/internal/scores"
	"compliance-backend/internal/shared/config"
	"compliance-backend/internal/shared/metrics"
	"compliance-backend/internal/shared/server/middleware"
	"compliance-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	FindingHandler  *findings.Handler
	PatternHandler  *patterns.Handler
	ScoreHandler    *scores.Handler
	AlertHandler    *alerts.Handler
	AnalysisHandler *orchestrator.Handler
}

// NewRouter constructs the gin engine with middleware and routes
// registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	limiter := middleware.NewRateLimiter(nil)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	deps.DocumentHandler.RegisterRoutes(api)
	deps.FindingHandler.RegisterRoutes(api)
	deps.PatternHandler.RegisterRoutes(api)
	deps.ScoreHandler.RegisterRoutes(api)
	deps.AlertHandler.RegisterRoutes(api)

	// Analysis runs are expensive LLM work; keep them behind a tighter
	// bucket than the read paths.
	analyze := api.Group("")
	analyze.Use(middleware.RateLimit(limiter, "analyze", middleware.RateLimitRule{Rate: 0.5, Burst: 3}))
	deps.AnalysisHandler.RegisterRoutes(analyze)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
