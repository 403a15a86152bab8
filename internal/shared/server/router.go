package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venue-recommender/internal/recommend"
	"venue-recommender/internal/services/health"
	"venue-recommender/internal/shared/config"
	"venue-recommender/internal/shared/metrics"
	"venue-recommender/internal/shared/server/middleware"
	"venue-recommender/internal/shared/server/respond"
)

const pollingGroup = "POLLING"

// RouterDeps carries what the router needs from bootstrap.
type RouterDeps struct {
	Config           config.Config
	RecommendHandler *recommend.Handler
	Health           *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.Server.CORSAllowOrigins),
	)

	r.GET("/status/am-i-up", func(c *gin.Context) {
		respond.OK(c, gin.H{"message": "Service is running"})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		st := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !st.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, st)
	})

	limited := api.Group("")
	limited.Use(middleware.RateLimit(rateLimitConfig(cfg.Server)))
	if deps.RecommendHandler != nil {
		deps.RecommendHandler.RegisterRoutes(limited)
	}

	return r
}

// Run polling gets a larger bucket than recommend calls.
func rateLimitConfig(cfg config.ServerConfig) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT":    {Rate: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
			pollingGroup: {Rate: cfg.RateLimitRPS * 4, Burst: cfg.RateLimitBurst * 2},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet {
				return pollingGroup
			}
			return ""
		},
	}
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
