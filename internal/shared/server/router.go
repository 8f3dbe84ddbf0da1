package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/services/health"
	"docchat-backend/internal/shared/auth"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
)

// RouteRegistrar attaches routes to the authenticated API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps carries everything the router mounts. Nil registrars are skipped.
type RouterDeps struct {
	Config      config.Config
	Verifier    auth.Verifier
	Health      *health.Service
	RateLimiter *middleware.RateLimiter
	Handlers    []RouteRegistrar
}

// Public paths skip the bearer token check.
var publicPrefixes = []string{
	"/api/v1/health",
	"/api/v1/auth/google/",
}

// Rate limit groups by route.
var rateLimitGroups = map[string]string{
	"POST /api/v1/extract":               "EXTRACT",
	"POST /api/v1/documents/:id/extract": "EXTRACT",
	"POST /api/v1/chat":                  "CHAT",
}

// RateLimitRules are the token buckets per group.
var RateLimitRules = map[string]middleware.RateLimitRule{
	"EXTRACT": {Rate: 1, Burst: 5},
	"CHAT":    {Rate: 1, Burst: 5},
	"DEFAULT": {Rate: 5, Burst: 20},
}

// NewRouter constructs the Gin engine with middleware and routes registered.
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

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(deps.Verifier, publicPrefixes...),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:        RateLimitRules,
			DefaultGroup: "DEFAULT",
			GroupFor:     middleware.GroupForRoutes(rateLimitGroups),
			Limiter:      deps.RateLimiter,
		}),
	)

	healthSvc := deps.Health
	api.GET("/health", func(c *gin.Context) {
		status := healthSvc.Status(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})

	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

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
