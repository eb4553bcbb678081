package routes

import (
	"teambuilder/internal/handlers"
	"teambuilder/internal/middleware"
	"teambuilder/pkg/logger"
	"teambuilder/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins []string
	MetricsPath    string
}

type Handlers struct {
	User   *handlers.UserHandler
	Team   *handlers.TeamHandler
	Health *handlers.HealthHandler
}

// NewRouter builds the engine with the shared middleware chain. m may be nil
// to disable /metrics.
func NewRouter(cfg RouterConfig, h Handlers, verifier middleware.TokenVerifier, log *logger.Logger, m *metrics.Metrics) *gin.Engine {
	if log == nil {
		log = logger.NewNop()
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.LoggingMiddleware(log, m),
	)

	r.GET("/health", h.Health.Health)
	if m != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	SetupUserRoutes(v1, h.User, verifier)
	SetupAdminRoutes(v1, h.User, h.Team, verifier)

	return r
}
