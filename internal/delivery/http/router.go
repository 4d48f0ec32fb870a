package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shodhacode/judge/internal/delivery/http/middleware"
	"github.com/shodhacode/judge/internal/language"
	"github.com/shodhacode/judge/internal/usecase"
)

// RouterDeps bundles everything the router wires into handlers.
type RouterDeps struct {
	SubmitUC     *usecase.SubmitSubmissionUsecase
	GetUC        *usecase.GetSubmissionUsecase
	ProblemsUC   *usecase.ProblemsUsecase
	Languages    *language.Table
	HealthChecks map[string]HealthCheck
	Logger       *zap.Logger

	// RateLimit is the per-IP submission limit per minute; 0 disables it.
	RateLimit    int
	MaxBodyBytes int64
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	logger := deps.Logger
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.BodySizeLimit(deps.MaxBodyBytes))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		healthHandler := NewHealthHandler(deps.HealthChecks, logger)
		api.GET("/health", healthHandler.Health)

		langHandler := NewLanguageHandler(deps.Languages)
		api.GET("/languages", langHandler.List)

		problemHandler := NewProblemHandler(deps.ProblemsUC, logger)
		api.GET("/problems", problemHandler.List)
		api.GET("/problems/:id", problemHandler.GetByID)

		// Only intake is rate limited; status polling is not.
		subHandler := NewSubmissionHandler(deps.SubmitUC, deps.GetUC, logger)
		api.POST("/submissions", middleware.RateLimiter(deps.RateLimit), subHandler.Submit)
		api.GET("/submissions", subHandler.List)
		api.GET("/submissions/:id", subHandler.GetByID)

		wsHandler := NewWebSocketHandler(deps.GetUC, logger)
		api.GET("/submissions/:id/stream", wsHandler.Stream)
	}

	return router
}
