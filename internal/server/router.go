package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/avilacode/bloomtrack-backend/internal/handlers"
	"github.com/avilacode/bloomtrack-backend/internal/middleware"
	"github.com/avilacode/bloomtrack-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware
	AdminRole      string
	AllowOrigins   []string
	ServiceName    string

	Diagnostic     *handlers.DiagnosticHandler
	Recommendation *handlers.RecommendationHandler
	Analytics      *handlers.AnalyticsHandler
	Activity       *handlers.ActivityHandler
	Content        *handlers.ContentHandler
	Admin          *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(cfg.Log))
	router.Use(otelgin.Middleware(serviceName(cfg)))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins(cfg),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// Diagnostics
		api.POST("/diagnostics/results", cfg.Diagnostic.Submit)
		api.GET("/diagnostics/results", cfg.Diagnostic.List)
		api.GET("/diagnostics/results/:id", cfg.Diagnostic.Get)
		// Recommendations
		api.GET("/recommendations", cfg.Recommendation.List)
		api.GET("/recommendations/:id", cfg.Recommendation.Get)
		// Analytics
		api.GET("/analytics/students/:id", cfg.Analytics.StudentSummary)
		api.GET("/analytics/cohort", cfg.Analytics.CohortSummary)
		// Activities
		api.POST("/activities", cfg.Activity.Create)
		api.GET("/activities", cfg.Activity.List)
		// Content
		api.GET("/modules", cfg.Content.ListModules)
		api.GET("/quizzes", cfg.Content.ListQuizzes)
		api.GET("/subjects/:id", cfg.Content.GetSubject)
	}

	// ===============
	// || Admin     ||
	// ===============
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireRole(adminRole(cfg)))
	{
		admin.DELETE("/:collection/purge", cfg.Admin.Purge)
	}

	return router
}

func serviceName(cfg RouterConfig) string {
	if strings.TrimSpace(cfg.ServiceName) != "" {
		return cfg.ServiceName
	}
	return "bloomtrack"
}

func adminRole(cfg RouterConfig) string {
	if cfg.AdminRole != "" {
		return cfg.AdminRole
	}
	return "admin"
}

func allowOrigins(cfg RouterConfig) []string {
	if len(cfg.AllowOrigins) > 0 {
		return cfg.AllowOrigins
	}
	return []string{
		"http://localhost:80",
		"http://localhost:3000",
		"http://localhost:5174",
	}
}
