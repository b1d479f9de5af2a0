// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/journeytrack-go/internal/application/container"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	eventHandlers := handlers.NewEventHandlers(container.EventProcessingService, container.Logger, container.PerfTracker)
	visitHandlers := handlers.NewVisitHandlers(container.SessionService, container.Logger, container.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.DashboardAnalyticsService, container.Logger, container.PerfTracker)
	streamHandlers := handlers.NewStreamHandlers(container.Broadcaster, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container.ProjectManager, container.PerfTracker)

	r.GET("/api/v1/health", healthHandlers.GetHealth)

	// API routes with project middleware
	api := r.Group("/api/v1")
	api.Use(middleware.ProjectMiddleware(container.ProjectManager, container.PerfTracker))
	{
		// Ingestion endpoints, guarded by the project API key
		ingest := api.Group("")
		ingest.Use(middleware.APIKeyMiddleware())
		{
			ingest.POST("/events", eventHandlers.PostEvents)
			ingest.POST("/visit", visitHandlers.PostVisit)
			ingest.POST("/identify", visitHandlers.PostIdentify)
		}

		// Dashboard authentication
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Analytics endpoints behind dashboard JWT
		analytics := api.Group("/analytics")
		analytics.Use(authHandlers.AuthMiddleware())
		{
			analytics.GET("/dashboard", analyticsHandlers.HandleDashboard)
			analytics.GET("/events", analyticsHandlers.HandleTopEvents)
			analytics.GET("/sessions", analyticsHandlers.HandleSessions)
			analytics.GET("/leads", analyticsHandlers.HandleLeads)
		}

		// Live event stream for the dashboard
		api.GET("/events/stream", authHandlers.AuthMiddleware(), streamHandlers.GetStream)
	}

	// Compatibility alias for older tracking clients.
	legacy := r.Group("/track")
	legacy.Use(middleware.ProjectMiddleware(container.ProjectManager, container.PerfTracker))
	legacy.Use(middleware.APIKeyMiddleware())
	{
		legacy.POST("/batch", eventHandlers.PostEvents)
	}

	return r
}
