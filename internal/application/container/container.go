// Package container provides dependency injection for all singleton services
package container

import (
	"log"
	"os"

	"github.com/AtRiskMedia/journeytrack-go/internal/application/services"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	EventProcessingService    *services.EventProcessingService
	SessionService            *services.SessionService
	DashboardAnalyticsService *services.DashboardAnalyticsService
	AuthService               *services.AuthService
	DigestService             *services.DigestService

	// Infrastructure dependencies
	ProjectManager *project.Manager
	CacheManager   *manager.Manager
	Broadcaster    *messaging.EventBroadcaster
	EmailService   email.Service
	Logger         *logging.ChanneledLogger
	PerfTracker    *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(projectManager *project.Manager, logger *logging.ChanneledLogger) *Container {
	perfTracker := performance.NewTracker(nil)
	cacheManager := projectManager.GetCacheManager()
	broadcaster := messaging.NewEventBroadcaster(cacheManager, logger)

	var emailService email.Service
	if os.Getenv("RESEND_API_KEY") != "" {
		svc, err := email.NewService()
		if err != nil {
			log.Printf("Email service unavailable: %v", err)
		} else {
			emailService = svc
		}
	}

	c := &Container{
		EventProcessingService:    services.NewEventProcessingService(broadcaster, logger, perfTracker),
		SessionService:            services.NewSessionService(logger, perfTracker),
		DashboardAnalyticsService: services.NewDashboardAnalyticsService(logger, perfTracker),
		AuthService:               services.NewAuthService(logger, perfTracker),

		ProjectManager: projectManager,
		CacheManager:   cacheManager,
		Broadcaster:    broadcaster,
		EmailService:   emailService,
		Logger:         logger,
		PerfTracker:    perfTracker,
	}

	c.DigestService = services.NewDigestService(projectManager, emailService, logger)

	return c
}
