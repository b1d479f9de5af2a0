// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/application/container"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/cleanup"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/AtRiskMedia/journeytrack-go/internal/presentation/http/server"
	"github.com/gin-gonic/gin"
)

// Initialize performs the complete startup sequence
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("JourneyTrack collector starting...")

	// Step 1: Initialize structured logging
	logger, err := logging.NewChanneledLogger(nil)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Startup().Info("Channeled logging initialized")

	// Step 2: Initialize project system
	logger.Startup().Info("Initializing project system...")
	projectManager := project.NewManager(logger)

	// Step 3: Load project registry to discover all projects
	registry, err := project.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load project registry: %w", err)
	}
	if len(registry.Projects) == 0 {
		logger.Startup().Info("No projects found in registry, creating default project")
		if err := project.RegisterProject("default", "Default project"); err != nil {
			return fmt.Errorf("failed to register default project: %w", err)
		}
		registry, err = project.LoadRegistry()
		if err != nil {
			return fmt.Errorf("failed to reload registry: %w", err)
		}
	}
	logger.Startup().Info("Project registry loaded", "projects", len(registry.Projects))

	// Step 4: Pre-activate inactive projects
	logger.Startup().Info("Starting project pre-activation...")
	if err := projectManager.PreActivateAllProjects(); err != nil {
		logger.Startup().Warn("Project pre-activation incomplete", "error", err.Error())
	}

	activeCount, err := projectManager.GetActiveProjectCount()
	if err != nil {
		return fmt.Errorf("failed to get active project count: %w", err)
	}
	logger.Startup().Info("Project connections verified", "active", activeCount)

	// Step 5: Create dependency injection container
	logger.Startup().Info("Initializing dependency injection container...")
	appContainer := container.NewContainer(projectManager, logger)
	logger.Startup().Info("Container initialization complete")

	// Step 6: Start the live event broadcaster
	go appContainer.Broadcaster.Run()
	logger.Startup().Info("Event broadcaster started")

	// Step 7: Start background workers
	cleanupWorker := cleanup.NewWorker(appContainer.CacheManager, logger)
	cleanupWorker.Start()

	appContainer.DigestService.Start()

	// Step 8: Start HTTP server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"activeProjects", activeCount,
		"port", port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}

	logger.Shutdown().Info("Stopping background workers...")
	appContainer.DigestService.Stop()
	cleanupWorker.Stop()
	appContainer.Broadcaster.Stop()

	logger.Shutdown().Info("Closing project manager...")
	if err := projectManager.Close(); err != nil {
		logger.Shutdown().Error("Error closing project manager", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
