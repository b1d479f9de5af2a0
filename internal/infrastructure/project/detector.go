// Package project provides project detection and validation.
package project

import (
	"fmt"
	"strings"
	"sync"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// Detector resolves the owning project of an HTTP request
type Detector struct {
	registry *Registry
	apiKeys  map[string]string // api key -> project id
	mu       sync.RWMutex
	logger   *logging.ChanneledLogger
}

// NewDetector creates a new project detector
func NewDetector(logger *logging.ChanneledLogger) (*Detector, error) {
	d := &Detector{logger: logger}
	if err := d.RefreshRegistry(); err != nil {
		return nil, err
	}
	return d, nil
}

// DetectProject extracts the project ID from a request. SDK requests carry the
// project API key as a bearer token; dashboard requests identify the project
// with the X-JourneyTrack-Project-ID header. Websocket upgrades cannot set
// custom headers from the browser, so a projectId query parameter is accepted
// as a fallback.
func (d *Detector) DetectProject(c *gin.Context) (string, error) {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		apiKey := strings.TrimPrefix(auth, "Bearer ")
		if projectID, ok := d.ProjectForAPIKey(apiKey); ok {
			return projectID, nil
		}
	}

	projectID := c.GetHeader("X-JourneyTrack-Project-ID")
	if projectID == "" {
		projectID = c.Query("projectId")
	}
	if projectID == "" {
		return "", fmt.Errorf("request carries no recognized API key or project ID")
	}

	d.mu.RLock()
	_, exists := d.registry.Projects[projectID]
	d.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("unknown project: %s", projectID)
	}

	return projectID, nil
}

// ProjectForAPIKey resolves a project id from its API key
func (d *Detector) ProjectForAPIKey(apiKey string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	projectID, ok := d.apiKeys[apiKey]
	return projectID, ok
}

// ValidateOrigin checks if the request origin is allowed for the project
func (d *Detector) ValidateOrigin(cfg *Config, origin string) bool {
	for _, allowed := range cfg.AllowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// GetProjectStatus returns the current status of a project
func (d *Detector) GetProjectStatus(projectID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if info, exists := d.registry.Projects[projectID]; exists {
		return info.Status
	}
	return "unknown"
}

// UpdateProjectStatus updates the cached registry status
func (d *Detector) UpdateProjectStatus(projectID, status, dbType string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if info, exists := d.registry.Projects[projectID]; exists {
		info.Status = status
		if dbType != "" {
			info.DatabaseType = dbType
		}
		d.registry.Projects[projectID] = info
	}
}

// RefreshRegistry reloads the registry from disk and rebuilds the API key index
func (d *Detector) RefreshRegistry() error {
	registry, err := LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to refresh project registry: %w", err)
	}

	apiKeys := make(map[string]string, len(registry.Projects))
	for projectID := range registry.Projects {
		cfg, err := LoadProjectConfig(projectID)
		if err != nil {
			if d.logger != nil {
				d.logger.Project().Warn("Skipping project without loadable config", "projectId", projectID, "error", err.Error())
			}
			continue
		}
		apiKeys[cfg.APIKey] = projectID
	}

	d.mu.Lock()
	d.registry = registry
	d.apiKeys = apiKeys
	d.mu.Unlock()
	return nil
}

// GetRegistry returns a snapshot of the current registry
func (d *Detector) GetRegistry() *Registry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.registry
}
