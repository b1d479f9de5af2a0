// Package project manages project-specific configurations and context,
// isolating per-project state from the rest of the application.
package project

import (
	"fmt"
	"sync"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	infraDatabase "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// Manager coordinates project detection and context creation
type Manager struct {
	detector       *Detector
	cacheManager   *manager.Manager
	contexts       map[string]*Context
	contextMutexes sync.Map // Per-project mutexes for fine-grained locking
	globalMutex    sync.RWMutex
	logger         *logging.ChanneledLogger
}

// NewManager creates and initializes a new project manager.
func NewManager(logger *logging.ChanneledLogger) *Manager {
	detector, err := NewDetector(logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize project detector: %v", err))
	}

	return &Manager{
		detector:     detector,
		cacheManager: manager.NewManager(logger),
		contexts:     make(map[string]*Context),
		logger:       logger,
	}
}

// GetContext creates or retrieves a project context for the request
func (m *Manager) GetContext(c *gin.Context) (*Context, error) {
	projectID, err := m.detector.DetectProject(c)
	if err != nil {
		return nil, fmt.Errorf("project detection failed: %w", err)
	}

	return m.contextForID(projectID)
}

// NewContextFromID creates or retrieves a project context from a project ID string.
func (m *Manager) NewContextFromID(projectID string) (*Context, error) {
	return m.contextForID(projectID)
}

func (m *Manager) contextForID(projectID string) (*Context, error) {
	m.globalMutex.RLock()
	if ctx, exists := m.contexts[projectID]; exists {
		m.globalMutex.RUnlock()
		if ctx.Database != nil && ctx.Database.Conn != nil {
			return ctx, nil
		}
	} else {
		m.globalMutex.RUnlock()
	}

	projectMutexInterface, _ := m.contextMutexes.LoadOrStore(projectID, &sync.Mutex{})
	projectMutex := projectMutexInterface.(*sync.Mutex)

	projectMutex.Lock()
	defer projectMutex.Unlock()

	m.globalMutex.RLock()
	if ctx, exists := m.contexts[projectID]; exists {
		m.globalMutex.RUnlock()
		if ctx.Database != nil && ctx.Database.Conn != nil {
			return ctx, nil
		}
	} else {
		m.globalMutex.RUnlock()
	}

	return m.createContext(projectID)
}

// createContext creates a new project context
func (m *Manager) createContext(projectID string) (*Context, error) {
	cfg, err := LoadProjectConfig(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	db, err := NewDatabase(cfg, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := infraDatabase.NewTableCreator().CreateSchema(db.Conn.DB); err != nil {
		return nil, fmt.Errorf("failed to ensure schema for project %s: %w", projectID, err)
	}

	ctx := &Context{
		ProjectID:    projectID,
		Config:       cfg,
		Database:     db,
		Status:       m.detector.GetProjectStatus(projectID),
		CacheManager: m.cacheManager,
		Logger:       m.logger,
	}

	m.cacheManager.InitializeProject(projectID)

	m.globalMutex.Lock()
	m.contexts[projectID] = ctx
	m.globalMutex.Unlock()

	return ctx, nil
}

// PreActivateAllProjects activates all projects in the registry during startup
func (m *Manager) PreActivateAllProjects() error {
	registry, err := LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load project registry for pre-activation: %w", err)
	}

	if len(registry.Projects) == 0 {
		return nil
	}

	var failed []string
	for projectID, info := range registry.Projects {
		if info.Status == "active" {
			continue
		}
		if err := m.preActivateSingleProject(projectID); err != nil {
			m.logger.Project().Warn("Project pre-activation failed", "projectId", projectID, "error", err.Error())
			failed = append(failed, projectID)
		}
	}

	if err := m.detector.RefreshRegistry(); err != nil {
		return fmt.Errorf("failed to refresh detector registry: %w", err)
	}

	if len(failed) > 0 {
		return fmt.Errorf("pre-activation failed for projects: %v", failed)
	}
	return nil
}

// preActivateSingleProject activates a single project during startup
func (m *Manager) preActivateSingleProject(projectID string) error {
	ctx, err := m.createContext(projectID)
	if err != nil {
		return fmt.Errorf("failed to create context for project %s: %w", projectID, err)
	}

	if err := ctx.Database.Conn.Ping(); err != nil {
		return fmt.Errorf("database connection test failed for project %s: %w", projectID, err)
	}

	dbType := "sqlite3"
	if ctx.Database.UseTurso {
		dbType = "turso"
	}
	m.detector.UpdateProjectStatus(projectID, "active", dbType)

	return nil
}

// GetActiveProjectCount returns the number of active projects
func (m *Manager) GetActiveProjectCount() (int, error) {
	registry, err := LoadRegistry()
	if err != nil {
		return 0, fmt.Errorf("failed to load project registry: %w", err)
	}

	activeCount := 0
	for _, info := range registry.Projects {
		if info.Status == "active" {
			activeCount++
		}
	}
	return activeCount, nil
}

// GetCacheManager returns the cache manager for external access
func (m *Manager) GetCacheManager() *manager.Manager {
	return m.cacheManager
}

// GetDetector returns the detector for external access (needed by startup code)
func (m *Manager) GetDetector() *Detector {
	return m.detector
}

// GetLogger returns the logger for middleware access
func (m *Manager) GetLogger() *logging.ChanneledLogger {
	return m.logger
}

// Close cleans up all project contexts
func (m *Manager) Close() error {
	m.globalMutex.Lock()
	defer m.globalMutex.Unlock()

	for _, ctx := range m.contexts {
		ctx.Close()
	}
	m.contexts = make(map[string]*Context)

	CloseAllPools()
	return nil
}
