// Package project handles loading and providing project-specific configurations.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
)

// Config represents the structure of a single project's configuration
type Config struct {
	ProjectID      string   `json:"projectId"`
	Name           string   `json:"name"`
	APIKey         string   `json:"apiKey"`
	AllowedOrigins []string `json:"allowedOrigins"`
	Status         string   `json:"status"`
	DatabaseType   string   `json:"databaseType"`
	TursoDatabase  string   `json:"TURSO_DATABASE_URL"`
	TursoToken     string   `json:"TURSO_AUTH_TOKEN"`
	TursoEnabled   bool     `json:"TURSO_ENABLED"`
	JWTSecret      string   `json:"JWT_SECRET"`
	AdminPassword  string   `json:"ADMIN_PASSWORD,omitempty"`
	DigestEmail    string   `json:"DIGEST_EMAIL,omitempty"`
	SQLitePath     string   `json:"-"`
}

// LoadProjectConfig loads configuration for a specific project from its env.json file.
func LoadProjectConfig(projectID string) (*Config, error) {
	configPath := filepath.Join(config.HomeDir, "config", projectID, "env.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("project config file not found at %s", configPath)
	}

	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read project config file: %w", err)
	}

	var projectConfig Config
	if err := json.Unmarshal(configFile, &projectConfig); err != nil {
		return nil, fmt.Errorf("could not parse project config json: %w", err)
	}

	projectConfig.ProjectID = projectID
	projectConfig.SQLitePath = filepath.Join(config.HomeDir, "db", projectID, "journeytrack.db")

	if projectConfig.APIKey == "" {
		return nil, fmt.Errorf("project %s has no API key configured", projectID)
	}

	return &projectConfig, nil
}

// SaveProjectConfig writes a project's env.json, creating its directory if needed.
func SaveProjectConfig(cfg *Config) error {
	configDir := filepath.Join(config.HomeDir, "config", cfg.ProjectID)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create project config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project config: %w", err)
	}

	configPath := filepath.Join(configDir, "env.json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write project config: %w", err)
	}

	return nil
}

// Registry holds the global project configuration
type Registry struct {
	Projects map[string]Info `json:"projects"`
}

// Info holds project metadata
type Info struct {
	ProjectID    string `json:"projectId"`
	Name         string `json:"name"`
	Status       string `json:"status"`       // "unknown", "inactive", "active"
	DatabaseType string `json:"databaseType"` // "turso", "sqlite3"
}

func registryPath() string {
	return filepath.Join(config.HomeDir, "config", "projects.json")
}

// LoadRegistry loads the global project registry
func LoadRegistry() (*Registry, error) {
	path := registryPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Registry{
			Projects: map[string]Info{
				"default": {
					ProjectID:    "default",
					Name:         "Default project",
					Status:       "inactive",
					DatabaseType: "",
				},
			},
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project registry: %w", err)
	}

	var registry Registry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse project registry: %w", err)
	}

	return &registry, nil
}

// SaveRegistry writes the registry to disk, creating the config directory if needed.
func SaveRegistry(registry *Registry) error {
	path := registryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	return nil
}

// RegisterProject adds a new project to the registry
func RegisterProject(projectID, name string) error {
	registry, err := LoadRegistry()
	if err != nil {
		return err
	}

	if _, exists := registry.Projects[projectID]; !exists {
		registry.Projects[projectID] = Info{
			ProjectID:    projectID,
			Name:         name,
			Status:       "inactive",
			DatabaseType: "",
		}
		return SaveRegistry(registry)
	}

	return nil
}
