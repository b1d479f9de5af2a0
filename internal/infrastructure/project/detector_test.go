package project

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
	"github.com/gin-gonic/gin"
)

func setupTestHome(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	oldHome := config.HomeDir
	config.HomeDir = t.TempDir()
	t.Cleanup(func() { config.HomeDir = oldHome })

	registry := &Registry{
		Projects: map[string]Info{
			"acme": {ProjectID: "acme", Name: "Acme", Status: "inactive"},
		},
	}
	if err := SaveRegistry(registry); err != nil {
		t.Fatalf("failed to save registry: %v", err)
	}

	cfg := &Config{
		ProjectID:      "acme",
		Name:           "Acme",
		APIKey:         "jt_test_key",
		AllowedOrigins: []string{"https://acme.example"},
		Status:         "inactive",
		JWTSecret:      "secret",
	}
	if err := SaveProjectConfig(cfg); err != nil {
		t.Fatalf("failed to save project config: %v", err)
	}
}

func testContext(req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

func TestDetectProjectByAPIKey(t *testing.T) {
	setupTestHome(t)

	detector, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer jt_test_key")

	projectID, err := detector.DetectProject(testContext(req))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projectID != "acme" {
		t.Errorf("projectID = %q, want %q", projectID, "acme")
	}
}

func TestDetectProjectByHeader(t *testing.T) {
	setupTestHome(t)

	detector, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard", nil)
	req.Header.Set("X-JourneyTrack-Project-ID", "acme")

	projectID, err := detector.DetectProject(testContext(req))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projectID != "acme" {
		t.Errorf("projectID = %q, want %q", projectID, "acme")
	}
}

func TestDetectProjectByQueryFallback(t *testing.T) {
	setupTestHome(t)

	detector, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/stream?projectId=acme", nil)

	projectID, err := detector.DetectProject(testContext(req))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projectID != "acme" {
		t.Errorf("projectID = %q, want %q", projectID, "acme")
	}
}

func TestDetectProjectRejectsUnknown(t *testing.T) {
	setupTestHome(t)

	detector, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.Header.Set("Authorization", "Bearer wrong_key")
	if _, err := detector.DetectProject(testContext(req)); err == nil {
		t.Error("expected error for unrecognized API key")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard", nil)
	req.Header.Set("X-JourneyTrack-Project-ID", "nobody")
	if _, err := detector.DetectProject(testContext(req)); err == nil {
		t.Error("expected error for unregistered project id")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard", nil)
	if _, err := detector.DetectProject(testContext(req)); err == nil {
		t.Error("expected error for request with no project signal")
	}
}

func TestValidateOrigin(t *testing.T) {
	detector := &Detector{}

	cfg := &Config{AllowedOrigins: []string{"https://acme.example"}}
	if !detector.ValidateOrigin(cfg, "https://acme.example") {
		t.Error("configured origin should be allowed")
	}
	if !detector.ValidateOrigin(cfg, "HTTPS://ACME.EXAMPLE") {
		t.Error("origin matching should be case insensitive")
	}
	if detector.ValidateOrigin(cfg, "https://evil.example") {
		t.Error("unlisted origin should be rejected")
	}

	wildcard := &Config{AllowedOrigins: []string{"*"}}
	if !detector.ValidateOrigin(wildcard, "https://anything.example") {
		t.Error("wildcard should allow any origin")
	}
}

func TestProjectStatusUpdates(t *testing.T) {
	setupTestHome(t)

	detector, err := NewDetector(nil)
	if err != nil {
		t.Fatalf("failed to create detector: %v", err)
	}

	if status := detector.GetProjectStatus("acme"); status != "inactive" {
		t.Errorf("status = %q, want %q", status, "inactive")
	}

	detector.UpdateProjectStatus("acme", "active", "sqlite3")
	if status := detector.GetProjectStatus("acme"); status != "active" {
		t.Errorf("status after update = %q, want %q", status, "active")
	}

	if status := detector.GetProjectStatus("nobody"); status != "unknown" {
		t.Errorf("status of unregistered project = %q, want %q", status, "unknown")
	}
}

func TestLoadProjectConfigRequiresAPIKey(t *testing.T) {
	setupTestHome(t)

	if err := SaveProjectConfig(&Config{ProjectID: "keyless", Name: "Keyless"}); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	if _, err := LoadProjectConfig("keyless"); err == nil {
		t.Error("expected error for project without API key")
	}

	cfg, err := LoadProjectConfig("acme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SQLitePath == "" {
		t.Error("loaded config should carry a derived sqlite path")
	}
}

func TestLoadRegistryDefaultsWhenMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	oldHome := config.HomeDir
	config.HomeDir = t.TempDir()
	t.Cleanup(func() { config.HomeDir = oldHome })

	registry, err := LoadRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, exists := registry.Projects["default"]; !exists {
		t.Error("missing registry file should yield a default project")
	}
}

func TestRegisterProject(t *testing.T) {
	setupTestHome(t)

	if err := RegisterProject("newco", "NewCo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	registry, err := LoadRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, exists := registry.Projects["newco"]
	if !exists {
		t.Fatal("registered project missing from registry")
	}
	if info.Status != "inactive" {
		t.Errorf("new project status = %q, want %q", info.Status, "inactive")
	}
}
