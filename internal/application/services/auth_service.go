// Package services provides application-level orchestration services
package services

import (
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles dashboard authentication workflows and JWT operations
type AuthService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service
func NewAuthService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	return &AuthService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthenticateAdmin validates the project admin password and issues a JWT.
func (a *AuthService) AuthenticateAdmin(password string, projectCtx *project.Context) *AuthResult {
	marker := a.perfTracker.StartOperation("authenticate_admin", projectCtx.ProjectID)
	defer marker.Complete()

	var role string
	if projectCtx.Config.AdminPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(projectCtx.Config.AdminPassword), []byte(password)); err == nil {
			role = "admin"
		}
	}

	// Fallback for plaintext passwords during transition/testing
	if role == "" && projectCtx.Config.AdminPassword != "" && password == projectCtx.Config.AdminPassword {
		role = "admin"
	}

	if role == "" {
		a.logger.Auth().Warn("Admin authentication failed", "projectId", projectCtx.ProjectID)
		marker.SetSuccess(false)
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateAdminToken(projectCtx.ProjectID, role, projectCtx.Config.JWTSecret, config.AdminTokenLifetime)
	if err != nil {
		a.logger.Auth().Error("Failed to sign admin token", "projectId", projectCtx.ProjectID, "error", err.Error())
		marker.SetError(err)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.Auth().Info("Admin authenticated", "projectId", projectCtx.ProjectID, "role", role)
	marker.SetSuccess(true)
	return &AuthResult{Token: token, Role: role, Success: true}
}

// ValidateToken checks a dashboard JWT against the project's secret and
// confirms it was issued for this project.
func (a *AuthService) ValidateToken(tokenString string, projectCtx *project.Context) (role string, ok bool) {
	claims, err := security.ValidateJWT(tokenString, projectCtx.Config.JWTSecret)
	if err != nil {
		return "", false
	}

	projectID, role, ok := security.ProjectFromClaims(claims)
	if !ok || projectID != projectCtx.ProjectID {
		return "", false
	}
	return role, true
}

// HashPassword produces a bcrypt hash for storing project admin passwords.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
