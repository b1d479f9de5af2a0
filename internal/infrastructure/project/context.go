// Package project provides project context management for request isolation.
package project

import (
	"github.com/AtRiskMedia/journeytrack-go/internal/domain/analytics"
	domainVisitor "github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	persistenceEvents "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/events"
	persistenceVisitor "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/persistence/visitor"
)

// Context holds project-specific request context
type Context struct {
	ProjectID    string
	Config       *Config
	Database     *Database
	Status       string
	CacheManager *manager.Manager
	Logger       *logging.ChanneledLogger
}

// Close cleans up the project context
func (ctx *Context) Close() error {
	if ctx.Database != nil {
		return ctx.Database.Close()
	}
	return nil
}

// IsActive returns true if the project is active
func (ctx *Context) IsActive() bool {
	return ctx.Status == "active"
}

// GetDatabaseInfo returns database connection information for logging
func (ctx *Context) GetDatabaseInfo() string {
	if ctx.Database != nil {
		return ctx.Database.GetConnectionInfo()
	}
	return "no database connection"
}

// =============================================================================
// Repository Factory Methods
// =============================================================================

// EventRepo returns an event repository instance
func (ctx *Context) EventRepo() analytics.EventRepository {
	return persistenceEvents.NewSQLEventRepository(ctx.Database.Conn, ctx.ProjectID, ctx.Logger)
}

// VisitorRepo returns a visitor repository instance
func (ctx *Context) VisitorRepo() domainVisitor.VisitorRepository {
	return persistenceVisitor.NewSQLVisitorRepository(ctx.Database.Conn, ctx.ProjectID, ctx.Logger)
}

// SessionRepo returns a session repository instance
func (ctx *Context) SessionRepo() domainVisitor.SessionRepository {
	return persistenceVisitor.NewSQLSessionRepository(ctx.Database.Conn, ctx.ProjectID, ctx.Logger)
}

// LeadRepo returns a lead repository instance
func (ctx *Context) LeadRepo() domainVisitor.LeadRepository {
	return persistenceVisitor.NewSQLLeadRepository(ctx.Database.Conn, ctx.ProjectID, ctx.Logger)
}
