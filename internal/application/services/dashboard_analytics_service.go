// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/analytics"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
)

// DashboardAnalyticsService assembles the aggregates behind the dashboard views.
type DashboardAnalyticsService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDashboardAnalyticsService creates a new dashboard analytics service
func NewDashboardAnalyticsService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DashboardAnalyticsService {
	return &DashboardAnalyticsService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// parseRange resolves a duration keyword into an absolute window ending now.
func parseRange(rangeKey string) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	var span time.Duration
	switch rangeKey {
	case "", "24h":
		span = 24 * time.Hour
	case "7d":
		span = 7 * 24 * time.Hour
	case "30d":
		span = 30 * 24 * time.Hour
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported range %q", rangeKey)
	}
	return end.Add(-span), end, nil
}

// GetDashboard builds the headline snapshot for one project.
func (s *DashboardAnalyticsService) GetDashboard(projectCtx *project.Context, rangeKey string) (*analytics.DashboardSnapshot, error) {
	marker := s.perfTracker.StartOperation("dashboard_snapshot", projectCtx.ProjectID)
	defer marker.Complete()

	start, end, err := parseRange(rangeKey)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}

	eventRepo := projectCtx.EventRepo()

	totalEvents, err := eventRepo.CountEventsInRange(start, end)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to count events: %w", err)
	}

	bins, err := eventRepo.HourlyBinsInRange(start, end)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to bin events: %w", err)
	}

	totalSessions, err := projectCtx.SessionRepo().Count()
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	totalVisitors, err := projectCtx.VisitorRepo().Count()
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to count visitors: %w", err)
	}

	leads, err := projectCtx.LeadRepo().Count()
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	marker.SetSuccess(true)
	s.logger.Analytics().Debug("Dashboard snapshot assembled", "projectId", projectCtx.ProjectID, "range", rangeKey, "totalEvents", totalEvents)

	return &analytics.DashboardSnapshot{
		TotalEvents:     totalEvents,
		TotalSessions:   totalSessions,
		TotalVisitors:   totalVisitors,
		IdentifiedLeads: leads,
		HourlyBins:      bins,
		RangeStart:      start,
		RangeEnd:        end,
	}, nil
}

// GetTopEventTypes returns the most frequent event types for a window.
func (s *DashboardAnalyticsService) GetTopEventTypes(projectCtx *project.Context, rangeKey string, limit int) ([]analytics.EventTypeCount, error) {
	marker := s.perfTracker.StartOperation("top_event_types", projectCtx.ProjectID)
	defer marker.Complete()

	start, end, err := parseRange(rangeKey)
	if err != nil {
		marker.SetSuccess(false)
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	counts, err := projectCtx.EventRepo().TopEventTypes(start, end, limit)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load top event types: %w", err)
	}

	marker.SetSuccess(true)
	return counts, nil
}

// GetRecentSessions summarizes the most recently active sessions.
func (s *DashboardAnalyticsService) GetRecentSessions(projectCtx *project.Context, limit int) ([]analytics.SessionSummary, error) {
	marker := s.perfTracker.StartOperation("recent_sessions", projectCtx.ProjectID)
	defer marker.Complete()

	if limit <= 0 || limit > 200 {
		limit = 25
	}

	sessions, err := projectCtx.EventRepo().RecentSessions(limit)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load recent sessions: %w", err)
	}

	marker.SetSuccess(true)
	return sessions, nil
}

// LeadSummary is one row of the dashboard's leads table.
type LeadSummary struct {
	CustomerID string    `json:"customerId"`
	Email      string    `json:"email,omitempty"`
	FirstName  string    `json:"firstName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GetLeads lists identified leads, newest first.
func (s *DashboardAnalyticsService) GetLeads(projectCtx *project.Context, limit int) ([]LeadSummary, error) {
	marker := s.perfTracker.StartOperation("list_leads", projectCtx.ProjectID)
	defer marker.Complete()

	if limit <= 0 || limit > 500 {
		limit = 50
	}

	leads, err := projectCtx.LeadRepo().All(limit)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to load leads: %w", err)
	}

	summaries := make([]LeadSummary, 0, len(leads))
	for _, lead := range leads {
		summaries = append(summaries, LeadSummary{
			CustomerID: lead.CustomerID,
			Email:      lead.Email,
			FirstName:  lead.FirstName,
			CreatedAt:  lead.CreatedAt,
		})
	}

	marker.SetSuccess(true)
	return summaries, nil
}
