// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/email/templates"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
)

// DigestService periodically emails each project's activity summary to its
// configured recipient.
type DigestService struct {
	projectManager *project.Manager
	emailService   email.Service
	logger         *logging.ChanneledLogger

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewDigestService creates a new digest service
func NewDigestService(pm *project.Manager, es email.Service, logger *logging.ChanneledLogger) *DigestService {
	return &DigestService{
		projectManager: pm,
		emailService:   es,
		logger:         logger,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start launches the digest loop. It is a no-op when digests are disabled or
// no email service is configured.
func (s *DigestService) Start() {
	if !config.DigestEnabled || s.emailService == nil {
		s.logger.Email().Info("Digest emails disabled")
		close(s.doneCh)
		return
	}

	s.logger.Email().Info("Digest service starting", "interval", config.DigestInterval)
	go s.run()
}

// Stop signals the loop to exit and waits for it to finish.
func (s *DigestService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
}

func (s *DigestService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(config.DigestInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sendAll()
		case <-s.stopCh:
			return
		}
	}
}

// sendAll builds and sends the digest for every project with a recipient.
func (s *DigestService) sendAll() {
	registry, err := project.LoadRegistry()
	if err != nil {
		s.logger.Email().Error("Digest run aborted, registry unavailable", "error", err.Error())
		return
	}

	for projectID := range registry.Projects {
		if err := s.sendDigest(projectID); err != nil {
			s.logger.Email().Error("Digest send failed", "projectId", projectID, "error", err.Error())
		}
	}
}

// SendDigestNow builds and sends one project's digest immediately.
func (s *DigestService) SendDigestNow(projectID string) error {
	if s.emailService == nil {
		return fmt.Errorf("no email service configured")
	}
	return s.sendDigest(projectID)
}

func (s *DigestService) sendDigest(projectID string) error {
	projectCtx, err := s.projectManager.NewContextFromID(projectID)
	if err != nil {
		return fmt.Errorf("failed to create project context: %w", err)
	}

	if projectCtx.Config.DigestEmail == "" {
		return nil
	}

	end := time.Now().UTC()
	start := end.Add(-config.DigestLookback)

	eventRepo := projectCtx.EventRepo()

	totalEvents, err := eventRepo.CountEventsInRange(start, end)
	if err != nil {
		return fmt.Errorf("failed to count events for digest: %w", err)
	}
	if totalEvents == 0 {
		s.logger.Email().Debug("Skipping digest, no activity in window", "projectId", projectID)
		return nil
	}

	topTypes, err := eventRepo.TopEventTypes(start, end, 5)
	if err != nil {
		return fmt.Errorf("failed to load top event types for digest: %w", err)
	}

	totalSessions, err := projectCtx.SessionRepo().Count()
	if err != nil {
		return fmt.Errorf("failed to count sessions for digest: %w", err)
	}

	newLeads, err := projectCtx.LeadRepo().Count()
	if err != nil {
		return fmt.Errorf("failed to count leads for digest: %w", err)
	}

	rows := make([]templates.EventTypeRow, 0, len(topTypes))
	for _, t := range topTypes {
		rows = append(rows, templates.EventTypeRow{EventType: t.EventType, Count: t.Count})
	}

	name := projectCtx.Config.Name
	if name == "" {
		name = projectID
	}

	props := templates.DigestEmailProps{
		ProjectName:   name,
		PeriodLabel:   fmt.Sprintf("the last %s", config.DigestLookback),
		TotalEvents:   totalEvents,
		TotalSessions: totalSessions,
		NewLeads:      newLeads,
		TopEventTypes: rows,
	}

	if err := s.emailService.SendDigestEmail(projectCtx.Config.DigestEmail, props); err != nil {
		return err
	}

	s.logger.Email().Info("Digest sent", "projectId", projectID, "to", projectCtx.Config.DigestEmail, "totalEvents", totalEvents)
	return nil
}
