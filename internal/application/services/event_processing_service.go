// Package services provides application-level orchestration services
package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domainEvents "github.com/AtRiskMedia/journeytrack-go/internal/domain/events"
	"github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	cacheTypes "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
)

// EventProcessingService validates, persists, and fans out incoming event batches.
type EventProcessingService struct {
	broadcaster *messaging.EventBroadcaster
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEventProcessingService creates a new event processing service with its dependencies.
func NewEventProcessingService(broadcaster *messaging.EventBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventProcessingService {
	return &EventProcessingService{
		broadcaster: broadcaster,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// BatchRequest is the wire format posted by tracking clients.
type BatchRequest struct {
	Events []domainEvents.TrackingEvent `json:"events"`
	APIKey string                       `json:"apiKey,omitempty"`
}

// BatchResult reports how a posted batch was handled.
type BatchResult struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// ProcessBatch is the main ingestion entry point. Invalid events are rejected
// individually; one bad event never sinks the rest of the batch.
func (s *EventProcessingService) ProcessBatch(projectCtx *project.Context, req *BatchRequest) (*BatchResult, error) {
	marker := s.perfTracker.StartOperation("process_event_batch", projectCtx.ProjectID)
	defer marker.Complete()

	if len(req.Events) == 0 {
		return nil, fmt.Errorf("batch contains no events")
	}
	if len(req.Events) > config.MaxBatchSize {
		return nil, fmt.Errorf("batch of %d events exceeds the maximum of %d", len(req.Events), config.MaxBatchSize)
	}

	result := &BatchResult{}
	accepted := make([]*domainEvents.TrackingEvent, 0, len(req.Events))
	now := time.Now().UTC()

	for i := range req.Events {
		ev := &req.Events[i]
		if err := s.validateEvent(ev, now); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, err.Error())
			s.logger.Events().Warn("Event rejected", "projectId", projectCtx.ProjectID, "eventType", ev.EventType, "sessionId", ev.SessionID, "reason", err.Error())
			continue
		}
		accepted = append(accepted, ev)
	}

	if len(accepted) == 0 {
		marker.SetSuccess(false)
		return result, nil
	}

	if err := projectCtx.EventRepo().StoreBatch(accepted); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to store event batch: %w", err)
	}

	for _, ev := range accepted {
		if !projectCtx.CacheManager.TouchSession(projectCtx.ProjectID, ev.SessionID) {
			if err := s.registerSession(projectCtx, ev); err != nil {
				s.logger.Events().Warn("Session registration failed during ingestion", "projectId", projectCtx.ProjectID, "sessionId", ev.SessionID, "error", err.Error())
			}
		}
		s.broadcaster.Publish(projectCtx.ProjectID, ev)
	}

	result.Accepted = len(accepted)
	marker.SetSuccess(true)
	marker.AddMetadata("accepted", result.Accepted)
	marker.AddMetadata("rejected", result.Rejected)

	s.logger.Events().Info("Event batch processed", "projectId", projectCtx.ProjectID, "accepted", result.Accepted, "rejected", result.Rejected)
	return result, nil
}

// registerSession backfills the durable session and visitor records for
// events arriving without a prior visit registration, then caches the session
// so the rest of the batch touches it.
func (s *EventProcessingService) registerSession(projectCtx *project.Context, ev *domainEvents.TrackingEvent) error {
	now := time.Now().UTC()

	var visitorID, consent string
	stored, err := projectCtx.SessionRepo().FindByID(ev.SessionID)
	if err != nil {
		return err
	}
	if stored != nil {
		visitorID = stored.VisitorID
		consent = stored.Consent
	}

	if visitorID == "" {
		visitorID = security.GenerateULID()
		consent = "unknown"
		err := projectCtx.VisitorRepo().Create(&visitor.Visitor{ID: visitorID, CreatedAt: now})
		if err != nil && !strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return err
		}
	}

	if err := projectCtx.SessionRepo().Upsert(&visitor.Session{
		ID:        ev.SessionID,
		VisitorID: visitorID,
		Consent:   consent,
		StartedAt: now,
		LastSeen:  now,
	}); err != nil {
		return err
	}

	projectCtx.CacheManager.SetSession(projectCtx.ProjectID, &cacheTypes.SessionState{
		SessionID:  ev.SessionID,
		VisitorID:  visitorID,
		CustomerID: ev.CustomerID,
		Consent:    consent,
	})
	projectCtx.CacheManager.SetKnownVisitor(projectCtx.ProjectID, visitorID)
	return nil
}

// validateEvent enforces the per-event ingestion rules. Timestamps too far in
// the future are clamped to now; timestamps older than the retention window
// are rejected outright.
func (s *EventProcessingService) validateEvent(ev *domainEvents.TrackingEvent, now time.Time) error {
	if ev.EventType == "" {
		return fmt.Errorf("event missing eventType")
	}
	if ev.SessionID == "" {
		return fmt.Errorf("event %q missing sessionId", ev.EventType)
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = now
	}
	if ev.Timestamp.After(now.Add(config.EventClockSkew)) {
		ev.Timestamp = now
	}
	if now.Sub(ev.Timestamp) > config.MaxEventAge {
		return fmt.Errorf("event %q is older than the retention window", ev.EventType)
	}

	if len(ev.Properties) > 0 {
		encoded, err := json.Marshal(ev.Properties)
		if err != nil {
			return fmt.Errorf("event %q has unencodable properties", ev.EventType)
		}
		if len(encoded) > config.MaxPropertyBytes {
			return fmt.Errorf("event %q properties exceed %d bytes", ev.EventType, config.MaxPropertyBytes)
		}
	}

	return nil
}
