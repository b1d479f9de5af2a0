// Package services provides application-level orchestration services
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/visitor"
	cacheTypes "github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/caching/types"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/project"
	"github.com/AtRiskMedia/journeytrack-go/internal/infrastructure/security"
)

// SessionService handles visit registration and visitor identification
type SessionService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSessionService creates a new session service
func NewSessionService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionService {
	return &SessionService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// VisitRequest represents the structure for visit registration requests
type VisitRequest struct {
	SessionID  *string `json:"sessionId,omitempty"`
	VisitorID  *string `json:"visitorId,omitempty"`
	CustomerID *string `json:"customerId,omitempty"`
	Consent    *string `json:"consent,omitempty"`
}

// SessionResult holds the result of session operations
type SessionResult struct {
	SessionID  string `json:"sessionId"`
	VisitorID  string `json:"visitorId"`
	Identified bool   `json:"identified"`
	Consent    string `json:"consent"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// ProcessVisitRequest handles the complete visit registration workflow. A
// returning session reuses its cached state; a new session gets a visitor
// record created on the spot. A customer id links the visitor to a lead.
func (s *SessionService) ProcessVisitRequest(req *VisitRequest, projectCtx *project.Context) *SessionResult {
	marker := s.perfTracker.StartOperation("process_visit_request", projectCtx.ProjectID)
	defer marker.Complete()

	if req.SessionID == nil || *req.SessionID == "" {
		marker.SetSuccess(false)
		return &SessionResult{Success: false, Error: "session ID required"}
	}
	sessionID := *req.SessionID

	consent := "unknown"
	if req.Consent != nil && *req.Consent != "" {
		consent = *req.Consent
	}

	var visitorID string
	if cached, exists := projectCtx.CacheManager.GetSession(projectCtx.ProjectID, sessionID); exists {
		visitorID = cached.VisitorID
	} else if stored, err := projectCtx.SessionRepo().FindByID(sessionID); err == nil && stored != nil {
		visitorID = stored.VisitorID
	}

	if visitorID == "" {
		if req.VisitorID != nil && *req.VisitorID != "" {
			visitorID = *req.VisitorID
		} else {
			visitorID = security.GenerateULID()
		}
		if err := s.ensureVisitor(visitorID, projectCtx); err != nil {
			marker.SetError(err)
			return &SessionResult{Success: false, Error: "failed to create visitor"}
		}
	}

	now := time.Now().UTC()
	session := &visitor.Session{
		ID:        sessionID,
		VisitorID: visitorID,
		Consent:   consent,
		StartedAt: now,
		LastSeen:  now,
	}
	if err := projectCtx.SessionRepo().Upsert(session); err != nil {
		marker.SetError(err)
		return &SessionResult{Success: false, Error: "failed to register session"}
	}

	identified := false
	var customerID string
	if req.CustomerID != nil && *req.CustomerID != "" {
		customerID = *req.CustomerID
		if err := s.linkLead(visitorID, customerID, "", "", projectCtx); err != nil {
			s.logger.Events().Warn("Lead linking failed during visit registration", "projectId", projectCtx.ProjectID, "sessionId", sessionID, "error", err.Error())
		} else {
			identified = true
		}
	}

	projectCtx.CacheManager.SetSession(projectCtx.ProjectID, &cacheTypes.SessionState{
		SessionID:  sessionID,
		VisitorID:  visitorID,
		CustomerID: customerID,
		Consent:    consent,
	})
	projectCtx.CacheManager.SetKnownVisitor(projectCtx.ProjectID, visitorID)

	marker.SetSuccess(true)
	s.logger.Events().Debug("Visit registered", "projectId", projectCtx.ProjectID, "sessionId", sessionID, "visitorId", visitorID, "identified", identified)

	return &SessionResult{
		SessionID:  sessionID,
		VisitorID:  visitorID,
		Identified: identified,
		Consent:    consent,
		Success:    true,
	}
}

// IdentifyRequest links an active session's visitor to a customer identity.
type IdentifyRequest struct {
	SessionID  string `json:"sessionId"`
	CustomerID string `json:"customerId"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
}

// ProcessIdentify resolves the session's visitor and links it to a lead.
func (s *SessionService) ProcessIdentify(req *IdentifyRequest, projectCtx *project.Context) *SessionResult {
	marker := s.perfTracker.StartOperation("process_identify", projectCtx.ProjectID)
	defer marker.Complete()

	if req.SessionID == "" || req.CustomerID == "" {
		marker.SetSuccess(false)
		return &SessionResult{Success: false, Error: "session ID and customer ID required"}
	}

	var visitorID string
	var consent string
	if cached, exists := projectCtx.CacheManager.GetSession(projectCtx.ProjectID, req.SessionID); exists {
		visitorID = cached.VisitorID
		consent = cached.Consent
	} else if stored, err := projectCtx.SessionRepo().FindByID(req.SessionID); err == nil && stored != nil {
		visitorID = stored.VisitorID
		consent = stored.Consent
	}
	if visitorID == "" {
		marker.SetSuccess(false)
		return &SessionResult{Success: false, Error: "unknown session"}
	}

	if err := s.linkLead(visitorID, req.CustomerID, req.Email, req.FirstName, projectCtx); err != nil {
		marker.SetError(err)
		return &SessionResult{Success: false, Error: "failed to link lead"}
	}

	projectCtx.CacheManager.SetSession(projectCtx.ProjectID, &cacheTypes.SessionState{
		SessionID:  req.SessionID,
		VisitorID:  visitorID,
		CustomerID: req.CustomerID,
		Consent:    consent,
	})

	marker.SetSuccess(true)
	return &SessionResult{
		SessionID:  req.SessionID,
		VisitorID:  visitorID,
		Identified: true,
		Consent:    consent,
		Success:    true,
	}
}

// ensureVisitor creates the visitor record if it does not already exist.
func (s *SessionService) ensureVisitor(visitorID string, projectCtx *project.Context) error {
	if projectCtx.CacheManager.IsKnownVisitor(projectCtx.ProjectID, visitorID) {
		return nil
	}

	exists, err := projectCtx.VisitorRepo().Exists(visitorID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = projectCtx.VisitorRepo().Create(&visitor.Visitor{
		ID:        visitorID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil && !strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return err
	}
	return nil
}

// linkLead finds or creates the lead for a customer id and links the visitor.
func (s *SessionService) linkLead(visitorID, customerID, email, firstName string, projectCtx *project.Context) error {
	lead, err := projectCtx.LeadRepo().FindByCustomerID(customerID)
	if err != nil {
		return err
	}

	if lead == nil {
		lead = &visitor.Lead{
			ID:         security.GenerateULID(),
			CustomerID: customerID,
			Email:      email,
			FirstName:  firstName,
			CreatedAt:  time.Now().UTC(),
		}
		if err := projectCtx.LeadRepo().Store(lead); err != nil {
			return fmt.Errorf("failed to store lead: %w", err)
		}
		// Another request may have won the insert race; reload for the real id.
		if stored, err := projectCtx.LeadRepo().FindByCustomerID(customerID); err == nil && stored != nil {
			lead = stored
		}
	}

	return projectCtx.VisitorRepo().LinkToLead(visitorID, lead.ID)
}
