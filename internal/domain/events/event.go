// Package events provides event types
package events

import "time"

// TrackingEvent is one interaction reported by a tracking client. Events are
// immutable once accepted; they exist in the collector only between ingestion
// and persistence.
type TrackingEvent struct {
	ID         string         `json:"id,omitempty"`
	EventType  string         `json:"eventType"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"sessionId"`
	CustomerID string         `json:"customerId,omitempty"`
	JourneyID  string         `json:"journeyId,omitempty"`
	PageURL    string         `json:"pageUrl,omitempty"`
}
