// Package journey provides the JourneyTrack client SDK: an event collector
// that buffers interaction events in memory and delivers them in batches to a
// JourneyTrack collection endpoint, with consent gating and session management.
package journey

import (
	"time"
)

// Event represents a single tracked interaction. Events are immutable once
// created; they are discarded after successful delivery or once they exceed
// the configured maximum retry age.
type Event struct {
	EventType  string         `json:"eventType"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	SessionID  string         `json:"sessionId"`
	CustomerID string         `json:"customerId,omitempty"`
	JourneyID  string         `json:"journeyId,omitempty"`
	PageURL    string         `json:"pageUrl,omitempty"`
}

// batchPayload is the wire format for a delivery request.
type batchPayload struct {
	Events []Event `json:"events"`
	APIKey string  `json:"apiKey"`
}
