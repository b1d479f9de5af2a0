// Package analytics defines the interfaces for accessing analytics data.
package analytics

import (
	"time"

	"github.com/AtRiskMedia/journeytrack-go/internal/domain/events"
)

// HourlyBin is one hour of event volume for the dashboard chart.
type HourlyBin struct {
	Hour  time.Time `json:"hour"`
	Count int       `json:"count"`
}

// EventTypeCount is one row of the "top event types" table.
type EventTypeCount struct {
	EventType string `json:"eventType"`
	Count     int    `json:"count"`
}

// SessionSummary describes one session's activity for the recent-sessions view.
type SessionSummary struct {
	SessionID  string    `json:"sessionId"`
	VisitorID  string    `json:"visitorId"`
	CustomerID string    `json:"customerId,omitempty"`
	EventCount int       `json:"eventCount"`
	FirstSeen  time.Time `json:"firstSeen"`
	LastSeen   time.Time `json:"lastSeen"`
	EntryURL   string    `json:"entryUrl,omitempty"`
}

// DashboardSnapshot aggregates headline numbers plus the hourly chart.
type DashboardSnapshot struct {
	TotalEvents     int         `json:"totalEvents"`
	TotalSessions   int         `json:"totalSessions"`
	TotalVisitors   int         `json:"totalVisitors"`
	IdentifiedLeads int         `json:"identifiedLeads"`
	HourlyBins      []HourlyBin `json:"hourlyBins"`
	RangeStart      time.Time   `json:"rangeStart"`
	RangeEnd        time.Time   `json:"rangeEnd"`
}

// EventRepository defines the contract for storing and retrieving tracking events.
type EventRepository interface {
	// StoreBatch persists a batch of accepted events in one transaction.
	StoreBatch(batch []*events.TrackingEvent) error

	// CountEventsInRange returns the number of events within a time range.
	CountEventsInRange(start, end time.Time) (int, error)

	// HourlyBinsInRange aggregates event volume per hour within a range.
	HourlyBinsInRange(start, end time.Time) ([]HourlyBin, error)

	// TopEventTypes returns the most frequent event types within a range.
	TopEventTypes(start, end time.Time, limit int) ([]EventTypeCount, error)

	// RecentSessions summarizes the most recently active sessions.
	RecentSessions(limit int) ([]SessionSummary, error)
}
