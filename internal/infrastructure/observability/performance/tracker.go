package performance

import (
	"fmt"
	"sync"
	"time"
)

// Tracker manages performance markers and provides metrics aggregation
type Tracker struct {
	markers map[string]*Marker // Active and completed markers by unique ID
	mu      sync.RWMutex       // Protects concurrent access
	started time.Time          // When tracking started
	config  *TrackerConfig     // Tracker configuration

	sequence uint64
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers      int           `json:"maxMarkers"`      // Maximum number of markers to retain
	RetainCompleted time.Duration `json:"retainCompleted"` // How long completed markers are kept
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:      10000,
		RetainCompleted: 10 * time.Minute,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		markers: make(map[string]*Marker),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates and registers a marker for an operation in flight.
// Callers must invoke Complete on the returned marker.
func (t *Tracker) StartOperation(operation, projectID string) *Marker {
	marker := &Marker{
		Operation: operation,
		ProjectID: projectID,
		StartTime: time.Now(),
		Success:   true,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sequence++
	id := fmt.Sprintf("%s:%s:%d", operation, projectID, t.sequence)
	t.markers[id] = marker

	if len(t.markers) > t.config.MaxMarkers {
		t.evictLocked()
	}

	return marker
}

// Stats summarizes recorded operations.
type Stats struct {
	ActiveOperations    int           `json:"activeOperations"`
	CompletedOperations int           `json:"completedOperations"`
	FailedOperations    int           `json:"failedOperations"`
	AverageDuration     time.Duration `json:"averageDuration"`
	Uptime              time.Duration `json:"uptime"`
}

// GetStats aggregates the retained markers.
func (t *Tracker) GetStats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{Uptime: time.Since(t.started)}
	var total time.Duration
	for _, m := range t.markers {
		if !m.Completed {
			stats.ActiveOperations++
			continue
		}
		stats.CompletedOperations++
		total += m.Duration
		if !m.Success {
			stats.FailedOperations++
		}
	}
	if stats.CompletedOperations > 0 {
		stats.AverageDuration = total / time.Duration(stats.CompletedOperations)
	}
	return stats
}

// Cleanup drops completed markers older than the retention window.
func (t *Tracker) Cleanup() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-t.config.RetainCompleted)
	removed := 0
	for id, m := range t.markers {
		if m.Completed && m.EndTime.Before(cutoff) {
			delete(t.markers, id)
			removed++
		}
	}
	return removed
}

// evictLocked removes the oldest completed markers when over capacity.
// Callers must hold t.mu.
func (t *Tracker) evictLocked() {
	for id, m := range t.markers {
		if m.Completed {
			delete(t.markers, id)
			if len(t.markers) <= t.config.MaxMarkers {
				return
			}
		}
	}
}
