package services

import (
	"strings"
	"testing"
	"time"

	domainEvents "github.com/AtRiskMedia/journeytrack-go/internal/domain/events"
	"github.com/AtRiskMedia/journeytrack-go/pkg/config"
)

func TestValidateEventRequiredFields(t *testing.T) {
	svc := &EventProcessingService{}
	now := time.Now().UTC()

	ev := &domainEvents.TrackingEvent{SessionID: "sess-1", Timestamp: now}
	if err := svc.validateEvent(ev, now); err == nil {
		t.Error("expected error for missing eventType")
	}

	ev = &domainEvents.TrackingEvent{EventType: "page_view", Timestamp: now}
	if err := svc.validateEvent(ev, now); err == nil {
		t.Error("expected error for missing sessionId")
	}

	ev = &domainEvents.TrackingEvent{EventType: "page_view", SessionID: "sess-1", Timestamp: now}
	if err := svc.validateEvent(ev, now); err != nil {
		t.Errorf("unexpected error for valid event: %v", err)
	}
}

func TestValidateEventFillsZeroTimestamp(t *testing.T) {
	svc := &EventProcessingService{}
	now := time.Now().UTC()

	ev := &domainEvents.TrackingEvent{EventType: "click", SessionID: "sess-1"}
	if err := svc.validateEvent(ev, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("expected zero timestamp to be filled with now, got %v", ev.Timestamp)
	}
}

func TestValidateEventClampsFutureTimestamp(t *testing.T) {
	svc := &EventProcessingService{}
	now := time.Now().UTC()

	ev := &domainEvents.TrackingEvent{
		EventType: "click",
		SessionID: "sess-1",
		Timestamp: now.Add(config.EventClockSkew + time.Hour),
	}
	if err := svc.validateEvent(ev, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Timestamp.Equal(now) {
		t.Errorf("expected far-future timestamp clamped to now, got %v", ev.Timestamp)
	}
}

func TestValidateEventAllowsSmallClockSkew(t *testing.T) {
	svc := &EventProcessingService{}
	now := time.Now().UTC()

	slightlyAhead := now.Add(config.EventClockSkew / 2)
	ev := &domainEvents.TrackingEvent{EventType: "click", SessionID: "sess-1", Timestamp: slightlyAhead}
	if err := svc.validateEvent(ev, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ev.Timestamp.Equal(slightlyAhead) {
		t.Errorf("timestamp within skew tolerance should be kept, got %v", ev.Timestamp)
	}
}

func TestValidateEventRejectsStaleTimestamp(t *testing.T) {
	svc := &EventProcessingService{}
	now := time.Now().UTC()

	ev := &domainEvents.TrackingEvent{
		EventType: "click",
		SessionID: "sess-1",
		Timestamp: now.Add(-config.MaxEventAge - time.Hour),
	}
	err := svc.validateEvent(ev, now)
	if err == nil {
		t.Fatal("expected error for event older than retention window")
	}
	if !strings.Contains(err.Error(), "retention window") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestValidateEventRejectsOversizedProperties(t *testing.T) {
	svc := &EventProcessingService{}
	now := time.Now().UTC()

	ev := &domainEvents.TrackingEvent{
		EventType: "custom",
		SessionID: "sess-1",
		Timestamp: now,
		Properties: map[string]any{
			"payload": strings.Repeat("x", config.MaxPropertyBytes+1),
		},
	}
	if err := svc.validateEvent(ev, now); err == nil {
		t.Error("expected error for oversized properties")
	}

	ev.Properties = map[string]any{"page": "/pricing"}
	if err := svc.validateEvent(ev, now); err != nil {
		t.Errorf("unexpected error for small properties: %v", err)
	}
}

func TestParseRange(t *testing.T) {
	cases := []struct {
		key  string
		span time.Duration
	}{
		{"", 24 * time.Hour},
		{"24h", 24 * time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
	}

	for _, tc := range cases {
		start, end, err := parseRange(tc.key)
		if err != nil {
			t.Errorf("parseRange(%q) returned error: %v", tc.key, err)
			continue
		}
		if got := end.Sub(start); got != tc.span {
			t.Errorf("parseRange(%q) span = %v, want %v", tc.key, got, tc.span)
		}
	}

	if _, _, err := parseRange("90d"); err == nil {
		t.Error("expected error for unsupported range")
	}
}
