package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity levels for events and alerts.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities in ascending order, used for report distributions.
var Severities = []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// EventStatus is the lifecycle state of a security event.
type EventStatus string

const (
	StatusOpen          EventStatus = "open"
	StatusInvestigating EventStatus = "investigating"
	StatusMitigated     EventStatus = "mitigated"
	StatusResolved      EventStatus = "resolved"
)

// Statuses in lifecycle order.
var Statuses = []EventStatus{StatusOpen, StatusInvestigating, StatusMitigated, StatusResolved}

// EventType classifies how an event was detected.
type EventType string

const (
	EventTrafficSpike     EventType = "traffic_spike"
	EventDynamicThreshold EventType = "dynamic_threshold"
	EventScriptInjection  EventType = "script_injection"
	EventAnomaly          EventType = "anomaly"
	EventVulnerability    EventType = "vulnerability"
	EventCompliance       EventType = "compliance"
)

// EventSource describes where an event originated.
type EventSource struct {
	DeviceID string `json:"deviceId,omitempty"`
	Service  string `json:"service,omitempty"`
	IP       string `json:"ip,omitempty"`
}

// TimelineEntry is one append-only note on an event's timeline.
type TimelineEntry struct {
	At      time.Time `json:"at"`
	Phase   string    `json:"phase"`
	Message string    `json:"message"`
}

// SecurityEvent is the central mutable entity of the runtime.
type SecurityEvent struct {
	ID               string          `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	Type             EventType       `json:"type"`
	Severity         Severity        `json:"severity"`
	Status           EventStatus     `json:"status"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Source           EventSource     `json:"source"`
	Indicators       []string        `json:"indicators"`
	RecoveryProgress int             `json:"recoveryProgress"`
	Timeline         []TimelineEntry `json:"timeline"`
}

// EventPatch is the external partial-update for an event. Nil fields keep
// their previous values. TimelineAppend, when non-empty, appends a timeline
// entry stamped with the current time and the new (or current) status.
type EventPatch struct {
	Status           *EventStatus `json:"status,omitempty"`
	RecoveryProgress *int         `json:"recoveryProgress,omitempty"`
	TimelineAppend   string       `json:"timelineAppend,omitempty"`
}

// NewID returns a prefixed unique identifier, e.g. "evt_1f2a...".
func NewID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// NewEvent builds an event in its initial lifecycle state: open, zero
// recovery progress, and the detect/triage timeline entries.
func NewEvent(eventType EventType, severity Severity, title, description string, source EventSource, indicators []string) SecurityEvent {
	now := time.Now()
	return SecurityEvent{
		ID:               NewID("evt"),
		Timestamp:        now,
		Type:             eventType,
		Severity:         severity,
		Status:           StatusOpen,
		Title:            title,
		Description:      description,
		Source:           source,
		Indicators:       indicators,
		RecoveryProgress: 0,
		Timeline: []TimelineEntry{
			{At: now, Phase: "detect", Message: "Suspicious behavior detected, case opened automatically"},
			{At: now, Phase: "triage", Message: "Automatic attribution and impact assessment started"},
		},
	}
}

// ValidSeverity reports whether s is a known severity value.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s EventStatus) bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusMitigated, StatusResolved:
		return true
	}
	return false
}
