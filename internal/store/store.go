package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"secops-console/internal/metrics"
	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a referenced id does not exist.
var ErrNotFound = errors.New("not found")

// Capacity bounds for the in-memory histories. Eviction is oldest-first and
// applied after every insert.
const (
	maxEvents       = 500
	maxTelemetry    = 2000
	maxDailyReports = 60
	maxVulnScans    = 60
	maxAssessments  = 60
	maxPostmortems  = 200
	maxKnowledge    = 200
)

// Store holds all mutable runtime state: events, telemetry history, derived
// artifact histories, and the stream subscriber registry. All mutations are
// serialized behind mu; broadcast fan-out never blocks a mutation.
type Store struct {
	mu     sync.RWMutex
	logger *logrus.Logger
	m      *metrics.Metrics

	events       []model.SecurityEvent
	telemetry    []model.TelemetrySample
	dailyReports []model.StoredDailyReport
	vulnScans    []model.VulnerabilityScan
	assessments  []model.ComplianceAssessment
	postmortems  []model.Postmortem
	knowledge    []model.KnowledgeBaseEntry

	subsMu sync.RWMutex
	subs   map[*Subscriber]bool

	onEventCreated func(model.SecurityEvent)
}

// Frame is one payload pushed to stream subscribers.
type Frame struct {
	Kind string      `json:"kind"`
	Data interface{} `json:"data"`
}

// Subscriber is one connected stream client. A slow subscriber whose channel
// fills up simply misses frames; delivery is best-effort, at-most-once.
type Subscriber struct {
	ID      string
	Channel chan Frame
}

func NewStore(logger *logrus.Logger, m *metrics.Metrics) *Store {
	return &Store{
		logger: logger,
		m:      m,
		subs:   make(map[*Subscriber]bool),
	}
}

// SetEventHook registers a callback invoked for every created event, after
// the event is stored and broadcast. Used to trigger alert dispatch.
func (s *Store) SetEventHook(hook func(model.SecurityEvent)) {
	s.onEventCreated = hook
}

// Telemetry

// AddTelemetry appends a sample to the bounded history and broadcasts it.
func (s *Store) AddTelemetry(sample model.TelemetrySample) {
	s.mu.Lock()
	s.telemetry = append(s.telemetry, sample)
	if len(s.telemetry) > maxTelemetry {
		s.telemetry = s.telemetry[len(s.telemetry)-maxTelemetry:]
	}
	s.mu.Unlock()

	s.publish("telemetry", sample)
}

// ListTelemetry returns the most recent limit samples, oldest first.
func (s *Store) ListTelemetry(limit int) []model.TelemetrySample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 1
	}
	start := len(s.telemetry) - limit
	if start < 0 {
		start = 0
	}
	result := make([]model.TelemetrySample, len(s.telemetry)-start)
	copy(result, s.telemetry[start:])
	return result
}

// TelemetryCount returns the current history length.
func (s *Store) TelemetryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.telemetry)
}

// Events

// AddEvent prepends the event to the bounded list, broadcasts event_created,
// and triggers the event hook (alert dispatch).
func (s *Store) AddEvent(event model.SecurityEvent) {
	s.mu.Lock()
	s.events = append([]model.SecurityEvent{event}, s.events...)
	if len(s.events) > maxEvents {
		s.events = s.events[:maxEvents]
	}
	s.mu.Unlock()

	s.m.ObserveEvent(string(event.Type), string(event.Severity))
	s.publish("event_created", event)
	if s.onEventCreated != nil {
		s.onEventCreated(event)
	}
}

// ListEvents returns up to limit events, newest first.
func (s *Store) ListEvents(limit int) []model.SecurityEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 1
	}
	if limit > len(s.events) {
		limit = len(s.events)
	}
	result := make([]model.SecurityEvent, limit)
	copy(result, s.events[:limit])
	return result
}

// EventCount returns the current number of stored events.
func (s *Store) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// GetEvent returns the event with the given id.
func (s *Store) GetEvent(id string) (model.SecurityEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.events {
		if s.events[i].ID == id {
			return s.events[i], nil
		}
	}
	return model.SecurityEvent{}, ErrNotFound
}

// UpdateEvent applies an external patch to an event. This is the manual
// override path: status and recovery progress are applied as sent and are
// deliberately not validated against the forward-only lifecycle that the
// automatic evolution enforces.
func (s *Store) UpdateEvent(id string, patch model.EventPatch) (model.SecurityEvent, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.events {
		if s.events[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return model.SecurityEvent{}, ErrNotFound
	}

	event := s.events[idx]
	if patch.Status != nil {
		event.Status = *patch.Status
	}
	if patch.RecoveryProgress != nil {
		event.RecoveryProgress = *patch.RecoveryProgress
	}
	if msg := strings.TrimSpace(patch.TimelineAppend); msg != "" {
		event.Timeline = append(event.Timeline, model.TimelineEntry{
			At:      time.Now(),
			Phase:   string(event.Status),
			Message: msg,
		})
	}
	s.events[idx] = event
	s.mu.Unlock()

	s.publish("event_updated", event)
	return event, nil
}

// ApplyEvolution runs step over every stored event under the write lock and
// replaces the ones step reports as changed, then broadcasts each change.
// It returns the number of changed events.
func (s *Store) ApplyEvolution(step func(model.SecurityEvent) (model.SecurityEvent, bool)) int {
	s.mu.Lock()
	var changed []model.SecurityEvent
	for i := range s.events {
		if next, ok := step(s.events[i]); ok {
			s.events[i] = next
			changed = append(changed, next)
		}
	}
	s.mu.Unlock()

	for _, event := range changed {
		s.publish("event_updated", event)
	}
	return len(changed)
}

// Snapshot returns the initial state burst for a new subscriber.
func (s *Store) Snapshot() model.Snapshot {
	return model.Snapshot{
		TelemetryHistory: s.ListTelemetry(300),
		Events:           s.ListEvents(200),
	}
}

// Daily reports

func (s *Store) AddDailyReport(report model.StoredDailyReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dailyReports = append([]model.StoredDailyReport{report}, s.dailyReports...)
	if len(s.dailyReports) > maxDailyReports {
		s.dailyReports = s.dailyReports[:maxDailyReports]
	}
}

func (s *Store) ListDailyReports(limit int) []model.StoredDailyReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHead(s.dailyReports, limit)
}

func (s *Store) GetDailyReport(id string) (model.StoredDailyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.dailyReports {
		if s.dailyReports[i].ID == id {
			return s.dailyReports[i], nil
		}
	}
	return model.StoredDailyReport{}, ErrNotFound
}

// Vulnerability scans

func (s *Store) AddVulnerabilityScan(scan model.VulnerabilityScan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vulnScans = append([]model.VulnerabilityScan{scan}, s.vulnScans...)
	if len(s.vulnScans) > maxVulnScans {
		s.vulnScans = s.vulnScans[:maxVulnScans]
	}
}

func (s *Store) ListVulnerabilityScans(limit int) []model.VulnerabilityScan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHead(s.vulnScans, limit)
}

func (s *Store) GetVulnerabilityScan(id string) (model.VulnerabilityScan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.vulnScans {
		if s.vulnScans[i].ID == id {
			return s.vulnScans[i], nil
		}
	}
	return model.VulnerabilityScan{}, ErrNotFound
}

// Compliance assessments

func (s *Store) AddComplianceAssessment(assessment model.ComplianceAssessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments = append([]model.ComplianceAssessment{assessment}, s.assessments...)
	if len(s.assessments) > maxAssessments {
		s.assessments = s.assessments[:maxAssessments]
	}
}

func (s *Store) ListComplianceAssessments(limit int) []model.ComplianceAssessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHead(s.assessments, limit)
}

func (s *Store) GetComplianceAssessment(id string) (model.ComplianceAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.assessments {
		if s.assessments[i].ID == id {
			return s.assessments[i], nil
		}
	}
	return model.ComplianceAssessment{}, ErrNotFound
}

// Postmortems and knowledge base

// AddPostmortem persists a postmortem with its knowledge base entry and
// broadcasts postmortem_created.
func (s *Store) AddPostmortem(pm model.Postmortem, kb model.KnowledgeBaseEntry) {
	s.mu.Lock()
	s.knowledge = append([]model.KnowledgeBaseEntry{kb}, s.knowledge...)
	if len(s.knowledge) > maxKnowledge {
		s.knowledge = s.knowledge[:maxKnowledge]
	}
	s.postmortems = append([]model.Postmortem{pm}, s.postmortems...)
	if len(s.postmortems) > maxPostmortems {
		s.postmortems = s.postmortems[:maxPostmortems]
	}
	s.mu.Unlock()

	s.publish("postmortem_created", pm)
}

func (s *Store) ListKnowledgeBase(limit int) []model.KnowledgeBaseEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyHead(s.knowledge, limit)
}

func (s *Store) KnowledgeBaseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.knowledge)
}

// Subscribers

// Subscribe registers a new stream subscriber with the given buffer size.
func (s *Store) Subscribe(buffer int) *Subscriber {
	sub := &Subscriber{
		ID:      model.NewID("sub"),
		Channel: make(chan Frame, buffer),
	}
	s.subsMu.Lock()
	s.subs[sub] = true
	s.subsMu.Unlock()

	s.m.AddStreamClient(1)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(sub *Subscriber) {
	s.subsMu.Lock()
	if _, ok := s.subs[sub]; !ok {
		s.subsMu.Unlock()
		return
	}
	delete(s.subs, sub)
	s.subsMu.Unlock()

	close(sub.Channel)
	s.m.AddStreamClient(-1)
}

// SubscriberCount returns the number of connected subscribers.
func (s *Store) SubscriberCount() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// publish fans a frame out to every subscriber without blocking. A full
// channel means the subscriber is too slow; the frame is skipped.
func (s *Store) publish(kind string, data interface{}) {
	frame := Frame{Kind: kind, Data: data}

	s.subsMu.RLock()
	defer s.subsMu.RUnlock()

	for sub := range s.subs {
		select {
		case sub.Channel <- frame:
		default:
			s.logger.Debugf("Subscriber %s channel full, dropping %s frame", sub.ID, kind)
		}
	}
}

func copyHead[T any](src []T, limit int) []T {
	if limit < 1 {
		limit = 1
	}
	if limit > len(src) {
		limit = len(src)
	}
	result := make([]T, limit)
	copy(result, src[:limit])
	return result
}
