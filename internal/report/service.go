package report

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"secops-console/internal/model"
	"secops-console/internal/modelrouter"
	"secops-console/internal/store"

	"github.com/sirupsen/logrus"
)

const (
	maxReportIOCs      = 12
	maxScanIndicators  = 6
	maxAuditIndicators = 10
	topEventsPerDaily  = 10
)

var recommendedFixes = []string{
	"Block the identified source addresses at the edge firewall",
	"Enable rate limiting on the affected service endpoints",
	"Rotate credentials and session tokens for the affected accounts",
	"Add a detection rule covering the observed indicators",
}

var recoveryGuide = []string{
	"Confirm the threat is contained and traffic levels are back to baseline",
	"Restore any degraded services and verify health checks",
	"Document the incident and schedule a postmortem review",
}

// Service builds derived artifacts (incident/daily reports, scans,
// assessments, postmortems) from current store state.
type Service struct {
	store    *store.Store
	registry *modelrouter.Registry
	logger   *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(s *store.Store, registry *modelrouter.Registry, logger *logrus.Logger) *Service {
	return &Service{
		store:    s,
		registry: registry,
		logger:   logger,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Incident renders a report for one event. routeOverride forces the
// provider ("local"/"online"); otherwise the router classifies the event
// content. Pure read: no store mutation.
func (s *Service) Incident(eventID, routeOverride string) (model.IncidentReport, error) {
	event, err := s.store.GetEvent(eventID)
	if err != nil {
		return model.IncidentReport{}, err
	}

	provider := routeOverride
	if !modelrouter.ValidProvider(provider) {
		decision := modelrouter.Route("incident_report", event.Title+" "+event.Description, "")
		provider = decision.Provider
	}

	iocs := event.Indicators
	if len(iocs) > maxReportIOCs {
		iocs = iocs[:maxReportIOCs]
	}

	return model.IncidentReport{
		EventID:  event.ID,
		Title:    "Incident Report: " + event.Title,
		Severity: event.Severity,
		Summary: fmt.Sprintf("%s event on %s, currently %s with recovery at %d%%.",
			event.Type, event.Source.Service, event.Status, event.RecoveryProgress),
		Impact: fmt.Sprintf("Service %s observed %s activity; severity assessed as %s.",
			event.Source.Service, event.Type, event.Severity),
		IOCs:             append([]string(nil), iocs...),
		RecommendedFixes: append([]string(nil), recommendedFixes...),
		RecoveryGuide:    append([]string(nil), recoveryGuide...),
		GeneratedAt:      time.Now(),
		Model:            s.registry.ActiveRef(provider),
	}, nil
}

// Daily computes a daily report from current state without persisting it.
func (s *Service) Daily() model.DailyReport {
	events := s.store.ListEvents(s.store.EventCount())

	severityCounts := map[model.Severity]int{}
	statusCounts := map[model.EventStatus]int{}
	high, open := 0, 0
	for _, e := range events {
		severityCounts[e.Severity]++
		statusCounts[e.Status]++
		if e.Severity == model.SeverityHigh || e.Severity == model.SeverityCritical {
			high++
		}
		if e.Status != model.StatusResolved {
			open++
		}
	}

	charts := model.DailyCharts{}
	for _, sev := range model.Severities {
		charts.SeverityDistribution = append(charts.SeverityDistribution,
			model.SeverityCount{Severity: sev, Count: severityCounts[sev]})
	}
	for _, st := range model.Statuses {
		charts.StatusDistribution = append(charts.StatusDistribution,
			model.StatusCount{Status: st, Count: statusCounts[st]})
	}

	rate := 0.0
	if len(events) > 0 {
		rate = float64(high) / float64(len(events)) * 100
	}

	top := events
	if len(top) > topEventsPerDaily {
		top = top[:topEventsPerDaily]
	}

	return model.DailyReport{
		GeneratedAt: time.Now(),
		KPIs: model.DailyKPIs{
			TotalEvents:         len(events),
			HighSeverityRate:    rate,
			OpenIncidents:       open,
			TelemetrySamples24h: s.store.TelemetryCount(),
		},
		Charts:     charts,
		Highlights: dailyHighlights(len(events), high, open),
		TopEvents:  append([]model.SecurityEvent(nil), top...),
	}
}

// GenerateDaily persists the current daily report into history.
func (s *Service) GenerateDaily() model.StoredDailyReport {
	stored := model.StoredDailyReport{
		ID:          model.NewID("daily"),
		DailyReport: s.Daily(),
	}
	s.store.AddDailyReport(stored)
	s.logger.Infof("Daily report generated: %s (%d events)", stored.ID, stored.KPIs.TotalEvents)
	return stored
}

func dailyHighlights(total, high, open int) []string {
	highlights := make([]string, 0, 3)
	if total == 0 {
		highlights = append(highlights, "No security events recorded in the reporting window")
	} else {
		highlights = append(highlights, fmt.Sprintf("%d security event(s) recorded, %d high severity or above", total, high))
	}
	if open > 0 {
		highlights = append(highlights, fmt.Sprintf("%d incident(s) still open and progressing through recovery", open))
	} else {
		highlights = append(highlights, "All recorded incidents are resolved")
	}
	if high > 0 {
		highlights = append(highlights, "Review high severity incidents for postmortem candidates")
	} else {
		highlights = append(highlights, "Posture steady, no elevated-severity activity")
	}
	return highlights
}

// RunVulnerabilityScan draws a random subset of the known findings, persists
// the scan and, when anything was found, opens a vulnerability event.
func (s *Service) RunVulnerabilityScan() (model.VulnerabilityScan, *model.SecurityEvent) {
	s.mu.Lock()
	perm := s.rng.Perm(len(vulnerabilityCatalog))
	count := s.rng.Intn(len(vulnerabilityCatalog) + 1)
	s.mu.Unlock()

	findings := make([]model.VulnerabilityFinding, 0, count)
	for _, idx := range perm[:count] {
		findings = append(findings, vulnerabilityCatalog[idx])
	}

	scan := model.VulnerabilityScan{
		ID:        model.NewID("vuln"),
		ScanID:    model.NewID("scanrun"),
		StartedAt: time.Now(),
		Findings:  findings,
	}
	s.store.AddVulnerabilityScan(scan)

	if len(findings) == 0 {
		s.logger.Infof("Vulnerability scan %s clean", scan.ID)
		return scan, nil
	}

	severity := model.SeverityHigh
	indicators := make([]string, 0, maxScanIndicators)
	for _, f := range findings {
		if f.Severity == model.SeverityCritical {
			severity = model.SeverityCritical
		}
		if len(indicators) < maxScanIndicators {
			ref := f.CVE
			if ref == "" {
				ref = f.ID
			}
			indicators = append(indicators, ref+":"+f.AffectedAsset)
		}
	}

	event := model.NewEvent(
		model.EventVulnerability,
		severity,
		fmt.Sprintf("Vulnerability scan found %d issue(s)", len(findings)),
		fmt.Sprintf("Scan %s surfaced %d finding(s) requiring remediation", scan.ScanID, len(findings)),
		model.EventSource{Service: "vuln-scanner"},
		indicators,
	)
	s.store.AddEvent(event)
	s.logger.Warnf("Vulnerability scan %s created event %s (%s)", scan.ID, event.ID, severity)
	return scan, &event
}

// RunCompliance evaluates every control in the catalog, persists the
// assessment and opens a compliance event when any control fails.
func (s *Service) RunCompliance() (model.ComplianceAssessment, *model.SecurityEvent) {
	controls := make([]model.ComplianceControl, 0, len(complianceCatalog))
	s.mu.Lock()
	for _, spec := range complianceCatalog {
		roll := s.rng.Float64()
		status := model.ControlPass
		switch {
		case roll < 0.1:
			status = model.ControlFail
		case roll < 0.3:
			status = model.ControlWarn
		}
		controls = append(controls, model.ComplianceControl{
			ID:          spec.ID,
			Name:        spec.Name,
			Requirement: spec.Requirement,
			Status:      status,
		})
	}
	s.mu.Unlock()

	assessment := model.ComplianceAssessment{
		ID:         model.NewID("compliance"),
		AssessedAt: time.Now(),
		Controls:   controls,
	}
	s.store.AddComplianceAssessment(assessment)

	failed := 0
	indicators := make([]string, 0, maxAuditIndicators)
	for _, c := range controls {
		if c.Status == model.ControlFail {
			failed++
		}
		if c.Status != model.ControlPass && len(indicators) < maxAuditIndicators {
			indicators = append(indicators, c.ID)
		}
	}
	if failed == 0 {
		s.logger.Infof("Compliance assessment %s passed", assessment.ID)
		return assessment, nil
	}

	event := model.NewEvent(
		model.EventCompliance,
		model.SeverityMedium,
		fmt.Sprintf("Compliance assessment flagged %d failing control(s)", failed),
		fmt.Sprintf("Assessment %s found %d control(s) out of compliance", assessment.ID, failed),
		model.EventSource{Service: "compliance-auditor"},
		indicators,
	)
	s.store.AddEvent(event)
	s.logger.Warnf("Compliance assessment %s created event %s", assessment.ID, event.ID)
	return assessment, &event
}

// CreatePostmortem records a postmortem for an existing event. The knowledge
// base entry is created first and the postmortem references it.
func (s *Service) CreatePostmortem(eventID string, input model.PostmortemInput) (model.Postmortem, error) {
	event, err := s.store.GetEvent(eventID)
	if err != nil {
		return model.Postmortem{}, err
	}

	now := time.Now()
	pm := model.Postmortem{
		EventID:         event.ID,
		CreatedAt:       now,
		PostmortemInput: input,
	}

	snapshot, err := json.Marshal(struct {
		Event      model.SecurityEvent   `json:"event"`
		Postmortem model.PostmortemInput `json:"postmortem"`
	}{event, input})
	if err != nil {
		return model.Postmortem{}, fmt.Errorf("failed to encode postmortem snapshot: %v", err)
	}

	kb := model.KnowledgeBaseEntry{
		ID:        model.NewID("kb"),
		CreatedAt: now,
		Title:     "Postmortem: " + event.Title,
		Tags:      []string{"postmortem", string(event.Type), string(event.Severity)},
		Content:   string(snapshot),
	}
	pm.KnowledgeBaseEntryID = kb.ID

	s.store.AddPostmortem(pm, kb)
	s.logger.Infof("Postmortem recorded for %s (kb entry %s)", event.ID, kb.ID)
	return pm, nil
}
