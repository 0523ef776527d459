package model

import "time"

// ModelRef identifies the model that produced a generated report.
type ModelRef struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// IncidentReport is a deterministic, stateless rendering of one event.
type IncidentReport struct {
	EventID          string    `json:"eventId"`
	Title            string    `json:"title"`
	Severity         Severity  `json:"severity"`
	Summary          string    `json:"summary"`
	Impact           string    `json:"impact"`
	IOCs             []string  `json:"iocs"`
	RecommendedFixes []string  `json:"recommendedFixes"`
	RecoveryGuide    []string  `json:"recoveryGuide"`
	GeneratedAt      time.Time `json:"generatedAt"`
	Model            ModelRef  `json:"model"`
}

// SeverityCount is one bucket of the daily report severity distribution.
type SeverityCount struct {
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}

// StatusCount is one bucket of the daily report status distribution.
type StatusCount struct {
	Status EventStatus `json:"status"`
	Count  int         `json:"count"`
}

// DailyCharts holds the chartable distributions of the daily report.
type DailyCharts struct {
	SeverityDistribution []SeverityCount `json:"severityDistribution"`
	StatusDistribution   []StatusCount   `json:"statusDistribution"`
}

// DailyKPIs are the headline numbers of the daily report.
type DailyKPIs struct {
	TotalEvents         int     `json:"totalEvents"`
	HighSeverityRate    float64 `json:"highSeverityRate"`
	OpenIncidents       int     `json:"openIncidents"`
	TelemetrySamples24h int     `json:"telemetrySamples24h"`
}

// DailyReport summarizes current event store state.
type DailyReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	KPIs        DailyKPIs       `json:"kpis"`
	Charts      DailyCharts     `json:"charts"`
	Highlights  []string        `json:"highlights"`
	TopEvents   []SecurityEvent `json:"topEvents"`
}

// StoredDailyReport is a daily report persisted into history.
type StoredDailyReport struct {
	ID string `json:"id"`
	DailyReport
}

// VulnerabilityFinding is one item surfaced by a vulnerability scan.
type VulnerabilityFinding struct {
	ID             string   `json:"id"`
	CVE            string   `json:"cve,omitempty"`
	Title          string   `json:"title"`
	Severity       Severity `json:"severity"`
	CVSS           float64  `json:"cvss"`
	AffectedAsset  string   `json:"affectedAsset"`
	Recommendation string   `json:"recommendation"`
}

// VulnerabilityScan is one persisted scan run.
type VulnerabilityScan struct {
	ID        string                 `json:"id"`
	ScanID    string                 `json:"scanId"`
	StartedAt time.Time              `json:"startedAt"`
	Findings  []VulnerabilityFinding `json:"findings"`
}

// ControlStatus is the evaluation outcome of one compliance control.
type ControlStatus string

const (
	ControlPass ControlStatus = "pass"
	ControlWarn ControlStatus = "warn"
	ControlFail ControlStatus = "fail"
)

// ComplianceControl is one assessed control item.
type ComplianceControl struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Requirement string        `json:"requirement"`
	Status      ControlStatus `json:"status"`
}

// ComplianceAssessment is one persisted assessment run.
type ComplianceAssessment struct {
	ID         string              `json:"id"`
	AssessedAt time.Time           `json:"assessedAt"`
	Controls   []ComplianceControl `json:"controls"`
}

// PostmortemNote is one entry of a postmortem timeline.
type PostmortemNote struct {
	At   string `json:"at"`
	Note string `json:"note"`
}

// ActionItem is one followup item of a postmortem.
type ActionItem struct {
	Owner  string `json:"owner"`
	Item   string `json:"item"`
	DueAt  string `json:"dueAt"`
	Status string `json:"status"`
}

// PostmortemInput is the caller-supplied portion of a postmortem.
type PostmortemInput struct {
	RootCause     string           `json:"rootCause"`
	Timeline      []PostmortemNote `json:"timeline"`
	WhatWentWell  []string         `json:"whatWentWell"`
	WhatWentWrong []string         `json:"whatWentWrong"`
	ActionItems   []ActionItem     `json:"actionItems"`
}

// Postmortem is a retrospective record tied to an event. Creation always
// produces exactly one linked knowledge base entry.
type Postmortem struct {
	EventID              string    `json:"eventId"`
	CreatedAt            time.Time `json:"createdAt"`
	KnowledgeBaseEntryID string    `json:"knowledgeBaseEntryId"`
	PostmortemInput
}

// KnowledgeBaseEntry is an append-only snapshot created from a postmortem.
type KnowledgeBaseEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	Content   string    `json:"content"`
}
