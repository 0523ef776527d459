package model

import (
	"time"
)

// HTTPSample is one request-level snippet attached to a telemetry sample.
type HTTPSample struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	UserAgent   string `json:"userAgent"`
	BodySnippet string `json:"bodySnippet,omitempty"`
}

// TelemetrySample is one periodic observation of system health metrics.
// Samples are immutable once created.
type TelemetrySample struct {
	Timestamp   time.Time    `json:"timestamp"`
	DeviceID    string       `json:"deviceId"`
	Service     string       `json:"service"`
	TrafficMbps float64      `json:"trafficMbps"`
	RPS         float64      `json:"rps"`
	ErrorRate   float64      `json:"errorRate"`
	LatencyMs   float64      `json:"latencyMs"`
	HTTPSamples []HTTPSample `json:"httpSamples"`
}

// Snapshot is the initial state burst sent to a new stream subscriber.
type Snapshot struct {
	TelemetryHistory []TelemetrySample `json:"telemetryHistory"`
	Events           []SecurityEvent   `json:"events"`
}
