package telemetry

import (
	"strconv"
	"time"

	"secops-console/internal/model"
)

// RawSample is an externally submitted telemetry sample before validation.
// Fields are loosely typed so malformed payloads degrade instead of failing.
type RawSample struct {
	Timestamp   string          `json:"timestamp"`
	DeviceID    string          `json:"deviceId"`
	Service     string          `json:"service"`
	TrafficMbps any             `json:"trafficMbps"`
	RPS         any             `json:"rps"`
	ErrorRate   any             `json:"errorRate"`
	LatencyMs   any             `json:"latencyMs"`
	HTTPSamples []RawHTTPSample `json:"httpSamples"`
}

type RawHTTPSample struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      any    `json:"status"`
	UserAgent   string `json:"userAgent"`
	BodySnippet string `json:"bodySnippet"`
}

// Normalize converts a raw sample into the canonical shape. Missing or
// unparseable fields take neutral defaults; HTTP sub-samples are capped.
func Normalize(raw RawSample) model.TelemetrySample {
	ts := time.Now()
	if raw.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			ts = parsed
		}
	}

	sample := model.TelemetrySample{
		Timestamp:   ts,
		DeviceID:    defaultString(raw.DeviceID, "unknown"),
		Service:     defaultString(raw.Service, "unknown"),
		TrafficMbps: toFloat(raw.TrafficMbps),
		RPS:         toFloat(raw.RPS),
		ErrorRate:   toFloat(raw.ErrorRate),
		LatencyMs:   toFloat(raw.LatencyMs),
	}

	count := len(raw.HTTPSamples)
	if count > maxHTTPSamples {
		count = maxHTTPSamples
	}
	if count > 0 {
		sample.HTTPSamples = make([]model.HTTPSample, 0, count)
	}
	for _, h := range raw.HTTPSamples[:count] {
		status := int(toFloat(h.Status))
		if status <= 0 {
			status = 200
		}
		sample.HTTPSamples = append(sample.HTTPSamples, model.HTTPSample{
			Method:      defaultString(h.Method, "GET"),
			Path:        defaultString(h.Path, "/"),
			Status:      status,
			UserAgent:   defaultString(h.UserAgent, "unknown"),
			BodySnippet: h.BodySnippet,
		})
	}
	return sample
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// toFloat coerces the JSON value shapes we accept (number, numeric string)
// to a float. Anything else is 0.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
