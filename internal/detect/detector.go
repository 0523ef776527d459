package detect

import (
	"fmt"
	"math"
	"regexp"
	"sync"
	"time"

	"secops-console/internal/baseline"
	"secops-console/internal/metrics"
	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	metricTraffic = "traffic_mbps"
	metricRPS     = "rps"

	maxInjectionIndicators = 8
)

// Detector evaluates telemetry samples against the configured rules and
// produces candidate security events. The shared baselines are updated
// exactly once per sample per metric regardless of which rules fire.
type Detector struct {
	mu        sync.Mutex
	cfg       Config
	baselines *baseline.Tracker
	logger    *logrus.Logger
	metrics   *metrics.Metrics
}

func New(cfg Config, logger *logrus.Logger, m *metrics.Metrics) *Detector {
	return &Detector{
		cfg:       cfg,
		baselines: baseline.NewTracker(),
		logger:    logger,
		metrics:   m,
	}
}

// Config returns the current configuration in wire form.
func (d *Detector) Config() ConfigView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg.View()
}

// UpdateConfig merges a partial update and returns the resulting view.
func (d *Detector) UpdateConfig(patch ConfigPatch) ConfigView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = d.cfg.ApplyPatch(patch)
	d.logger.Infof("Threat detection config updated: traffic=%v rps=%v injection=%v (%d patterns)",
		d.cfg.TrafficMbps.Enabled, d.cfg.RPS.Enabled, d.cfg.ScriptInjection.Enabled, len(d.cfg.ScriptInjection.Patterns))
	return d.cfg.View()
}

// Evaluate updates the rolling baselines with the sample and returns zero or
// more candidate events. Multiple rules may fire for the same sample.
func (d *Detector) Evaluate(sample model.TelemetrySample) []model.SecurityEvent {
	start := time.Now()
	d.mu.Lock()
	defer func() {
		d.mu.Unlock()
		d.metrics.ObserveDetection(time.Since(start).Seconds())
	}()

	trafficAvg := d.baselines.Observe(metricTraffic, sample.TrafficMbps, d.cfg.TrafficMbps.WindowSize)
	rpsAvg := d.baselines.Observe(metricRPS, sample.RPS, d.cfg.RPS.WindowSize)
	d.metrics.SetBaseline(metricTraffic, trafficAvg)
	d.metrics.SetBaseline(metricRPS, rpsAvg)

	var events []model.SecurityEvent

	if d.cfg.TrafficMbps.Enabled && sample.TrafficMbps >= math.Max(d.cfg.TrafficMbps.MinAbsThreshold, trafficAvg*d.cfg.TrafficMbps.Multiplier) {
		ratio := sample.TrafficMbps / math.Max(1, trafficAvg)
		sev := SeverityForRatio(ratio)
		d.logger.Warnf("Traffic spike on %s: %.2fMbps (baseline %.2fMbps, %.2fx)", sample.Service, sample.TrafficMbps, trafficAvg, ratio)
		events = append(events, model.NewEvent(
			model.EventTrafficSpike,
			sev,
			"Abnormal traffic spike suspected",
			fmt.Sprintf("Traffic spike detected on %s: %gMbps (baseline ~%.0fMbps)", sample.Service, sample.TrafficMbps, trafficAvg),
			model.EventSource{DeviceID: sample.DeviceID, Service: sample.Service},
			[]string{
				fmt.Sprintf("trafficMbps=%g", sample.TrafficMbps),
				fmt.Sprintf("baselineTraffic~=%.0f", trafficAvg),
			},
		))
	}

	if d.cfg.RPS.Enabled && sample.RPS >= math.Max(d.cfg.RPS.MinAbsThreshold, rpsAvg*d.cfg.RPS.Multiplier) {
		ratio := sample.RPS / math.Max(1, rpsAvg)
		sev := SeverityForRatio(ratio)
		d.logger.Warnf("Request rate anomaly on %s: %.2frps (baseline %.2frps, %.2fx)", sample.Service, sample.RPS, rpsAvg, ratio)
		events = append(events, model.NewEvent(
			model.EventDynamicThreshold,
			sev,
			"Dynamic threshold triggered (request rate anomaly)",
			fmt.Sprintf("Request rate anomaly detected on %s: %grps (baseline ~%.0frps)", sample.Service, sample.RPS, rpsAvg),
			model.EventSource{DeviceID: sample.DeviceID, Service: sample.Service},
			[]string{
				fmt.Sprintf("rps=%g", sample.RPS),
				fmt.Sprintf("baselineRps~=%.0f", rpsAvg),
			},
		))
	}

	if d.cfg.ScriptInjection.Enabled {
		if iocs := matchInjection(sample, d.cfg.ScriptInjection.Patterns); len(iocs) > 0 {
			d.logger.Warnf("Injection signature match on %s: %d indicator(s)", sample.Service, len(iocs))
			events = append(events, model.NewEvent(
				model.EventScriptInjection,
				model.SeverityHigh,
				"Script injection signature match",
				"Suspected script injection or malicious payload signature detected; review WAF logs and sessions immediately",
				model.EventSource{DeviceID: sample.DeviceID, Service: sample.Service},
				iocs,
			))
		}
	}

	return events
}

// SeverityForRatio maps the sample/baseline ratio to an event severity.
func SeverityForRatio(ratio float64) model.Severity {
	switch {
	case ratio >= 4:
		return model.SeverityCritical
	case ratio >= 3:
		return model.SeverityHigh
	case ratio >= 2.2:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// matchInjection scans HTTP body snippets against the compiled patterns and
// returns indicators of the form "METHOD PATH body~/pattern/", capped.
func matchInjection(sample model.TelemetrySample, patterns []*regexp.Regexp) []string {
	var iocs []string
	for _, http := range sample.HTTPSamples {
		if http.BodySnippet == "" {
			continue
		}
		for _, p := range patterns {
			if p.MatchString(http.BodySnippet) {
				iocs = append(iocs, fmt.Sprintf("%s %s body~/%s/", http.Method, http.Path, patternSource(p)))
				if len(iocs) >= maxInjectionIndicators {
					return iocs
				}
			}
		}
	}
	return iocs
}
