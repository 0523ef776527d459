package detect

import (
	"math"
	"regexp"
	"strings"
)

// MetricRule configures one threshold rule over a single metric.
type MetricRule struct {
	Enabled         bool    `json:"enabled"`
	WindowSize      int     `json:"windowSize"`
	Multiplier      float64 `json:"multiplier"`
	MinAbsThreshold float64 `json:"minAbsThreshold"`
}

// InjectionRule configures the script/injection pattern rule. Patterns are
// compiled case-insensitive; they are only ever replaced wholesale.
type InjectionRule struct {
	Enabled  bool
	Patterns []*regexp.Regexp
}

// Config is the full threat detection configuration.
type Config struct {
	TrafficMbps     MetricRule
	RPS             MetricRule
	ScriptInjection InjectionRule
}

// InjectionView is the wire form of the injection rule, patterns as sources.
type InjectionView struct {
	Enabled  bool     `json:"enabled"`
	Patterns []string `json:"patterns"`
}

// ConfigView is the JSON-serializable form of Config.
type ConfigView struct {
	TrafficMbps     MetricRule    `json:"trafficMbps"`
	RPS             MetricRule    `json:"rps"`
	ScriptInjection InjectionView `json:"scriptInjection"`
}

// MetricRulePatch is a partial update for one metric rule. Nil fields keep
// their previous values; numeric fields are clamped to safe ranges.
type MetricRulePatch struct {
	Enabled         *bool    `json:"enabled,omitempty"`
	WindowSize      *float64 `json:"windowSize,omitempty"`
	Multiplier      *float64 `json:"multiplier,omitempty"`
	MinAbsThreshold *float64 `json:"minAbsThreshold,omitempty"`
}

// InjectionPatch is a partial update for the injection rule. Patterns are
// pattern sources supplied over the wire; uncompilable ones are skipped.
type InjectionPatch struct {
	Enabled  *bool    `json:"enabled,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
}

// ConfigPatch is a partial update for the whole detection config.
type ConfigPatch struct {
	TrafficMbps     *MetricRulePatch `json:"trafficMbps,omitempty"`
	RPS             *MetricRulePatch `json:"rps,omitempty"`
	ScriptInjection *InjectionPatch  `json:"scriptInjection,omitempty"`
}

// DefaultPatterns are the stock injection signatures.
var DefaultPatterns = []string{
	`<script\b`,
	`onerror\s*=`,
	`onload\s*=`,
	`javascript:`,
	`drop\s+table`,
}

const maxPatterns = 20

// DefaultConfig returns the stock detection configuration. The numbers are
// tuning defaults, not protocol guarantees.
func DefaultConfig() Config {
	return Config{
		TrafficMbps: MetricRule{
			Enabled:         true,
			WindowSize:      40,
			Multiplier:      2.2,
			MinAbsThreshold: 450,
		},
		RPS: MetricRule{
			Enabled:         true,
			WindowSize:      40,
			Multiplier:      2.5,
			MinAbsThreshold: 900,
		},
		ScriptInjection: InjectionRule{
			Enabled:  true,
			Patterns: CompilePatterns(DefaultPatterns),
		},
	}
}

// CompilePatterns compiles pattern sources case-insensitive, skipping empty
// and uncompilable entries and keeping at most maxPatterns.
func CompilePatterns(sources []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
		if len(compiled) >= maxPatterns {
			break
		}
	}
	return compiled
}

// patternSource strips the case-insensitivity prefix added at compile time.
func patternSource(re *regexp.Regexp) string {
	return strings.TrimPrefix(re.String(), "(?i)")
}

func clampFloat(v, min, max float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return min
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (r MetricRule) applyPatch(p *MetricRulePatch) MetricRule {
	if p == nil {
		return r
	}
	next := r
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.WindowSize != nil {
		next.WindowSize = int(math.Round(clampFloat(*p.WindowSize, 5, 500)))
	}
	if p.Multiplier != nil {
		next.Multiplier = clampFloat(*p.Multiplier, 1, 20)
	}
	if p.MinAbsThreshold != nil {
		next.MinAbsThreshold = math.Round(clampFloat(*p.MinAbsThreshold, 0, 999999))
	}
	return next
}

func (r InjectionRule) applyPatch(p *InjectionPatch) InjectionRule {
	if p == nil {
		return r
	}
	next := r
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.Patterns != nil {
		if compiled := CompilePatterns(p.Patterns); len(compiled) > 0 {
			next.Patterns = compiled
		}
	}
	return next
}

// ApplyPatch merges a partial update into c field by field.
func (c Config) ApplyPatch(p ConfigPatch) Config {
	return Config{
		TrafficMbps:     c.TrafficMbps.applyPatch(p.TrafficMbps),
		RPS:             c.RPS.applyPatch(p.RPS),
		ScriptInjection: c.ScriptInjection.applyPatch(p.ScriptInjection),
	}
}

// View returns the JSON-serializable form of c.
func (c Config) View() ConfigView {
	sources := make([]string, 0, len(c.ScriptInjection.Patterns))
	for _, re := range c.ScriptInjection.Patterns {
		sources = append(sources, patternSource(re))
	}
	return ConfigView{
		TrafficMbps: c.TrafficMbps,
		RPS:         c.RPS,
		ScriptInjection: InjectionView{
			Enabled:  c.ScriptInjection.Enabled,
			Patterns: sources,
		},
	}
}
