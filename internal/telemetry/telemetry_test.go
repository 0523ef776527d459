package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorProducesPlausibleSamples(t *testing.T) {
	g := NewGenerator()

	for i := 0; i < 200; i++ {
		s := g.Sample()
		assert.NotEmpty(t, s.DeviceID)
		assert.NotEmpty(t, s.Service)
		assert.Greater(t, s.TrafficMbps, 0.0)
		assert.Greater(t, s.RPS, 0.0)
		assert.GreaterOrEqual(t, s.ErrorRate, 0.0)
		assert.Less(t, s.ErrorRate, 1.0)
		require.NotEmpty(t, s.HTTPSamples)
		assert.LessOrEqual(t, len(s.HTTPSamples), maxHTTPSamples)
		for _, h := range s.HTTPSamples {
			assert.NotEmpty(t, h.Method)
			assert.NotEmpty(t, h.Path)
			assert.NotZero(t, h.Status)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	before := time.Now()
	got := Normalize(RawSample{})

	assert.Equal(t, "unknown", got.DeviceID)
	assert.Equal(t, "unknown", got.Service)
	assert.Zero(t, got.TrafficMbps)
	assert.Zero(t, got.RPS)
	assert.Zero(t, got.ErrorRate)
	assert.Zero(t, got.LatencyMs)
	assert.Empty(t, got.HTTPSamples)
	assert.False(t, got.Timestamp.Before(before))
}

func TestNormalizeCoercesValues(t *testing.T) {
	got := Normalize(RawSample{
		Timestamp:   "2026-08-30T10:00:00Z",
		DeviceID:    "edge-fw-01",
		Service:     "gateway",
		TrafficMbps: 123.4,
		RPS:         "560.5",
		ErrorRate:   "not-a-number",
		LatencyMs:   42,
		HTTPSamples: []RawHTTPSample{
			{Method: "POST", Path: "/login", Status: 401.0, UserAgent: "curl/8.5.0", BodySnippet: "<script>"},
			{},
		},
	})

	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), got.Timestamp.UTC())
	assert.Equal(t, 123.4, got.TrafficMbps)
	assert.Equal(t, 560.5, got.RPS)
	assert.Zero(t, got.ErrorRate, "unparseable number defaults to 0")

	require.Len(t, got.HTTPSamples, 2)
	assert.Equal(t, 401, got.HTTPSamples[0].Status)
	assert.Equal(t, "<script>", got.HTTPSamples[0].BodySnippet)

	assert.Equal(t, "GET", got.HTTPSamples[1].Method)
	assert.Equal(t, "/", got.HTTPSamples[1].Path)
	assert.Equal(t, 200, got.HTTPSamples[1].Status)
	assert.Equal(t, "unknown", got.HTTPSamples[1].UserAgent)
}

func TestNormalizeCapsHTTPSamples(t *testing.T) {
	raw := RawSample{}
	for i := 0; i < maxHTTPSamples+10; i++ {
		raw.HTTPSamples = append(raw.HTTPSamples, RawHTTPSample{Method: "GET", Path: "/a"})
	}

	got := Normalize(raw)
	assert.Len(t, got.HTTPSamples, maxHTTPSamples)
}

func TestNormalizeInvalidTimestampFallsBackToNow(t *testing.T) {
	before := time.Now()
	got := Normalize(RawSample{Timestamp: "yesterday-ish"})
	assert.False(t, got.Timestamp.Before(before))
}
