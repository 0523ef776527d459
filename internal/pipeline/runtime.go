package pipeline

import (
	"context"
	"sync"
	"time"

	"secops-console/internal/detect"
	"secops-console/internal/lifecycle"
	"secops-console/internal/metrics"
	"secops-console/internal/model"
	"secops-console/internal/store"
	"secops-console/internal/telemetry"

	"github.com/sirupsen/logrus"
)

// Runtime owns the periodic side of the system: the telemetry sampler and the
// lifecycle engine. Each ingested sample flows through the detector, and any
// resulting events land in the store, which handles broadcast and alerting.
type Runtime struct {
	generator *telemetry.Generator
	detector  *detect.Detector
	store     *store.Store
	lifecycle *lifecycle.Engine
	logger    *logrus.Logger
	m         *metrics.Metrics

	sampleInterval time.Duration

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewRuntime(
	generator *telemetry.Generator,
	detector *detect.Detector,
	s *store.Store,
	engine *lifecycle.Engine,
	sampleInterval time.Duration,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *Runtime {
	if sampleInterval <= 0 {
		sampleInterval = time.Second
	}
	return &Runtime{
		generator:      generator,
		detector:       detector,
		store:          s,
		lifecycle:      engine,
		logger:         logger,
		m:              m,
		sampleInterval: sampleInterval,
		stopChan:       make(chan struct{}),
	}
}

// Start launches the sampling loop and the lifecycle engine. Both run until
// the context is cancelled or Stop is called.
func (r *Runtime) Start(ctx context.Context) {
	r.wg.Add(2)

	go func() {
		defer r.wg.Done()
		r.sampleLoop(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.lifecycle.Start(ctx)
	}()

	r.logger.Infof("Security runtime started (sample interval: %v)", r.sampleInterval)
}

// Stop terminates both loops and waits for them to exit.
func (r *Runtime) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.lifecycle.Stop()
	})
	r.wg.Wait()
}

func (r *Runtime) sampleLoop(ctx context.Context) {
	ticker := time.NewTicker(r.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick()
		case <-ctx.Done():
			r.logger.Info("Telemetry sampler stopped")
			return
		case <-r.stopChan:
			r.logger.Info("Telemetry sampler stopped")
			return
		}
	}
}

func (r *Runtime) tick() {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("Telemetry tick panicked: %v", rec)
		}
	}()
	r.ingest(r.generator.Sample(), "generated")
}

// Ingest runs one externally submitted sample through the full pipeline.
func (r *Runtime) Ingest(sample model.TelemetrySample) []model.SecurityEvent {
	return r.ingest(sample, "external")
}

func (r *Runtime) ingest(sample model.TelemetrySample, source string) []model.SecurityEvent {
	r.store.AddTelemetry(sample)
	r.m.ObserveSample(source)

	events := r.detector.Evaluate(sample)
	for _, event := range events {
		r.store.AddEvent(event)
		r.logger.Warnf("Security event created: [%s] %s (%s)", event.Severity, event.Title, event.ID)
	}
	return events
}
