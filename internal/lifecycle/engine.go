package lifecycle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"secops-console/internal/metrics"
	"secops-console/internal/model"
	"secops-console/internal/store"

	"github.com/sirupsen/logrus"
)

// Progress thresholds driving the automatic status transitions.
const (
	progressInvestigating = 25
	progressMitigated     = 70
	progressResolved      = 100
)

// Engine periodically advances open events through the recovery lifecycle.
// The automatic path is forward-only: progress never decreases and status
// never moves backward.
type Engine struct {
	store    *store.Store
	logger   *logrus.Logger
	m        *metrics.Metrics
	interval time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewEngine(s *store.Store, interval time.Duration, logger *logrus.Logger, m *metrics.Metrics) *Engine {
	if interval <= 0 {
		interval = 2500 * time.Millisecond
	}
	return &Engine{
		store:    s,
		logger:   logger,
		m:        m,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		stopChan: make(chan struct{}),
	}
}

// Start runs the evolution ticker until the context is cancelled or Stop is
// called. A panicking tick is logged and the loop keeps running.
func (e *Engine) Start(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Infof("Lifecycle engine started (interval: %v)", e.interval)

	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-ctx.Done():
			e.logger.Info("Lifecycle engine stopped")
			return
		case <-e.stopChan:
			e.logger.Info("Lifecycle engine stopped")
			return
		}
	}
}

// Stop terminates the ticker loop.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
	})
}

func (e *Engine) tick() {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("Lifecycle tick panicked: %v", r)
		}
	}()

	now := time.Now()
	changed := e.store.ApplyEvolution(func(event model.SecurityEvent) (model.SecurityEvent, bool) {
		e.mu.Lock()
		progressRoll := e.rng.Float64()
		timelineRoll := e.rng.Float64()
		e.mu.Unlock()

		next, ok := Advance(event, now, progressRoll, timelineRoll)
		if ok && next.Status != event.Status {
			e.m.ObserveTransition(string(next.Status))
		}
		return next, ok
	})

	if changed > 0 {
		e.logger.Debugf("Lifecycle tick advanced %d event(s)", changed)
	}
}

// Advance applies one evolution step to an event. progressRoll selects the
// increment size (above 0.6 takes the larger step), timelineRoll decides
// whether a timeline note is appended (above 0.65). Resolved events and
// events at full progress are left untouched. The returned bool reports
// whether anything changed.
func Advance(event model.SecurityEvent, now time.Time, progressRoll, timelineRoll float64) (model.SecurityEvent, bool) {
	if event.Status == model.StatusResolved || event.RecoveryProgress >= progressResolved {
		return event, false
	}

	increment := 3
	if progressRoll > 0.6 {
		increment = 8
	}
	nextProgress := event.RecoveryProgress + increment
	if nextProgress > progressResolved {
		nextProgress = progressResolved
	}

	nextStatus := StatusForProgress(nextProgress, event.Status)
	appendNote := timelineRoll > 0.65 && nextStatus != model.StatusOpen

	if nextProgress == event.RecoveryProgress && nextStatus == event.Status && !appendNote {
		return event, false
	}

	next := event
	next.RecoveryProgress = nextProgress
	next.Status = nextStatus
	if appendNote {
		next.Timeline = append(next.Timeline, model.TimelineEntry{
			At:      now,
			Phase:   string(nextStatus),
			Message: noteForStatus(nextStatus),
		})
	}
	return next, true
}

// StatusForProgress recomputes the lifecycle status from recovery progress.
// A status below the progress tier is never returned; the current status is
// kept when no threshold is reached, so transitions only move forward.
func StatusForProgress(progress int, current model.EventStatus) model.EventStatus {
	switch {
	case progress >= progressResolved:
		return model.StatusResolved
	case progress >= progressMitigated:
		return model.StatusMitigated
	case progress >= progressInvestigating:
		return model.StatusInvestigating
	default:
		return current
	}
}

func noteForStatus(status model.EventStatus) string {
	switch status {
	case model.StatusInvestigating:
		return "Suspicious source located; blocking and rate limiting in progress"
	case model.StatusMitigated:
		return "Primary mitigation complete; monitoring for regression"
	case model.StatusResolved:
		return "Recovery complete; moving to postmortem and knowledge capture"
	default:
		return "Recovery in progress"
	}
}
