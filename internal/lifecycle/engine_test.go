package lifecycle

import (
	"testing"
	"time"

	"secops-console/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEvent(progress int, status model.EventStatus) model.SecurityEvent {
	e := model.NewEvent(
		model.EventTrafficSpike,
		model.SeverityHigh,
		"spike",
		"test",
		model.EventSource{Service: "gateway"},
		nil,
	)
	e.RecoveryProgress = progress
	e.Status = status
	return e
}

func TestAdvanceNeverDecreasesProgress(t *testing.T) {
	now := time.Now()
	rolls := []float64{0, 0.3, 0.61, 0.9, 1}

	for _, progressRoll := range rolls {
		for _, timelineRoll := range rolls {
			e := openEvent(42, model.StatusInvestigating)
			next, changed := Advance(e, now, progressRoll, timelineRoll)
			require.True(t, changed)
			assert.GreaterOrEqual(t, next.RecoveryProgress, e.RecoveryProgress)
		}
	}
}

func TestAdvanceIncrementSizes(t *testing.T) {
	now := time.Now()

	small, _ := Advance(openEvent(10, model.StatusOpen), now, 0.5, 0)
	assert.Equal(t, 13, small.RecoveryProgress)

	large, _ := Advance(openEvent(10, model.StatusOpen), now, 0.7, 0)
	assert.Equal(t, 18, large.RecoveryProgress)
}

func TestAdvanceClampsAtFullProgress(t *testing.T) {
	next, changed := Advance(openEvent(97, model.StatusMitigated), time.Now(), 0.9, 0)
	require.True(t, changed)
	assert.Equal(t, 100, next.RecoveryProgress)
	assert.Equal(t, model.StatusResolved, next.Status)
}

func TestAdvanceLeavesResolvedUntouched(t *testing.T) {
	e := openEvent(100, model.StatusResolved)
	next, changed := Advance(e, time.Now(), 0.9, 0.9)
	assert.False(t, changed)
	assert.Equal(t, e, next)
}

func TestAdvanceNeverMovesStatusBackward(t *testing.T) {
	now := time.Now()
	order := map[model.EventStatus]int{
		model.StatusOpen:          0,
		model.StatusInvestigating: 1,
		model.StatusMitigated:     2,
		model.StatusResolved:      3,
	}

	for _, status := range []model.EventStatus{model.StatusOpen, model.StatusInvestigating, model.StatusMitigated} {
		e := openEvent(0, status)
		for i := 0; i < 60; i++ {
			next, changed := Advance(e, now, float64(i%10)/10, float64(i%7)/7)
			if !changed {
				break
			}
			assert.GreaterOrEqual(t, order[next.Status], order[e.Status],
				"status moved backward: %s -> %s", e.Status, next.Status)
			e = next
		}
		assert.Equal(t, model.StatusResolved, e.Status)
		assert.Equal(t, 100, e.RecoveryProgress)
	}
}

func TestAdvanceAppendsTimelineNote(t *testing.T) {
	now := time.Now()

	withNote, _ := Advance(openEvent(30, model.StatusInvestigating), now, 0, 0.7)
	assert.Len(t, withNote.Timeline, 3)
	last := withNote.Timeline[2]
	assert.Equal(t, "investigating", last.Phase)

	withoutNote, _ := Advance(openEvent(30, model.StatusInvestigating), now, 0, 0.5)
	assert.Len(t, withoutNote.Timeline, 2)
}

func TestStatusForProgressThresholds(t *testing.T) {
	tests := []struct {
		progress int
		current  model.EventStatus
		want     model.EventStatus
	}{
		{10, model.StatusOpen, model.StatusOpen},
		{24, model.StatusOpen, model.StatusOpen},
		{25, model.StatusOpen, model.StatusInvestigating},
		{69, model.StatusOpen, model.StatusInvestigating},
		{70, model.StatusInvestigating, model.StatusMitigated},
		{99, model.StatusInvestigating, model.StatusMitigated},
		{100, model.StatusMitigated, model.StatusResolved},
	}
	for _, tt := range tests {
		got := StatusForProgress(tt.progress, tt.current)
		assert.Equal(t, tt.want, got, "progress=%d current=%s", tt.progress, tt.current)
	}
}
