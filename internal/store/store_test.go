package store

import (
	"fmt"
	"testing"
	"time"

	"secops-console/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewStore(logger, nil)
}

func testEvent(title string) model.SecurityEvent {
	return model.NewEvent(
		model.EventTrafficSpike,
		model.SeverityMedium,
		title,
		"test event",
		model.EventSource{Service: "gateway"},
		[]string{"trafficMbps=500"},
	)
}

func TestAddEventThenGet(t *testing.T) {
	s := newTestStore()
	evt := testEvent("spike")
	s.AddEvent(evt)

	got, err := s.GetEvent(evt.ID)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, model.StatusOpen, got.Status)
	assert.Equal(t, 0, got.RecoveryProgress)
	require.Len(t, got.Timeline, 2)
	assert.Equal(t, "detect", got.Timeline[0].Phase)
	assert.Equal(t, "triage", got.Timeline[1].Phase)
}

func TestGetEventUnknownID(t *testing.T) {
	s := newTestStore()
	_, err := s.GetEvent("evt_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEventUnknownIDLeavesListUnchanged(t *testing.T) {
	s := newTestStore()
	s.AddEvent(testEvent("spike"))

	status := model.StatusResolved
	_, err := s.UpdateEvent("evt_missing", model.EventPatch{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.EventCount())
}

func TestUpdateEventMergesFields(t *testing.T) {
	s := newTestStore()
	evt := testEvent("spike")
	s.AddEvent(evt)

	status := model.StatusInvestigating
	progress := 40
	updated, err := s.UpdateEvent(evt.ID, model.EventPatch{
		Status:           &status,
		RecoveryProgress: &progress,
		TimelineAppend:   "source blocked at the edge",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInvestigating, updated.Status)
	assert.Equal(t, 40, updated.RecoveryProgress)
	require.Len(t, updated.Timeline, 3)
	last := updated.Timeline[2]
	assert.Equal(t, "investigating", last.Phase)
	assert.Equal(t, "source blocked at the edge", last.Message)
}

func TestUpdateEventTimelinePhaseUsesCurrentStatusWithoutPatch(t *testing.T) {
	s := newTestStore()
	evt := testEvent("spike")
	s.AddEvent(evt)

	updated, err := s.UpdateEvent(evt.ID, model.EventPatch{TimelineAppend: "note"})
	require.NoError(t, err)
	assert.Equal(t, "open", updated.Timeline[len(updated.Timeline)-1].Phase)
}

func TestListEventsNewestFirstAndIdempotent(t *testing.T) {
	s := newTestStore()
	first := testEvent("first")
	second := testEvent("second")
	s.AddEvent(first)
	s.AddEvent(second)

	list := s.ListEvents(10)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	again := s.ListEvents(10)
	assert.Equal(t, list, again)
}

func TestEventListIsBounded(t *testing.T) {
	s := newTestStore()
	var lastID string
	for i := 0; i < maxEvents+50; i++ {
		evt := testEvent(fmt.Sprintf("evt %d", i))
		s.AddEvent(evt)
		lastID = evt.ID
	}

	assert.Equal(t, maxEvents, s.EventCount())
	// The most recently inserted event is retained at the head.
	list := s.ListEvents(1)
	require.Len(t, list, 1)
	assert.Equal(t, lastID, list[0].ID)
}

func TestTelemetryHistoryIsBounded(t *testing.T) {
	s := newTestStore()
	for i := 0; i < maxTelemetry+25; i++ {
		s.AddTelemetry(model.TelemetrySample{
			Timestamp:   time.Now(),
			TrafficMbps: float64(i),
		})
	}

	assert.Equal(t, maxTelemetry, s.TelemetryCount())
	recent := s.ListTelemetry(1)
	require.Len(t, recent, 1)
	assert.Equal(t, float64(maxTelemetry+24), recent[0].TrafficMbps)
}

func TestSubscriberReceivesEventFrames(t *testing.T) {
	s := newTestStore()
	sub := s.Subscribe(8)
	defer s.Unsubscribe(sub)

	evt := testEvent("spike")
	s.AddEvent(evt)

	select {
	case frame := <-sub.Channel:
		assert.Equal(t, "event_created", frame.Kind)
		created, ok := frame.Data.(model.SecurityEvent)
		require.True(t, ok)
		assert.Equal(t, evt.ID, created.ID)
	case <-time.After(time.Second):
		t.Fatal("expected event_created frame")
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	s := newTestStore()
	sub := s.Subscribe(1)
	defer s.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			s.AddEvent(testEvent(fmt.Sprintf("evt %d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	s := newTestStore()
	sub := s.Subscribe(1)
	s.Unsubscribe(sub)
	s.Unsubscribe(sub)
	assert.Equal(t, 0, s.SubscriberCount())
}

func TestEventHookFiresOnCreate(t *testing.T) {
	s := newTestStore()
	var hooked []string
	s.SetEventHook(func(e model.SecurityEvent) {
		hooked = append(hooked, e.ID)
	})

	evt := testEvent("spike")
	s.AddEvent(evt)
	assert.Equal(t, []string{evt.ID}, hooked)
}

func TestApplyEvolutionBroadcastsOnlyChanged(t *testing.T) {
	s := newTestStore()
	changedEvt := testEvent("advance me")
	stableEvt := testEvent("leave me")
	s.AddEvent(changedEvt)
	s.AddEvent(stableEvt)

	sub := s.Subscribe(16)
	defer s.Unsubscribe(sub)

	n := s.ApplyEvolution(func(e model.SecurityEvent) (model.SecurityEvent, bool) {
		if e.ID != changedEvt.ID {
			return e, false
		}
		e.RecoveryProgress = 10
		return e, true
	})
	assert.Equal(t, 1, n)

	select {
	case frame := <-sub.Channel:
		assert.Equal(t, "event_updated", frame.Kind)
		updated := frame.Data.(model.SecurityEvent)
		assert.Equal(t, changedEvt.ID, updated.ID)
		assert.Equal(t, 10, updated.RecoveryProgress)
	case <-time.After(time.Second):
		t.Fatal("expected event_updated frame")
	}

	select {
	case frame := <-sub.Channel:
		t.Fatalf("unexpected extra frame: %s", frame.Kind)
	default:
	}
}

func TestHistoriesAreBounded(t *testing.T) {
	s := newTestStore()

	for i := 0; i < maxDailyReports+10; i++ {
		s.AddDailyReport(model.StoredDailyReport{ID: model.NewID("daily")})
	}
	assert.Len(t, s.ListDailyReports(1000), maxDailyReports)

	for i := 0; i < maxVulnScans+10; i++ {
		s.AddVulnerabilityScan(model.VulnerabilityScan{ID: model.NewID("vuln")})
	}
	assert.Len(t, s.ListVulnerabilityScans(1000), maxVulnScans)

	for i := 0; i < maxAssessments+10; i++ {
		s.AddComplianceAssessment(model.ComplianceAssessment{ID: model.NewID("compliance")})
	}
	assert.Len(t, s.ListComplianceAssessments(1000), maxAssessments)

	for i := 0; i < maxKnowledge+10; i++ {
		s.AddPostmortem(model.Postmortem{EventID: "evt_x"}, model.KnowledgeBaseEntry{ID: model.NewID("kb")})
	}
	assert.Len(t, s.ListKnowledgeBase(1000), maxKnowledge)
}

func TestSnapshotShape(t *testing.T) {
	s := newTestStore()
	for i := 0; i < 350; i++ {
		s.AddTelemetry(model.TelemetrySample{TrafficMbps: float64(i)})
	}
	for i := 0; i < 250; i++ {
		s.AddEvent(testEvent(fmt.Sprintf("evt %d", i)))
	}

	snap := s.Snapshot()
	assert.Len(t, snap.TelemetryHistory, 300)
	assert.Len(t, snap.Events, 200)
}
