package baseline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserveReturnsMeanOfRetainedWindow(t *testing.T) {
	tr := NewTracker()

	assert.Equal(t, 10.0, tr.Observe("rps", 10, 3))
	assert.Equal(t, 15.0, tr.Observe("rps", 20, 3))
	assert.Equal(t, 20.0, tr.Observe("rps", 30, 3))

	// Window full: the first value (10) is evicted.
	assert.Equal(t, 30.0, tr.Observe("rps", 40, 3))
	assert.Equal(t, 3, tr.Len("rps"))
}

func TestObserveWindowedMeanProperty(t *testing.T) {
	tr := NewTracker()
	values := []float64{5, 1, 9, 2, 8, 4, 7, 3, 6, 0}
	window := 4

	for i, v := range values {
		got := tr.Observe("traffic", v, window)

		start := i + 1 - window
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, w := range values[start : i+1] {
			sum += w
		}
		want := sum / float64(i+1-start)
		assert.InDelta(t, want, got, 1e-9, "after %d observations", i+1)
	}
}

func TestObserveSingleValueNoDivisionByZero(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, 42.0, tr.Observe("traffic", 42, 0))
	assert.Equal(t, 1, tr.Len("traffic"))
}

func TestSeriesAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Observe("a", 100, 5)
	got := tr.Observe("b", 10, 5)
	assert.Equal(t, 10.0, got)
}
