package baseline

// Tracker maintains a bounded rolling window of recent values per metric
// series and derives a moving average from it. It is not safe for concurrent
// use; callers serialize access (the detector holds it behind its own lock).
type Tracker struct {
	series map[string][]float64
}

func NewTracker() *Tracker {
	return &Tracker{
		series: make(map[string][]float64),
	}
}

// Observe appends value to the metric's series, evicts the oldest entries
// once the series exceeds windowSize, and returns the arithmetic mean of the
// retained values. A windowSize below 1 is treated as 1.
func (t *Tracker) Observe(metric string, value float64, windowSize int) float64 {
	if windowSize < 1 {
		windowSize = 1
	}

	s := append(t.series[metric], value)
	if len(s) > windowSize {
		s = s[len(s)-windowSize:]
	}
	t.series[metric] = s

	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Len returns the number of retained values for a metric series.
func (t *Tracker) Len(metric string) int {
	return len(t.series[metric])
}
