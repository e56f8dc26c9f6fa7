package service

import (
	"sync"
	"time"
)

const latencyWindowSize = 100

// latencyWindow keeps a fixed-size ring of recent credit check durations for
// the status report.
type latencyWindow struct {
	mu      sync.Mutex
	samples [latencyWindowSize]time.Duration
	next    int
	count   int
}

func (w *latencyWindow) Observe(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = d
	w.next = (w.next + 1) % latencyWindowSize
	if w.count < latencyWindowSize {
		w.count++
	}
}

func (w *latencyWindow) AverageMs() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.count == 0 {
		return 0
	}
	var total time.Duration
	for i := 0; i < w.count; i++ {
		total += w.samples[i]
	}
	return float64(total.Milliseconds()) / float64(w.count)
}
