// ABOUTME: Playback statistics for the player
// ABOUTME: Keeps a sliding window of occupancy samples summarized with gonum
package dynwave

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// defaultStatsWindow is the number of queue calls summarized in Stats
const defaultStatsWindow = 256

// Stats is a snapshot of player counters. Frame counts are device frames.
type Stats struct {
	State     State
	Occupancy int
	Capacity  int

	// Ratio is the most recent resampling ratio; Nominal is its uncorrected value
	Ratio   float64
	Nominal float64

	Pushed        uint64
	Played        uint64
	Discarded     uint64
	Underruns     uint64
	SilenceFrames uint64
	Retries       uint64

	// OccupancyMean and OccupancyStdDev summarize occupancy over recent queue calls
	OccupancyMean   float64
	OccupancyStdDev float64
}

// Fill returns occupancy as a fraction of capacity
func (s Stats) Fill() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Occupancy) / float64(s.Capacity)
}

// occupancyWindow records producer-side samples for Stats readers
type occupancyWindow struct {
	mu      sync.Mutex
	samples []float64
	next    int
	full    bool
	ratio   float64
	retries uint64
}

func newOccupancyWindow(size int, nominal float64) *occupancyWindow {
	return &occupancyWindow{
		samples: make([]float64, size),
		ratio:   nominal,
	}
}

func (w *occupancyWindow) record(occupancy int, ratio float64, retries uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples[w.next] = float64(occupancy)
	w.next++
	if w.next == len(w.samples) {
		w.next = 0
		w.full = true
	}
	w.ratio = ratio
	w.retries = retries
}

func (w *occupancyWindow) reset(nominal float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.next = 0
	w.full = false
	w.ratio = nominal
}

// summary returns mean and standard deviation of the recorded window
func (w *occupancyWindow) summary() (mean, stddev, ratio float64, retries uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.next
	if w.full {
		n = len(w.samples)
	}
	ratio, retries = w.ratio, w.retries
	switch n {
	case 0:
		return 0, 0, ratio, retries
	case 1:
		return w.samples[0], 0, ratio, retries
	}
	mean, stddev = stat.MeanStdDev(w.samples[:n], nil)
	return mean, stddev, ratio, retries
}
