package common

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Stats holds atomic counters for sweep telemetry
type Stats struct {
	TotalProfiles     uint64 // Atomic counter for completed kernel runs
	TotalSamples      uint64 // Atomic counter for altitude rows produced
	FailedRuns        uint64 // Atomic counter for kernel errors
	CurrentRunLatency uint64 // Atomic counter for last kernel latency in nanoseconds

	// Internal state for reporter
	running      atomic.Bool
	stopCh       chan struct{}
	out          io.Writer
	silent       bool
	lastProfiles uint64
	lastTime     time.Time

	// Moving average window for profiles/sec
	rateWindow     []float64
	rateWindowSize int
	rateIndex      int
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{
		stopCh:         make(chan struct{}),
		out:            os.Stdout,
		rateWindow:     make([]float64, 10), // 10-sample moving average (5 seconds)
		rateWindowSize: 10,
	}
}

// AddProfile records one completed run with its row count and latency
func (s *Stats) AddProfile(samples int, latency time.Duration) {
	atomic.AddUint64(&s.TotalProfiles, 1)
	atomic.AddUint64(&s.TotalSamples, uint64(samples))
	atomic.StoreUint64(&s.CurrentRunLatency, uint64(latency.Nanoseconds()))
}

// AddFailure records one failed run
func (s *Stats) AddFailure() {
	atomic.AddUint64(&s.FailedRuns, 1)
}

// GetTotalProfiles atomically reads the completed run count
func (s *Stats) GetTotalProfiles() uint64 {
	return atomic.LoadUint64(&s.TotalProfiles)
}

// GetTotalSamples atomically reads the row count
func (s *Stats) GetTotalSamples() uint64 {
	return atomic.LoadUint64(&s.TotalSamples)
}

// GetFailedRuns atomically reads the failure count
func (s *Stats) GetFailedRuns() uint64 {
	return atomic.LoadUint64(&s.FailedRuns)
}

// GetRunLatency atomically reads the last kernel latency
func (s *Stats) GetRunLatency() time.Duration {
	return time.Duration(atomic.LoadUint64(&s.CurrentRunLatency))
}

// SetSilent enables or disables silent mode
func (s *Stats) SetSilent(silent bool) {
	s.silent = silent
}

// SetOutput redirects progress lines (default stdout)
func (s *Stats) SetOutput(w io.Writer) {
	s.out = w
}

// StartReporter starts a background goroutine that prints telemetry stats
// every 500ms
func (s *Stats) StartReporter() {
	if s.running.Load() {
		return // Already running
	}

	s.running.Store(true)
	s.lastTime = time.Now()
	s.lastProfiles = 0

	go s.reporterLoop()
}

// StopReporter stops the background reporter goroutine
func (s *Stats) StopReporter() {
	if !s.running.Load() {
		return
	}

	s.running.Store(false)
	close(s.stopCh)
}

func (s *Stats) reporterLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.printStatus(time.Now())
		}
	}
}

// printStatus prints one progress line using newline-based output
func (s *Stats) printStatus(now time.Time) {
	if s.silent {
		return
	}

	elapsed := now.Sub(s.lastTime).Seconds()
	if elapsed < 0.001 {
		// Avoid division by zero on first tick
		return
	}

	profiles := s.GetTotalProfiles()
	rate := float64(profiles-s.lastProfiles) / elapsed

	s.rateWindow[s.rateIndex] = rate
	s.rateIndex = (s.rateIndex + 1) % s.rateWindowSize

	var sum float64
	var count int
	for _, v := range s.rateWindow {
		if v > 0 {
			sum += v
			count++
		}
	}
	smoothed := 0.0
	if count > 0 {
		smoothed = sum / float64(count)
	}

	latencyMs := float64(s.GetRunLatency()) / float64(time.Millisecond)

	fmt.Fprintf(s.out, "[Progress] Profiles: %d (%.1f/s, avg: %.1f/s) | Samples: %d | Kernel: %.2f ms | Failed: %d\n",
		profiles,
		rate,
		smoothed,
		s.GetTotalSamples(),
		latencyMs,
		s.GetFailedRuns(),
	)

	s.lastProfiles = profiles
	s.lastTime = now
}

// Reset resets all counters (useful for testing or restarting)
func (s *Stats) Reset() {
	atomic.StoreUint64(&s.TotalProfiles, 0)
	atomic.StoreUint64(&s.TotalSamples, 0)
	atomic.StoreUint64(&s.FailedRuns, 0)
	atomic.StoreUint64(&s.CurrentRunLatency, 0)
	s.lastProfiles = 0
	s.lastTime = time.Now()

	for i := range s.rateWindow {
		s.rateWindow[i] = 0
	}
	s.rateIndex = 0
}
