package profiler

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Profiler tracks frame rate, capture latency and memory statistics for the render loop.
// Outputs stats to the logger at Debug level at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	logger *slog.Logger

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	captures     int
	captureTotal time.Duration
	captureMax   time.Duration
}

// Stats is a point-in-time summary of capture timings.
type Stats struct {
	Captures          int
	CaptureMean       time.Duration
	CaptureMax        time.Duration
	FramesSinceReport int
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second; a nil logger uses slog.Default().
//
// Parameters:
//   - logger: destination for periodic reports
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *slog.Logger) *Profiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Profiler{
		logger:         logger,
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetInterval changes how often Tick reports. Non-positive values are ignored.
func (p *Profiler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.updateInterval = d
	p.mu.Unlock()
}

// Tick should be called once per rendered frame.
// Logs frame rate, heap usage, allocation rate and GC pauses when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.logger.Debug("render loop stats",
		"fps", float64(p.frameCount)/elapsed.Seconds(),
		"heap_mb", float64(p.memStats.Alloc)/1024/1024,
		"alloc_rate_mb_s", float64(allocDelta)/1024/1024/elapsed.Seconds(),
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", float64(p.memStats.Sys)/1024/1024,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// RecordCapture adds one frame capture duration to the capture statistics.
//
// Parameters:
//   - d: wall time spent rendering and encoding the capture
func (p *Profiler) RecordCapture(d time.Duration) {
	p.mu.Lock()
	p.captures++
	p.captureTotal += d
	p.captureMax = max(p.captureMax, d)
	p.mu.Unlock()
}

// Stats returns the capture statistics collected so far.
//
// Returns:
//   - Stats: capture count, mean and max duration
func (p *Profiler) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{
		Captures:          p.captures,
		CaptureMax:        p.captureMax,
		FramesSinceReport: p.frameCount,
	}
	if p.captures > 0 {
		s.CaptureMean = p.captureTotal / time.Duration(p.captures)
	}
	return s
}
