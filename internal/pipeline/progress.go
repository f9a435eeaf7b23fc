package pipeline

import (
	"math"
	"sync"
)

const (
	progressImportCeiling = 49
	progressAwaitReady    = 50
	progressReady         = 75
	progressDone          = 100
)

// BatchProgress is the percentage of the current model's pipeline run.
// Within a run it only moves forward; Reset starts a new run.
type BatchProgress struct {
	mu      sync.RWMutex
	percent int
}

// Value returns the current percentage in [0, 100].
func (p *BatchProgress) Value() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.percent
}

// Reset sets the progress to 0. Returns true if the value changed.
func (p *BatchProgress) Reset() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := p.percent != 0
	p.percent = 0
	return changed
}

// Advance moves the progress to percent, clamped to [0, 100]. Lower values are ignored.
// Returns true if the value changed.
func (p *BatchProgress) Advance(percent int) bool {
	percent = min(max(percent, 0), progressDone)
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent <= p.percent {
		return false
	}
	p.percent = percent
	return true
}

// importPercent maps an import fraction to a percentage strictly below the readiness step.
func importPercent(fraction float64) int {
	if fraction != fraction || fraction <= 0 {
		return 0
	}
	if fraction >= 1 {
		return progressImportCeiling
	}
	return int(math.Floor(fraction * progressImportCeiling))
}
