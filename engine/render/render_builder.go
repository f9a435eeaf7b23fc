package render

import (
	"log/slog"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithWorkerPool shares an existing worker pool for vertex transformation.
// The renderer does not stop a pool it did not create.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) RendererBuilderOption {
	return func(r *renderer) {
		r.pool = pool
	}
}

// WithWorkers sets the size of the pool the renderer creates when none is shared.
//
// Parameters:
//   - n: the number of workers, values < 1 are ignored
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger for capture diagnostics. The same logger is handed to the rasterizer.
//
// Parameters:
//   - logger: the logger, nil is ignored
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
