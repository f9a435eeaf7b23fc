package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithClearColor sets the background color.
//
// Parameters:
//   - c: the background color, alpha included
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithClearColor(c common.Color) SceneBuilderOption {
	return func(s *scene) {
		s.clearColor = c
	}
}

// WithCamera sets the active camera.
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithWorkerPool shares an existing worker pool for texture decoding and environment
// generation. The scene does not stop a shared pool on Dispose.
//
// Parameters:
//   - pool: the pool to share
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) SceneBuilderOption {
	return func(s *scene) {
		s.pool = pool
	}
}

// WithWorkers sets the size of the scene-owned worker pool. Ignored when a pool
// is shared through WithWorkerPool. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.workers = max(n, 1)
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
