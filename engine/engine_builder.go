package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/engine/surface"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithSurface sets the surface the render loop presents into. Required.
//
// Parameters:
//   - s: the rendering surface
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSurface(s surface.Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithLogger sets the logger shared by the engine, its scenes, the loader and the renderer.
//
// Parameters:
//   - logger: the logger, nil is ignored
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers sets the size of the worker pool used for texture decoding, environment
// generation and vertex transformation.
//
// Parameters:
//   - n: the number of workers, values < 1 are ignored
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxAssetSize caps the size of imported assets.
//
// Parameters:
//   - n: the maximum size in bytes, values <= 0 keep the loader default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxAssetSize(n int64) EngineBuilderOption {
	return func(e *engine) {
		e.maxAssetSize = n
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithScene registers a scene at the given z-index key during engine construction.
//
// Parameters:
//   - key: the z-index, the highest key is presented
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
		if key >= e.nextSceneKey {
			e.nextSceneKey = key + 1
		}
	}
}

// WithRenderFrameLimit sets the render loop frame rate cap in frames per second.
// Pass 0 to uncap the render loop. Defaults to 30.
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
