package pipeline

import (
	"log/slog"
	"time"
)

// ControllerBuilderOption is a functional option for configuring a Controller.
// Use the With* functions to create options that are applied directly to the controller.
type ControllerBuilderOption func(*Controller)

// WithViewport sets the initial viewport configuration. Invalid configurations are ignored.
//
// Parameters:
//   - vp: background color, opacity and output resolution
//
// Returns:
//   - ControllerBuilderOption: option function to apply
func WithViewport(vp ViewportConfig) ControllerBuilderOption {
	return func(c *Controller) {
		if vp.Validate() == nil {
			c.viewport = vp
		}
	}
}

// WithSettleDelay sets the pause between the end of one model and the start of the next.
//
// Parameters:
//   - d: the delay, negative values are treated as 0
//
// Returns:
//   - ControllerBuilderOption: option function to apply
func WithSettleDelay(d time.Duration) ControllerBuilderOption {
	return func(c *Controller) {
		c.settleDelay = max(d, 0)
	}
}

// WithPollInterval sets the readiness polling period.
//
// Parameters:
//   - d: the interval, values <= 0 keep the default of 100ms
//
// Returns:
//   - ControllerBuilderOption: option function to apply
func WithPollInterval(d time.Duration) ControllerBuilderOption {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPreviewSize sets the live preview surface of each session.
// Ignored when a custom Bootstrapper is supplied.
func WithPreviewSize(width, height int) ControllerBuilderOption {
	return func(c *Controller) {
		if width > 0 && height > 0 {
			c.previewWidth, c.previewHeight = width, height
		}
	}
}

// WithBootstrapper replaces the default Bootstrapper.
func WithBootstrapper(b Bootstrapper) ControllerBuilderOption {
	return func(c *Controller) {
		c.bootstrapper = b
	}
}

// WithImporter replaces the default Importer.
func WithImporter(im Importer) ControllerBuilderOption {
	return func(c *Controller) {
		c.importer = im
	}
}

// WithLogger sets the structured logger shared with sessions and engines.
func WithLogger(logger *slog.Logger) ControllerBuilderOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithWorkers sets the worker pool size of each session engine.
// Ignored when a custom Bootstrapper is supplied.
func WithWorkers(n int) ControllerBuilderOption {
	return func(c *Controller) {
		c.workers = n
	}
}

// WithMaxAssetSize caps the size of imported assets in bytes.
// Ignored when a custom Bootstrapper is supplied.
func WithMaxAssetSize(n int64) ControllerBuilderOption {
	return func(c *Controller) {
		c.maxAssetSize = n
	}
}
