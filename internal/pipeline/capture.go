package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-shot/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-shot/engine/render"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
)

// capturePrecision renders at the exact output size.
const capturePrecision = 1

// CaptureEngine renders a prepared session offscreen and encodes the result.
type CaptureEngine struct {
	framer *Framer
	gate   *ReadinessGate
	logger *slog.Logger
}

// NewCaptureEngine creates a CaptureEngine that refits with framer and waits on gate
// for the default environment it attaches.
func NewCaptureEngine(framer *Framer, gate *ReadinessGate, logger *slog.Logger) *CaptureEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureEngine{framer: framer, gate: gate, logger: logger}
}

// Capture ensures the default environment, refits the camera for the output aspect,
// attaches a fresh FXAA pass and captures width x height pixels. The camera orientation
// is reset to the initial pose afterwards.
//
// Parameters:
//   - ctx: cancels the environment wait and the render
//   - s: a framed session whose scene is ready
//   - width, height: output size in pixels
//
// Returns:
//   - *render.Screenshot: the PNG capture
//   - error: a *CaptureError (wrapping ErrInvalidDimensions for sizes <= 0),
//     ErrSessionDisposed, or the context error
func (c *CaptureEngine) Capture(ctx context.Context, s *RenderSession, width, height int) (shot *render.Screenshot, err error) {
	if width <= 0 || height <= 0 {
		return nil, &CaptureError{Err: fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)}
	}
	if s.Disposed() {
		return nil, ErrSessionDisposed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("capture panicked", "model", s.ModelID(), "panic", fmt.Sprint(r))
			shot, err = nil, &CaptureError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	sc := s.Scene()
	if _, err := sc.CreateDefaultEnvironment(scene.DefaultEnvironmentOptions()); err != nil {
		return nil, c.fail(ctx, s, err)
	}
	if err := c.gate.Wait(ctx, sc); err != nil {
		return nil, c.fail(ctx, s, err)
	}

	cam := s.Camera()
	aspect := cam.Aspect()
	defer func() {
		cam.SetAspect(aspect)
		if ctrl := s.Controller(); ctrl != nil {
			ctrl.SetAlpha(InitialAlpha)
			ctrl.SetBeta(InitialBeta)
		}
	}()

	cam.SetAspect(float32(width) / float32(height))
	c.framer.Refit(s)
	cam.ClearPostProcesses()
	cam.AttachPostProcess(postprocess.NewFXAA(fxaaName))

	shot, err = s.Engine().CaptureFrame(ctx, cam, render.CaptureOptions{
		Width:     width,
		Height:    height,
		Precision: capturePrecision,
	})
	if err != nil {
		return nil, c.fail(ctx, s, err)
	}
	c.logger.Debug("screenshot captured", "model", s.ModelID(), "width", shot.Width, "height", shot.Height, "bytes", len(shot.PNG))
	return shot, nil
}

// fail maps an error to the capture result: disposal and cancellation pass through,
// everything else becomes a *CaptureError.
func (c *CaptureEngine) fail(ctx context.Context, s *RenderSession, err error) error {
	if s.Disposed() {
		return ErrSessionDisposed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &CaptureError{Err: err}
}
