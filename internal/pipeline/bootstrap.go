package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/light"
	"github.com/Carmen-Shannon/oxy-shot/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/engine/surface"
)

// Initial camera pose and input tuning of every session.
const (
	InitialAlpha             = math.Pi / 4
	InitialBeta              = math.Pi / 3
	InitialRadius            = 10
	initialLowerRadiusLimit  = 1
	upperRadiusLimit         = 50
	wheelPrecision           = 50
	panningSensibility       = 50
	lightIntensity           = 0.7
	defaultPreviewWidth      = 640
	defaultPreviewHeight     = 360
	defaultPreviewFrameLimit = 30
	fxaaName                 = "fxaa"
)

// Bootstrapper creates the isolated rendering context of a model.
type Bootstrapper interface {
	// Bootstrap creates a surface, an engine bound to it and a scene holding the
	// orbit camera, a hemispheric light, the default environment and FXAA, then starts
	// the engine loops.
	//
	// Parameters:
	//   - ctx: aborts the bootstrap before any resource is created
	//   - rec: the model the session is created for
	//   - vp: background color and opacity of the scene
	//
	// Returns:
	//   - *RenderSession: the started session, owned by the caller
	//   - error: a *BootstrapError; partially created resources are released
	Bootstrap(ctx context.Context, rec ModelRecord, vp ViewportConfig) (*RenderSession, error)
}

// bootstrapper is the implementation of Bootstrapper.
type bootstrapper struct {
	logger        *slog.Logger
	previewWidth  int
	previewHeight int
	frameLimit    float64
	workers       int
	maxAssetSize  int64
}

var _ Bootstrapper = &bootstrapper{}

// NewBootstrapper creates a Bootstrapper.
// Defaults: 640x360 preview surface, 30 fps preview, engine worker defaults.
//
// Parameters:
//   - options: functional options to configure the bootstrapper
//
// Returns:
//   - Bootstrapper: the configured bootstrapper
func NewBootstrapper(options ...BootstrapperOption) Bootstrapper {
	b := &bootstrapper{
		logger:        slog.Default(),
		previewWidth:  defaultPreviewWidth,
		previewHeight: defaultPreviewHeight,
		frameLimit:    defaultPreviewFrameLimit,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *bootstrapper) Bootstrap(ctx context.Context, rec ModelRecord, vp ViewportConfig) (*RenderSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BootstrapError{Err: err}
	}
	clearColor, err := vp.ClearColor()
	if err != nil {
		return nil, &BootstrapError{Err: err}
	}

	surf, err := surface.NewSurface(surface.WithSize(b.previewWidth, b.previewHeight))
	if err != nil {
		return nil, &BootstrapError{Err: fmt.Errorf("surface: %w", err)}
	}

	engineOptions := []engine.EngineBuilderOption{
		engine.WithSurface(surf),
		engine.WithLogger(b.logger),
		engine.WithWorkers(b.workers),
		engine.WithMaxAssetSize(b.maxAssetSize),
		engine.WithRenderFrameLimit(b.frameLimit),
	}
	eng, err := engine.NewEngine(engineOptions...)
	if err != nil {
		_ = surf.Close()
		return nil, &BootstrapError{Err: fmt.Errorf("engine: %w", err)}
	}

	cam := camera.NewCamera(
		camera.WithName("camera"),
		camera.WithAspect(float32(b.previewWidth)/float32(b.previewHeight)),
		camera.WithController(NewSessionController()),
	)
	framing := camera.NewFramingBehavior(cam)
	cam.AttachPostProcess(postprocess.NewFXAA(fxaaName))

	sc := eng.CreateScene(rec.ID, scene.WithClearColor(clearColor), scene.WithCamera(cam))
	sc.AddLight(light.NewHemisphericLight("light", [3]float32{0, 1, 0}, light.WithIntensity(lightIntensity)))
	if _, err := sc.CreateDefaultEnvironment(scene.DefaultEnvironmentOptions()); err != nil {
		eng.Dispose()
		_ = surf.Close()
		return nil, &BootstrapError{Err: fmt.Errorf("environment: %w", err)}
	}

	s := &RenderSession{
		mu:        &sync.Mutex{},
		modelID:   rec.ID,
		logger:    b.logger,
		engine:    eng,
		surface:   surf,
		scene:     sc,
		camera:    cam,
		framing:   framing,
		createdAt: time.Now(),
	}
	eng.Start()
	b.logger.Debug("render session created", "model", rec.ID, "name", rec.Name,
		"preview_width", b.previewWidth, "preview_height", b.previewHeight)
	return s, nil
}

// NewSessionController creates the orbit controller every session starts with.
func NewSessionController() camera.ArcRotateController {
	return camera.NewArcRotateController(
		camera.WithAlpha(InitialAlpha),
		camera.WithBeta(InitialBeta),
		camera.WithRadius(InitialRadius),
		camera.WithTarget(0, 0, 0),
		camera.WithLowerRadiusLimit(initialLowerRadiusLimit),
		camera.WithUpperRadiusLimit(upperRadiusLimit),
		camera.WithWheelPrecision(wheelPrecision),
		camera.WithPanningSensibility(panningSensibility),
		camera.WithInputAttached(true),
	)
}

// BootstrapperOption is a functional option for configuring a Bootstrapper.
type BootstrapperOption func(*bootstrapper)

// WithBootstrapLogger sets the logger shared with the engine.
func WithBootstrapLogger(logger *slog.Logger) BootstrapperOption {
	return func(b *bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithPreviewSurface sets the live preview surface size. Non-positive values keep the default.
func WithPreviewSurface(width, height int) BootstrapperOption {
	return func(b *bootstrapper) {
		if width > 0 && height > 0 {
			b.previewWidth, b.previewHeight = width, height
		}
	}
}

// WithPreviewFrameLimit caps the preview render loop in frames per second (0 = uncapped).
func WithPreviewFrameLimit(fps float64) BootstrapperOption {
	return func(b *bootstrapper) {
		b.frameLimit = fps
	}
}

// WithEngineWorkers sets the worker pool size of each session engine.
func WithEngineWorkers(n int) BootstrapperOption {
	return func(b *bootstrapper) {
		b.workers = n
	}
}

// WithAssetSizeLimit caps the size of imported assets in bytes.
func WithAssetSizeLimit(n int64) BootstrapperOption {
	return func(b *bootstrapper) {
		b.maxAssetSize = n
	}
}
