package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/loader"
	"github.com/Carmen-Shannon/oxy-shot/engine/model"
	"github.com/Carmen-Shannon/oxy-shot/engine/profiler"
	"github.com/Carmen-Shannon/oxy-shot/engine/render"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/engine/surface"
)

var (
	// ErrInvalidSurface is returned by NewEngine when the surface is missing, closed or has no area.
	ErrInvalidSurface = errors.New("invalid rendering surface")

	// ErrEngineDisposed is returned by operations on a disposed engine.
	ErrEngineDisposed = errors.New("engine has been disposed")

	// ErrNoScene is returned by CaptureFrame when no scene can be drawn.
	ErrNoScene = errors.New("no scene to capture")
)

// engine implements the Engine interface.
// Coordinates the tick loop, the render loop and the resources shared by its scenes.
type engine struct {
	mu *sync.RWMutex

	// lifecycle is held for reading by imports and captures and for writing by Dispose,
	// so the worker pool is never stopped under an in-flight operation.
	lifecycle *sync.RWMutex

	tickRateChannel chan time.Duration

	running  bool
	disposed bool
	wg       sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once
	disposeOnce sync.Once
	loopCtx     context.Context
	loopCancel  context.CancelFunc

	surface surface.Surface
	logger  *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)

	scenes       map[int]scene.Scene
	nextSceneKey int

	pool         worker.DynamicWorkerPool
	workers      int
	renderer     render.Renderer
	loader       loader.Loader
	maxAssetSize int64
	objectURLs   map[string]objectURL
}

// Engine is the main entry point for the engine.
// It owns the tick loop, the render loop presenting into a surface, the worker pool shared by
// its scenes, the object URL registry used to import assets and offscreen frame capture.
type Engine interface {
	// Surface returns the surface the render loop presents into.
	//
	// Returns:
	//   - surface.Surface: the surface instance
	Surface() surface.Surface

	// Profiler returns the loop and capture statistics collector.
	Profiler() *profiler.Profiler

	// EnableProfiler enables periodic loop statistics in the log.
	EnableProfiler()

	// DisableProfiler disables periodic loop statistics.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// Cameras, framing animations and the tick callback advance at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after scene cameras update.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each presented frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets the render loop frame rate cap in frames per second.
	// Pass 0 to uncap the render loop.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// CreateScene creates a scene bound to the engine's worker pool and logger and registers
	// it above every existing scene.
	//
	// Parameters:
	//   - name: the scene name
	//   - options: additional scene options
	//
	// Returns:
	//   - scene.Scene: the new scene
	CreateScene(name string, options ...scene.SceneBuilderOption) scene.Scene

	// AddScene registers a scene at the given z-index key.
	// The render loop presents the highest-keyed scene that is not disposed.
	//
	// Parameters:
	//   - key: the z-index
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key, or nil.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// CreateObjectURL exposes asset bytes under a temporary URL for ImportAsset.
	// The bytes are not copied and must not be modified while the URL is live.
	//
	// Parameters:
	//   - data: the asset bytes
	//   - mediaType: the declared media type, e.g. model/gltf-binary
	//
	// Returns:
	//   - string: a unique blob:oxy/<uuid> URL
	CreateObjectURL(data []byte, mediaType string) string

	// RevokeObjectURL releases the bytes and the cached import behind a URL. Unknown URLs are ignored.
	//
	// Parameters:
	//   - url: the URL returned by CreateObjectURL
	RevokeObjectURL(url string)

	// ObjectURLs returns the number of live object URLs.
	ObjectURLs() int

	// ImportAsset parses the asset behind an object URL and adds it to a scene under a
	// single __root__ node. Base color textures are registered with the scene and decode
	// asynchronously; the scene reports readiness once they finish.
	//
	// Parameters:
	//   - ctx: cancels the import between read chunks
	//   - url: an object URL from CreateObjectURL
	//   - sc: the destination scene
	//   - onProgress: optional receiver for the import fraction; the final call is exactly 1
	//
	// Returns:
	//   - []scene.Node: the imported roots, a single __root__ node
	//   - error: ErrUnknownObjectURL, scene.ErrSceneDisposed, or a loader error
	ImportAsset(ctx context.Context, url string, sc scene.Scene, onProgress func(fraction float64)) ([]scene.Node, error)

	// ImportedModel returns the import summary for a live object URL, or nil.
	//
	// Parameters:
	//   - url: an object URL that has been imported
	//
	// Returns:
	//   - model.Model: the imported model
	ImportedModel(url string) model.Model

	// CaptureFrame renders the scene viewed by cam into an offscreen target and encodes it as PNG.
	// A nil camera captures the front scene through its active camera.
	//
	// Parameters:
	//   - ctx: cancels the capture
	//   - cam: the camera to capture from
	//   - opts: target size and precision
	//
	// Returns:
	//   - *render.Screenshot: the capture
	//   - error: render.ErrInvalidDimensions, ErrNoScene, ErrEngineDisposed or a render error
	CaptureFrame(ctx context.Context, cam camera.Camera, opts render.CaptureOptions) (*render.Screenshot, error)

	// Start launches the tick and render loops. Calling Start on a running or disposed engine is a no-op.
	Start()

	// Running reports whether the loops are running.
	Running() bool

	// Quit stops the loops without releasing resources. Safe to call multiple times.
	Quit()

	// Dispose stops the loops, disposes every registered scene, revokes every object URL
	// and stops the worker pool. Safe to call multiple times and concurrently.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

var _ Engine = &engine{}

// NewEngine creates a new Engine bound to a surface.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (surface, logger, workers, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrInvalidSurface if the surface is missing, closed or empty
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:               &sync.RWMutex{},
		lifecycle:        &sync.RWMutex{},
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		scenes:           make(map[int]scene.Scene),
		objectURLs:       make(map[string]objectURL),
		logger:           slog.Default(),
		engineTickRate:   time.Second / 60,
		renderFrameLimit: time.Second / 30,
		workers:          max(runtime.NumCPU()-1, 1),
	}

	for _, opt := range options {
		opt(e)
	}

	if e.surface == nil || !e.surface.Valid() {
		return nil, ErrInvalidSurface
	}

	e.loopCtx, e.loopCancel = context.WithCancel(context.Background())
	e.profiler = profiler.NewProfiler(e.logger)
	e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	e.renderer = render.NewRenderer(render.WithWorkerPool(e.pool), render.WithLogger(e.logger))

	loaderOptions := []loader.LoaderBuilderOption{loader.WithLogger(e.logger)}
	if e.maxAssetSize > 0 {
		loaderOptions = append(loaderOptions, loader.WithMaxAssetSize(e.maxAssetSize))
	}
	e.loader = loader.NewLoader(loaderOptions...)

	e.surface.SetResizeCallback(func(width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		for _, s := range e.Scenes() {
			if c := s.ActiveCamera(); c != nil {
				c.SetAspect(float32(width) / float32(height))
			}
		}
	})

	return e, nil
}

func (e *engine) Surface() surface.Surface {
	return e.surface
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.disposed {
		return
	}
	e.running = true
	e.handle()
}

func (e *engine) Running() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Quit signals all engine goroutines to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) Dispose() {
	e.disposeOnce.Do(func() {
		e.signalQuit()
		e.wg.Wait()

		e.lifecycle.Lock()
		defer e.lifecycle.Unlock()

		e.mu.Lock()
		e.disposed = true
		scenes := e.scenes
		urls := e.objectURLs
		e.scenes = make(map[int]scene.Scene)
		e.objectURLs = make(map[string]objectURL)
		e.mu.Unlock()

		for _, s := range scenes {
			s.Dispose()
		}
		for url := range urls {
			e.loader.Release(url)
		}
		e.renderer.Close()
		e.pool.Stop()
		e.logger.Debug("engine disposed", "scenes", len(scenes), "object_urls", len(urls))
	})
}

func (e *engine) Disposed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disposed
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		e.loopCancel()
		close(e.quitChannel)
	})
}

// handle launches the tick and render goroutines. Each is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Updates every scene's active camera, fires the tick callback and listens for dynamic
// rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.RLock()
	rate := e.engineTickRate
	e.mu.RUnlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			for _, s := range e.Scenes() {
				if c := s.ActiveCamera(); c != nil && !s.Disposed() {
					c.Update(dt)
				}
			}

			e.mu.RLock()
			callback := e.tickCallback
			e.mu.RUnlock()
			if callback != nil {
				callback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleRender runs the frame-limited render loop in its own goroutine.
// Draws the front scene at the surface size and presents it.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", "panic", fmt.Sprint(r))
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if s := e.frontScene(); s != nil && s.ActiveCamera() != nil && e.surface.Valid() {
			frame, err := e.renderer.Render(e.loopCtx, s, nil, e.surface.Width(), e.surface.Height())
			switch {
			case err == nil:
				if err := e.surface.Present(frame); err != nil {
					e.logger.Debug("present failed", "err", err)
				}
			case errors.Is(err, context.Canceled):
			default:
				e.logger.Debug("frame render failed", "scene", s.Name(), "err", err)
			}
		}

		e.mu.RLock()
		callback := e.renderCallback
		profiling := e.profilingEnabled
		limit := e.renderFrameLimit
		e.mu.RUnlock()

		if callback != nil {
			callback(dt)
		}
		if profiling {
			e.profiler.Tick()
		}

		if limit > 0 {
			if remaining := limit - time.Since(lastRender); remaining > 0 {
				timer := time.NewTimer(remaining)
				select {
				case <-e.quitChannel:
					timer.Stop()
					return
				case <-timer.C:
				}
			}
		}
	}
}

// frontScene returns the highest-keyed scene that is not disposed.
func (e *engine) frontScene() scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	for _, k := range keys {
		if s := e.scenes[k]; !s.Disposed() {
			return s
		}
	}
	return nil
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if the channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		select {
		case e.tickRateChannel <- newRate:
		default:
		}
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) CreateScene(name string, options ...scene.SceneBuilderOption) scene.Scene {
	base := []scene.SceneBuilderOption{scene.WithWorkerPool(e.pool), scene.WithLogger(e.logger)}
	s := scene.NewScene(name, append(base, options...)...)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		s.Dispose()
		return s
	}
	e.scenes[e.nextSceneKey] = s
	e.nextSceneKey++
	return s
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
	if key >= e.nextSceneKey {
		e.nextSceneKey = key + 1
	}
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}

func (e *engine) CaptureFrame(ctx context.Context, cam camera.Camera, opts render.CaptureOptions) (*render.Screenshot, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", render.ErrInvalidDimensions, opts.Width, opts.Height)
	}

	e.lifecycle.RLock()
	defer e.lifecycle.RUnlock()
	if e.Disposed() {
		return nil, ErrEngineDisposed
	}

	sc := e.sceneFor(cam)
	if sc == nil {
		return nil, ErrNoScene
	}

	start := time.Now()
	shot, err := e.renderer.Capture(ctx, sc, cam, opts)
	if err != nil {
		return nil, err
	}
	e.profiler.RecordCapture(time.Since(start))
	return shot, nil
}

// sceneFor returns the scene whose active camera is cam, or the front scene when cam is nil
// or belongs to no registered scene.
func (e *engine) sceneFor(cam camera.Camera) scene.Scene {
	if cam != nil {
		for _, s := range e.Scenes() {
			if s.ActiveCamera() == cam && !s.Disposed() {
				return s
			}
		}
	}
	return e.frontScene()
}

// frameDuration converts a frame rate into a frame duration; non-positive rates uncap.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
