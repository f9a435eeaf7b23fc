package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/postprocess"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

var (
	// ErrInvalidDimensions is returned when a capture or frame is requested with a width or height <= 0.
	ErrInvalidDimensions = errors.New("render dimensions must be positive")

	// ErrNoCamera is returned when neither an explicit camera nor a scene camera is available.
	ErrNoCamera = errors.New("no camera to render from")

	// ErrNilScene is returned when a nil scene is passed to the renderer.
	ErrNilScene = errors.New("scene is nil")
)

// maxRenderPixels bounds the supersampled target so high precision on large captures cannot exhaust memory.
const maxRenderPixels = 7680 * 4320

// CaptureOptions describes the render target used for a capture.
type CaptureOptions struct {
	Width  int
	Height int

	// Precision multiplies the render target size. The result is downsampled back to Width x Height.
	// Values below 1 are treated as 1.
	Precision float64
}

// Screenshot is an encoded capture.
type Screenshot struct {
	PNG        []byte    `json:"-"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CapturedAt time.Time `json:"captured_at"`
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	pool   worker.DynamicWorkerPool
	logger *slog.Logger

	ownsPool bool
	workers  int
	taskID   atomic.Int64
}

// Renderer rasterizes a scene from a camera into an image.
//
// The renderer is a CPU rasterizer: meshes are transformed to clip space on a worker pool,
// culled against the view frustum and near plane, sorted far to near and filled as
// anti-aliased polygons. Camera post-processes run over the finished frame.
type Renderer interface {
	// Render draws a single frame at the given size, post-processes included.
	//
	// Parameters:
	//   - ctx: cancels the frame while vertex work is in flight
	//   - sc: the scene to draw
	//   - cam: the camera to draw from; nil uses the scene's active camera
	//   - width: frame width in pixels
	//   - height: frame height in pixels
	//
	// Returns:
	//   - *image.RGBA: the rendered frame
	//   - error: ErrInvalidDimensions, ErrNoCamera, or a rasterization error
	Render(ctx context.Context, sc scene.Scene, cam camera.Camera, width, height int) (*image.RGBA, error)

	// Capture renders the scene into an offscreen target and encodes it as PNG.
	// The encoded image is always exactly opts.Width x opts.Height.
	//
	// Parameters:
	//   - ctx: cancels the capture
	//   - sc: the scene to draw
	//   - cam: the camera to draw from; nil uses the scene's active camera
	//   - opts: target size and precision
	//
	// Returns:
	//   - *Screenshot: the encoded capture
	//   - error: ErrInvalidDimensions, ErrNoCamera, or an encoding error
	Capture(ctx context.Context, sc scene.Scene, cam camera.Camera, opts CaptureOptions) (*Screenshot, error)

	// Close stops the worker pool if the renderer created it.
	Close()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new software Renderer.
// Without WithWorkerPool the renderer creates its own pool sized to runtime.NumCPU()-1.
//
// Parameters:
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(options ...RendererBuilderOption) Renderer {
	r := &renderer{
		workers: max(runtime.NumCPU()-1, 1),
		logger:  slog.Default(),
	}
	for _, option := range options {
		option(r)
	}
	if r.pool == nil {
		r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
		r.ownsPool = true
	}
	gg.SetLogger(r.logger)
	return r
}

func (r *renderer) Render(ctx context.Context, sc scene.Scene, cam camera.Camera, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if sc == nil {
		return nil, ErrNilScene
	}
	if cam == nil {
		cam = sc.ActiveCamera()
	}
	if cam == nil {
		return nil, ErrNoCamera
	}

	frame, err := r.rasterize(ctx, sc, cam, width, height)
	if err != nil {
		return nil, err
	}
	return postprocess.Chain(frame, cam.PostProcesses()), nil
}

func (r *renderer) Capture(ctx context.Context, sc scene.Scene, cam camera.Camera, opts CaptureOptions) (*Screenshot, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, opts.Width, opts.Height)
	}

	rw, rh := targetSize(opts)
	frame, err := r.Render(ctx, sc, cam, rw, rh)
	if err != nil {
		return nil, err
	}

	if rw != opts.Width || rh != opts.Height {
		dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), frame, frame.Bounds(), draw.Src, nil)
		frame = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("failed to encode screenshot: %w", err)
	}

	r.logger.Debug("frame captured", "width", opts.Width, "height", opts.Height, "target_width", rw, "target_height", rh, "bytes", buf.Len())
	return &Screenshot{
		PNG:        buf.Bytes(),
		Width:      opts.Width,
		Height:     opts.Height,
		CapturedAt: time.Now(),
	}, nil
}

func (r *renderer) Close() {
	if r.ownsPool {
		r.pool.Stop()
	}
}

// targetSize scales the requested size by the precision, capped at maxRenderPixels.
func targetSize(opts CaptureOptions) (int, int) {
	p := opts.Precision
	if p < 1 || math.IsNaN(p) || math.IsInf(p, 0) {
		p = 1
	}
	if area := float64(opts.Width) * float64(opts.Height) * p * p; area > maxRenderPixels {
		p = max(math.Sqrt(maxRenderPixels/(float64(opts.Width)*float64(opts.Height))), 1)
	}
	return int(math.Round(float64(opts.Width) * p)), int(math.Round(float64(opts.Height) * p))
}

// transformAll runs fn for every job on the worker pool and waits for completion or cancellation.
func (r *renderer) transformAll(ctx context.Context, jobs []meshJob, fn func(job meshJob) []triangle) ([][]triangle, error) {
	results := make([][]triangle, len(jobs))
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		index, j := i, job
		r.pool.SubmitTask(worker.Task{
			ID: int(r.taskID.Add(1)),
			Do: func() (any, error) {
				defer wg.Done()
				defer func() {
					if rec := recover(); rec != nil {
						r.logger.Error("mesh transform panicked", "mesh", j.mesh.Name, "panic", fmt.Sprint(rec))
					}
				}()
				results[index] = fn(j)
				return nil, nil
			},
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return results, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
