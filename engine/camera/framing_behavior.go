package camera

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/chewxy/math32"
)

// framingBehaviorImpl is the implementation of FramingBehavior.
type framingBehaviorImpl struct {
	mu sync.Mutex

	camera Camera

	framingTime time.Duration
	radiusScale float32

	animating  bool
	elapsed    float32
	fromRadius float32
	toRadius   float32
	fromTarget [3]float32
	toTarget   [3]float32
}

// FramingBehavior positions a camera so that a bounding box fills the view.
// With a framing time of zero the camera snaps; otherwise radius and target are
// animated on subsequent ticks.
type FramingBehavior interface {
	Behavior

	// ZoomOnBounds targets the box center and sets the radius that fits the box diagonal
	// into both the horizontal and vertical frustum, clamped by the upper radius limit.
	// Empty boxes and cameras without a controller are ignored.
	//
	// Parameters:
	//   - box: world-space bounds to frame
	ZoomOnBounds(box common.BoundingBox)

	// FramingDistance returns the camera distance that frames a box without applying it.
	//
	// Parameters:
	//   - box: world-space bounds
	//
	// Returns:
	//   - float32: the framing distance before radius limits
	FramingDistance(box common.BoundingBox) float32

	// FramingTime returns the animation duration (0 snaps instantly).
	FramingTime() time.Duration

	// SetFramingTime sets the animation duration.
	SetFramingTime(d time.Duration)

	// RadiusScale returns the multiplier applied to the box radius.
	RadiusScale() float32

	// Animating reports whether a framing animation is in progress.
	Animating() bool
}

var _ FramingBehavior = &framingBehaviorImpl{}

// NewFramingBehavior creates a framing behavior for a camera and attaches it.
// Defaults: framing time 1.5s, radius scale 1.
//
// Parameters:
//   - cam: the camera to frame with
//   - options: functional options to configure the behavior
//
// Returns:
//   - FramingBehavior: the attached behavior
func NewFramingBehavior(cam Camera, options ...FramingBehaviorOption) FramingBehavior {
	fb := &framingBehaviorImpl{
		camera:      cam,
		framingTime: 1500 * time.Millisecond,
		radiusScale: 1,
	}
	for _, option := range options {
		option(fb)
	}
	cam.AddBehavior(fb)
	return fb
}

func (fb *framingBehaviorImpl) Name() string {
	return "framing"
}

func (fb *framingBehaviorImpl) FramingDistance(box common.BoundingBox) float32 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.framingDistance(box)
}

// framingDistance fits the bounding sphere into the tighter of the two frustum slopes.
// Caller must hold the mutex.
func (fb *framingBehaviorImpl) framingDistance(box common.BoundingBox) float32 {
	radius := box.Diagonal() * 0.5 * fb.radiusScale
	slopeY := math32.Tan(fb.camera.Fov() / 2)
	slopeX := slopeY * fb.camera.Aspect()

	horizontal := radius * math32.Sqrt(1+1/(slopeX*slopeX))
	vertical := radius * math32.Sqrt(1+1/(slopeY*slopeY))
	return max(horizontal, vertical)
}

func (fb *framingBehaviorImpl) ZoomOnBounds(box common.BoundingBox) {
	ctrl := fb.camera.Controller()
	if ctrl == nil || box.IsEmpty() {
		return
	}

	fb.mu.Lock()
	distance := fb.framingDistance(box)
	if upper, ok := ctrl.UpperRadiusLimit(); ok && distance > upper {
		distance = upper
	}
	target := box.Center()

	if fb.framingTime <= 0 {
		fb.animating = false
		fb.mu.Unlock()
		ctrl.SetTarget(target)
		ctrl.SetRadius(distance)
		return
	}

	fb.animating = true
	fb.elapsed = 0
	fb.fromRadius, fb.toRadius = ctrl.Radius(), distance
	fb.fromTarget, fb.toTarget = ctrl.Target(), target
	fb.mu.Unlock()
}

func (fb *framingBehaviorImpl) Tick(dt float32) {
	fb.mu.Lock()
	if !fb.animating {
		fb.mu.Unlock()
		return
	}
	fb.elapsed += dt
	t := min(fb.elapsed/float32(fb.framingTime.Seconds()), 1)
	// ease in-out
	e := t * t * (3 - 2*t)
	radius := fb.fromRadius + (fb.toRadius-fb.fromRadius)*e
	target := common.Lerp3(fb.fromTarget, fb.toTarget, e)
	if t >= 1 {
		fb.animating = false
	}
	fb.mu.Unlock()

	if ctrl := fb.camera.Controller(); ctrl != nil {
		ctrl.SetTarget(target)
		ctrl.SetRadius(radius)
	}
}

func (fb *framingBehaviorImpl) FramingTime() time.Duration {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.framingTime
}

func (fb *framingBehaviorImpl) SetFramingTime(d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.framingTime = d
}

func (fb *framingBehaviorImpl) RadiusScale() float32 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.radiusScale
}

func (fb *framingBehaviorImpl) Animating() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.animating
}

// FramingBehaviorOption is a functional option for configuring a FramingBehavior.
type FramingBehaviorOption func(*framingBehaviorImpl)

// WithFramingTime sets the animation duration; zero snaps instantly.
func WithFramingTime(d time.Duration) FramingBehaviorOption {
	return func(fb *framingBehaviorImpl) {
		fb.framingTime = d
	}
}

// WithRadiusScale sets the multiplier applied to the box radius.
func WithRadiusScale(scale float32) FramingBehaviorOption {
	return func(fb *framingBehaviorImpl) {
		if scale > 0 {
			fb.radiusScale = scale
		}
	}
}
