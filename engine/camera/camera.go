package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/postprocess"
)

// DefaultFov is the vertical field of view used by new cameras, in radians.
const DefaultFov float32 = 0.8

type cameraImpl struct {
	mu *sync.Mutex

	name string
	up   [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller    ArcRotateController
	behaviors     []Behavior
	postProcesses []postprocess.PostProcess
}

// Behavior is a per-tick extension attached to a camera, such as auto framing.
type Behavior interface {
	// Name returns the behavior identifier.
	Name() string

	// Tick advances the behavior by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time since the last tick in seconds
	Tick(dt float32)
}

// Camera defines the interface for the perspective camera.
// The camera holds perspective settings and computes view/projection matrices
// from an attached ArcRotateController each tick via Update().
type Camera interface {
	// Name returns the camera's identifier.
	Name() string

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Position returns the camera's world-space eye position, or the origin without a controller.
	//
	// Returns:
	//   - [3]float32: the eye position
	Position() [3]float32

	// ViewMatrix returns the current 4x4 view matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// ViewProjectionForAspect computes a view-projection matrix for a render target with a different
	// aspect ratio than the camera's own, without changing camera state.
	//
	// Parameters:
	//   - aspect: target width / height
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionForAspect(aspect float32) [16]float32

	// Frustum returns the view frustum of the current view-projection matrix.
	//
	// Returns:
	//   - common.Frustum: the six normalized frustum planes
	Frustum() common.Frustum

	// Controller returns the attached ArcRotateController, or nil.
	//
	// Returns:
	//   - ArcRotateController: the attached controller or nil
	Controller() ArcRotateController

	// Update ticks every attached behavior, then recomputes matrices from the controller.
	// Should be called once per engine tick. Without a controller only behaviors are ticked.
	//
	// Parameters:
	//   - dt: elapsed time since the last tick in seconds
	Update(dt float32)

	// SetFov sets the field of view in radians and recomputes matrices.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	// Non-positive values are ignored.
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	SetFar(far float32)

	// SetController attaches an ArcRotateController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl ArcRotateController)

	// AddBehavior attaches a behavior ticked by Update.
	//
	// Parameters:
	//   - b: the behavior to attach
	AddBehavior(b Behavior)

	// Behaviors returns a copy of the attached behaviors.
	Behaviors() []Behavior

	// AttachPostProcess appends an effect applied to frames rendered through this camera.
	//
	// Parameters:
	//   - p: the effect to attach
	AttachPostProcess(p postprocess.PostProcess)

	// PostProcesses returns a copy of the attached effects in application order.
	PostProcesses() []postprocess.PostProcess

	// ClearPostProcesses detaches every effect.
	ClearPostProcesses()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings
// (fov 0.8 rad, aspect 1, near 0.1, far 1000).
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:                   &sync.Mutex{},
		name:                 "camera",
		up:                   [3]float32{0, 1, 0},
		fov:                  DefaultFov,
		aspect:               1.0,
		near:                 0.1,
		far:                  1000.0,
		viewMatrix:           common.IdentityMatrix(),
		projectionMatrix:     common.IdentityMatrix(),
		viewProjectionMatrix: common.IdentityMatrix(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Name() string {
	return c.name
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl == nil {
		return [3]float32{}
	}
	return ctrl.Position()
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) ViewProjectionForAspect(aspect float32) [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		aspect = c.aspect
	}
	c.updateMatrices()
	var proj, out [16]float32
	common.Perspective(proj[:], c.fov, aspect, c.near, c.far)
	common.Mul4(out[:], proj[:], c.viewMatrix[:])
	return out
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) Controller() ArcRotateController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update(dt float32) {
	for _, b := range c.Behaviors() {
		b.Tick(dt)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl ArcRotateController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) AddBehavior(b Behavior) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.behaviors = append(c.behaviors, b)
}

func (c *cameraImpl) Behaviors() []Behavior {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Behavior(nil), c.behaviors...)
}

func (c *cameraImpl) AttachPostProcess(p postprocess.PostProcess) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postProcesses = append(c.postProcesses, p)
}

func (c *cameraImpl) PostProcesses() []postprocess.PostProcess {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]postprocess.PostProcess(nil), c.postProcesses...)
}

func (c *cameraImpl) ClearPostProcesses() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postProcesses = nil
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// The view matrix is left unchanged when no controller is attached.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller != nil {
		common.LookAt(c.viewMatrix[:], c.controller.Position(), c.controller.Target(), c.up)
	}
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
