package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/chewxy/math32"
)

const (
	minBeta      = 0.01
	maxBeta      = math.Pi - 0.01
	minRadius    = 1e-3
	keyboardStep = 0.05
)

// arcRotateControllerImpl is the single implementation of ArcRotateController.
type arcRotateControllerImpl struct {
	mu *sync.Mutex

	target [3]float32

	alpha  float32
	beta   float32
	radius float32

	// orientation restored by the home key
	homeAlpha float32
	homeBeta  float32

	lowerRadiusLimit    float32
	hasLowerRadiusLimit bool
	upperRadiusLimit    float32
	hasUpperRadiusLimit bool

	wheelPrecision     float32
	panningSensibility float32
	angularSensibility float32

	inputAttached bool
}

// Compile-time interface compliance check
var _ ArcRotateController = &arcRotateControllerImpl{}

// NewArcRotateController creates a new orbit controller.
// Defaults: alpha 0, beta π/2, radius 10, target origin, wheel precision 3,
// panning sensibility 1000, angular sensibility 1000, no radius limits, input detached.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - ArcRotateController: the newly created controller
func NewArcRotateController(options ...ArcRotateControllerOption) ArcRotateController {
	cc := &arcRotateControllerImpl{
		mu:                 &sync.Mutex{},
		beta:               math.Pi / 2,
		radius:             10,
		wheelPrecision:     3,
		panningSensibility: 1000,
		angularSensibility: 1000,
	}
	for _, option := range options {
		option(cc)
	}
	cc.beta = common.Clamp(cc.beta, minBeta, maxBeta)
	cc.homeAlpha, cc.homeBeta = cc.alpha, cc.beta
	cc.clampRadius()
	return cc
}

// --- internal helpers ---

// clampRadius applies the active radius limits. Caller must hold the mutex.
func (cc *arcRotateControllerImpl) clampRadius() {
	if cc.hasLowerRadiusLimit && cc.radius < cc.lowerRadiusLimit {
		cc.radius = cc.lowerRadiusLimit
	}
	if cc.hasUpperRadiusLimit && cc.radius > cc.upperRadiusLimit {
		cc.radius = cc.upperRadiusLimit
	}
	cc.radius = max(cc.radius, minRadius)
}

// position computes target + r·(cos α sin β, cos β, sin α sin β). Caller must hold the mutex.
func (cc *arcRotateControllerImpl) position() [3]float32 {
	sinB := math32.Sin(cc.beta)
	return [3]float32{
		cc.target[0] + cc.radius*math32.Cos(cc.alpha)*sinB,
		cc.target[1] + cc.radius*math32.Cos(cc.beta),
		cc.target[2] + cc.radius*math32.Sin(cc.alpha)*sinB,
	}
}

// localAxes returns the camera right and up vectors consistent with the LookAt matrix.
// Caller must hold the mutex.
func (cc *arcRotateControllerImpl) localAxes() (right, up [3]float32) {
	backward := common.Normalize(common.Sub(cc.position(), cc.target))
	right = common.Normalize(common.Cross([3]float32{0, 1, 0}, backward))
	if right == ([3]float32{}) {
		right = [3]float32{1, 0, 0}
	}
	up = common.Cross(backward, right)
	return right, up
}

// --- ArcRotateController ---

func (cc *arcRotateControllerImpl) Position() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position()
}

func (cc *arcRotateControllerImpl) Target() [3]float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *arcRotateControllerImpl) SetTarget(target [3]float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
}

func (cc *arcRotateControllerImpl) Alpha() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.alpha
}

func (cc *arcRotateControllerImpl) SetAlpha(alpha float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.alpha = alpha
}

func (cc *arcRotateControllerImpl) Beta() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.beta
}

func (cc *arcRotateControllerImpl) SetBeta(beta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.beta = common.Clamp(beta, minBeta, maxBeta)
}

func (cc *arcRotateControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *arcRotateControllerImpl) SetRadius(radius float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = radius
	cc.clampRadius()
}

// --- arcRotateLimits ---

func (cc *arcRotateControllerImpl) LowerRadiusLimit() (float32, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.lowerRadiusLimit, cc.hasLowerRadiusLimit
}

func (cc *arcRotateControllerImpl) SetLowerRadiusLimit(limit float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.lowerRadiusLimit = limit
	cc.hasLowerRadiusLimit = true
	cc.clampRadius()
}

func (cc *arcRotateControllerImpl) ClearLowerRadiusLimit() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.lowerRadiusLimit = 0
	cc.hasLowerRadiusLimit = false
}

func (cc *arcRotateControllerImpl) UpperRadiusLimit() (float32, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.upperRadiusLimit, cc.hasUpperRadiusLimit
}

func (cc *arcRotateControllerImpl) SetUpperRadiusLimit(limit float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.upperRadiusLimit = limit
	cc.hasUpperRadiusLimit = true
	cc.clampRadius()
}

func (cc *arcRotateControllerImpl) ClearUpperRadiusLimit() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.upperRadiusLimit = 0
	cc.hasUpperRadiusLimit = false
}

// --- arcRotateInput ---

func (cc *arcRotateControllerImpl) AttachInput() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.inputAttached = true
}

func (cc *arcRotateControllerImpl) DetachInput() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.inputAttached = false
}

func (cc *arcRotateControllerImpl) InputAttached() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.inputAttached
}

func (cc *arcRotateControllerImpl) Orbit(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.inputAttached {
		return
	}
	cc.alpha -= dx / cc.angularSensibility
	cc.beta = common.Clamp(cc.beta-dy/cc.angularSensibility, minBeta, maxBeta)
}

func (cc *arcRotateControllerImpl) Wheel(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.inputAttached {
		return
	}
	cc.radius -= delta / cc.wheelPrecision
	cc.clampRadius()
}

func (cc *arcRotateControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.inputAttached {
		return
	}
	right, up := cc.localAxes()
	offset := common.Add(
		common.Scale(right, -dx/cc.panningSensibility),
		common.Scale(up, dy/cc.panningSensibility),
	)
	cc.target = common.Add(cc.target, offset)
}

func (cc *arcRotateControllerImpl) KeyDown(keyCode uint32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if !cc.inputAttached {
		return
	}
	switch keyCode {
	case common.KeyLeft:
		cc.alpha -= keyboardStep
	case common.KeyRight:
		cc.alpha += keyboardStep
	case common.KeyUp:
		cc.beta = common.Clamp(cc.beta-keyboardStep, minBeta, maxBeta)
	case common.KeyDown:
		cc.beta = common.Clamp(cc.beta+keyboardStep, minBeta, maxBeta)
	case common.KeyPlus, common.KeyNumpadPlus:
		cc.radius -= 10 / cc.wheelPrecision
		cc.clampRadius()
	case common.KeyMinus, common.KeyNumpadMinus:
		cc.radius += 10 / cc.wheelPrecision
		cc.clampRadius()
	case common.KeyHome:
		cc.alpha, cc.beta = cc.homeAlpha, cc.homeBeta
	}
}

func (cc *arcRotateControllerImpl) WheelPrecision() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.wheelPrecision
}

func (cc *arcRotateControllerImpl) SetWheelPrecision(precision float32) {
	if precision <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.wheelPrecision = precision
}

func (cc *arcRotateControllerImpl) PanningSensibility() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panningSensibility
}

func (cc *arcRotateControllerImpl) SetPanningSensibility(sensibility float32) {
	if sensibility <= 0 {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.panningSensibility = sensibility
}

func (cc *arcRotateControllerImpl) AngularSensibility() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.angularSensibility
}
