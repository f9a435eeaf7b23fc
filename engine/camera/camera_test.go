package camera

import (
	"math"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/postprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArcRotatePosition(t *testing.T) {
	tests := []struct {
		name  string
		alpha float32
		beta  float32
		want  [3]float32
	}{
		{name: "on +X", alpha: 0, beta: math.Pi / 2, want: [3]float32{10, 0, 0}},
		{name: "on +Z", alpha: math.Pi / 2, beta: math.Pi / 2, want: [3]float32{0, 0, 10}},
		{name: "near top", alpha: 0, beta: 0, want: [3]float32{0.1, 10, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := NewArcRotateController(WithAlpha(tt.alpha), WithBeta(tt.beta), WithRadius(10))
			p := cc.Position()
			for i := range p {
				assert.InDelta(t, tt.want[i], p[i], 1e-3)
			}
		})
	}
}

func TestArcRotateRadiusLimits(t *testing.T) {
	cc := NewArcRotateController(WithRadius(10), WithLowerRadiusLimit(1), WithUpperRadiusLimit(50))

	cc.SetRadius(100)
	assert.Equal(t, float32(50), cc.Radius())
	cc.SetRadius(0.5)
	assert.Equal(t, float32(1), cc.Radius())

	cc.ClearLowerRadiusLimit()
	_, ok := cc.LowerRadiusLimit()
	assert.False(t, ok)
	cc.SetRadius(0.5)
	assert.Equal(t, float32(0.5), cc.Radius())
}

func TestArcRotateInputRequiresAttach(t *testing.T) {
	cc := NewArcRotateController(WithRadius(10), WithWheelPrecision(50), WithUpperRadiusLimit(50))

	cc.Wheel(100)
	assert.Equal(t, float32(10), cc.Radius())

	cc.AttachInput()
	cc.Wheel(100)
	assert.InDelta(t, 8, cc.Radius(), 1e-5)

	cc.Wheel(-5000)
	assert.Equal(t, float32(50), cc.Radius())

	before := cc.Alpha()
	cc.Orbit(1000, 0)
	assert.InDelta(t, before-1, cc.Alpha(), 1e-5)

	cc.DetachInput()
	cc.KeyDown(common.KeyLeft)
	assert.InDelta(t, before-1, cc.Alpha(), 1e-5)
}

func TestArcRotateKeyboardHome(t *testing.T) {
	cc := NewArcRotateController(WithAlpha(math.Pi/4), WithBeta(math.Pi/3), WithInputAttached(true))
	cc.KeyDown(common.KeyRight)
	cc.KeyDown(common.KeyDown)
	assert.NotEqual(t, float32(math.Pi/4), cc.Alpha())

	cc.KeyDown(common.KeyHome)
	assert.Equal(t, float32(math.Pi/4), cc.Alpha())
	assert.Equal(t, float32(math.Pi/3), cc.Beta())
}

func TestArcRotatePanMovesTarget(t *testing.T) {
	cc := NewArcRotateController(WithPanningSensibility(50), WithInputAttached(true))
	cc.Pan(0, 50)
	target := cc.Target()
	assert.InDelta(t, 1, common.Length(target), 1e-4)
}

func TestFramingSnapsToBounds(t *testing.T) {
	ctrl := NewArcRotateController(WithRadius(10), WithUpperRadiusLimit(50))
	cam := NewCamera(WithController(ctrl), WithAspect(16.0/9.0))
	fb := NewFramingBehavior(cam, WithFramingTime(0))

	box := common.NewBoundingBox([3]float32{-2.5, -2.5, -2.5}, [3]float32{2.5, 2.5, 2.5})
	fb.ZoomOnBounds(box)

	assert.Equal(t, [3]float32{}, ctrl.Target())
	assert.InDelta(t, fb.FramingDistance(box), ctrl.Radius(), 1e-4)
	assert.False(t, fb.Animating())

	// the fitted sphere must lie within the vertical half-angle
	r := box.Diagonal() / 2
	assert.LessOrEqual(t, r/ctrl.Radius(), float32(math.Sin(float64(cam.Fov()/2)))+1e-4)
}

func TestFramingClampsToUpperLimit(t *testing.T) {
	ctrl := NewArcRotateController(WithUpperRadiusLimit(50))
	cam := NewCamera(WithController(ctrl))
	fb := NewFramingBehavior(cam, WithFramingTime(0))

	fb.ZoomOnBounds(common.NewBoundingBox([3]float32{-100, -100, -100}, [3]float32{100, 100, 100}))
	assert.Equal(t, float32(50), ctrl.Radius())
}

func TestFramingIgnoresEmptyBounds(t *testing.T) {
	ctrl := NewArcRotateController(WithRadius(10))
	cam := NewCamera(WithController(ctrl))
	fb := NewFramingBehavior(cam, WithFramingTime(0))

	fb.ZoomOnBounds(common.BoundingBox{})
	assert.Equal(t, float32(10), ctrl.Radius())
}

func TestFramingAnimatesOnTick(t *testing.T) {
	ctrl := NewArcRotateController(WithRadius(40), WithUpperRadiusLimit(50))
	cam := NewCamera(WithController(ctrl))
	fb := NewFramingBehavior(cam, WithFramingTime(time.Second))

	box := common.NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	want := fb.FramingDistance(box)
	fb.ZoomOnBounds(box)
	require.True(t, fb.Animating())
	assert.Equal(t, float32(40), ctrl.Radius())

	cam.Update(0.5)
	mid := ctrl.Radius()
	assert.Less(t, mid, float32(40))
	assert.Greater(t, mid, want)

	cam.Update(0.6)
	assert.False(t, fb.Animating())
	assert.InDelta(t, want, ctrl.Radius(), 1e-4)
}

func TestCameraPostProcesses(t *testing.T) {
	cam := NewCamera()
	cam.AttachPostProcess(postprocess.NewFXAA("fxaa"))
	require.Len(t, cam.PostProcesses(), 1)

	cam.ClearPostProcesses()
	assert.Empty(t, cam.PostProcesses())
}

func TestCameraFrustumContainsTarget(t *testing.T) {
	ctrl := NewArcRotateController(WithRadius(10))
	cam := NewCamera(WithController(ctrl))
	f := cam.Frustum()
	assert.True(t, f.IntersectsBox(common.NewBoundingBox([3]float32{-0.1, -0.1, -0.1}, [3]float32{0.1, 0.1, 0.1})))
	assert.False(t, f.IntersectsBox(common.NewBoundingBox([3]float32{30, 30, 30}, [3]float32{31, 31, 31})))
}
