package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubeMesh(half float32) *Mesh {
	return &Mesh{
		Name:   "cube",
		Bounds: common.NewBoundingBox([3]float32{-half, -half, -half}, [3]float32{half, half, half}),
	}
}

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWorldExtendsFollowsHierarchy(t *testing.T) {
	root := NewNode("__root__", WithPosition([3]float32{10, 0, 0}), WithScaling([3]float32{2, 2, 2}))
	child := NewNode("child", WithMesh(cubeMesh(1)))
	root.AddChild(child)

	box := WorldExtends([]Node{root}, VisibleAndEnabled)
	require.False(t, box.IsEmpty())
	assert.Equal(t, [3]float32{8, -2, -2}, box.Min)
	assert.Equal(t, [3]float32{12, 2, 2}, box.Max)
}

func TestWorldExtendsPredicate(t *testing.T) {
	tests := []struct {
		name      string
		configure func(root, a, b Node)
		wantMax   [3]float32
		wantEmpty bool
	}{
		{
			name:      "all visible",
			configure: func(root, a, b Node) {},
			wantMax:   [3]float32{6, 1, 1},
		},
		{
			name:      "invisible node excluded",
			configure: func(root, a, b Node) { b.SetVisible(false) },
			wantMax:   [3]float32{1, 1, 1},
		},
		{
			name:      "disabled node excluded",
			configure: func(root, a, b Node) { b.SetEnabled(false) },
			wantMax:   [3]float32{1, 1, 1},
		},
		{
			name:      "disabled ancestor excludes everything",
			configure: func(root, a, b Node) { root.SetEnabled(false) },
			wantEmpty: true,
		},
		{
			name:      "invisible parent does not hide children",
			configure: func(root, a, b Node) { root.SetVisible(false) },
			wantMax:   [3]float32{6, 1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewNode("root")
			a := NewNode("a", WithMesh(cubeMesh(1)))
			b := NewNode("b", WithMesh(cubeMesh(1)), WithPosition([3]float32{5, 0, 0}))
			root.AddChild(a)
			root.AddChild(b)
			tt.configure(root, a, b)

			box := WorldExtends([]Node{root}, VisibleAndEnabled)
			if tt.wantEmpty {
				assert.True(t, box.IsEmpty())
				return
			}
			require.False(t, box.IsEmpty())
			assert.Equal(t, tt.wantMax, box.Max)
		})
	}
}

func TestWorldExtendsNoNodes(t *testing.T) {
	assert.True(t, WorldExtends(nil, VisibleAndEnabled).IsEmpty())
	assert.True(t, WorldExtends([]Node{NewNode("empty")}, nil).IsEmpty())
}

func TestAddChildReparents(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	a.AddChild(c)
	b.AddChild(c)

	assert.Empty(t, a.Children())
	assert.Equal(t, []Node{c}, b.Children())
	assert.Equal(t, b, c.Parent())
}

func TestLocalMatrixOverridesTRS(t *testing.T) {
	m := common.IdentityMatrix()
	m[12] = 3
	n := NewNode("n", WithLocalMatrix(m), WithPosition([3]float32{100, 0, 0}))
	got := n.WorldMatrix()
	assert.Equal(t, float32(3), got[12])

	n.SetLocalMatrix(nil)
	got = n.WorldMatrix()
	assert.Equal(t, float32(100), got[12])
}

func TestSceneReadinessWaitsForTextures(t *testing.T) {
	s := NewScene("test", WithWorkers(1))
	defer s.Dispose()
	assert.True(t, s.IsReady())

	tex, err := s.AddTexture(&common.ImportedTexture{
		Name: "red",
		Data: encodePNG(t, 2, 2, color.RGBA{R: 255, A: 255}),
	})
	require.NoError(t, err)

	require.Eventually(t, s.IsReady, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, TextureStateReady, tex.State())
	got := tex.Sample(0.5, 0.5)
	assert.InDelta(t, 1, got[0], 1e-6)
	assert.InDelta(t, 0, got[1], 1e-6)
}

func TestSceneFailedTextureStillSettles(t *testing.T) {
	s := NewScene("test", WithWorkers(1))
	defer s.Dispose()

	tex, err := s.AddTexture(&common.ImportedTexture{Name: "bad", Data: []byte("not an image")})
	require.NoError(t, err)

	require.Eventually(t, s.IsReady, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, TextureStateFailed, tex.State())
	assert.Error(t, tex.Err())
	assert.Equal(t, [4]float32{1, 1, 1, 1}, tex.Sample(0.2, 0.2))
}

func TestCreateDefaultEnvironmentIsIdempotent(t *testing.T) {
	s := NewScene("test", WithWorkers(1))
	defer s.Dispose()
	assert.Nil(t, s.EnvironmentTexture())

	first, err := s.CreateDefaultEnvironment(DefaultEnvironmentOptions())
	require.NoError(t, err)
	second, err := s.CreateDefaultEnvironment(DefaultEnvironmentOptions())
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.Eventually(t, func() bool { return s.EnvironmentTexture().IsReady() }, 2*time.Second, 5*time.Millisecond)
	up := first.Ambient([3]float32{0, 1, 0})
	down := first.Ambient([3]float32{0, -1, 0})
	assert.Greater(t, up[2], down[2])
}

func TestCreateDefaultEnvironmentPanicFailsTexture(t *testing.T) {
	orig := generateEnvironment
	generateEnvironment = func(EnvironmentOptions) *image.RGBA { panic("gradient") }
	t.Cleanup(func() { generateEnvironment = orig })

	s := NewScene("test", WithWorkers(1))
	defer s.Dispose()

	env, err := s.CreateDefaultEnvironment(DefaultEnvironmentOptions())
	require.NoError(t, err)
	require.Eventually(t, s.IsReady, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, TextureStateFailed, env.Texture().State())
	assert.ErrorContains(t, env.Texture().Err(), "gradient")
	assert.Equal(t, [3]float32{}, env.Ambient([3]float32{0, 1, 0}))
}

func TestSceneDispose(t *testing.T) {
	s := NewScene("test", WithWorkers(1))
	s.AddNode(NewNode("root", WithMesh(cubeMesh(1))))
	require.Len(t, s.MeshNodes(), 1)

	s.Dispose()
	s.Dispose()
	assert.True(t, s.Disposed())
	assert.False(t, s.IsReady())
	assert.Empty(t, s.RootNodes())

	_, err := s.AddTexture(&common.ImportedTexture{Name: "x", Data: []byte{1}})
	assert.ErrorIs(t, err, ErrSceneDisposed)
	_, err = s.CreateDefaultEnvironment(DefaultEnvironmentOptions())
	assert.ErrorIs(t, err, ErrSceneDisposed)
}

func TestTextureAddressModes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{B: 255, A: 255})

	sampler := common.DefaultSampler()
	sampler.MagFilter = wgpu.FilterModeNearest
	tex := NewTextureFromImage("t", img, sampler)

	left := tex.Sample(0.25, 0.5)
	right := tex.Sample(1.25, 0.5)
	assert.Equal(t, left, right)
	assert.InDelta(t, 1, left[0], 1e-6)
}
