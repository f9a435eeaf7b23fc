package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxNode(name string, min, max [3]float32) scene.Node {
	return scene.NewNode(name, scene.WithMesh(&scene.Mesh{Name: name, Bounds: common.NewBoundingBox(min, max)}))
}

func assertVec(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d", i)
	}
}

func TestFrameNormalizesImportedModel(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantScale float32
		wantSize  [3]float32
	}{
		{
			name:      "cube of size two",
			data:      glbtest.Cube(2),
			wantScale: 2.5,
			wantSize:  [3]float32{5, 5, 5},
		},
		{
			name:      "offset box",
			data:      glbtest.Box([3]float32{10, 0, -4}, [3]float32{14, 2, -3}),
			wantScale: 1.25,
			wantSize:  [3]float32{5, 2.5, 1.25},
		},
		{
			name:      "translated and scaled node",
			data:      glbtest.Build(glbtest.WithTranslation([3]float32{3, 4, 5}), glbtest.WithScale([3]float32{10, 10, 10})),
			wantScale: 0.5,
			wantSize:  [3]float32{5, 5, 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, nodes := importedSession(t, tt.data)

			result := NewFramer().Frame(s, nodes)
			require.True(t, result.Framed)
			assert.InDelta(t, tt.wantScale, result.Scale, 1e-5)

			box := scene.WorldExtends(nodes, scene.VisibleAndEnabled)
			assertVec(t, [3]float32{}, box.Center())
			assertVec(t, tt.wantSize, box.Size())
			assert.InDelta(t, CanonicalSize, box.MaxDimension(), 1e-4)

			ctrl := s.Controller()
			_, hasLower := ctrl.LowerRadiusLimit()
			assert.False(t, hasLower)
			assert.Zero(t, s.Framing().FramingTime())
			assert.False(t, s.Framing().Animating())
			assertVec(t, [3]float32{}, ctrl.Target())
			assert.InDelta(t, s.Framing().FramingDistance(box), ctrl.Radius(), 1e-4)
			assert.Equal(t, result.Radius, ctrl.Radius())
			assert.Equal(t, nodes, s.Nodes())
		})
	}
}

func TestFrameExcludesHiddenAndDisabledNodes(t *testing.T) {
	root := scene.NewNode("__root__")
	root.AddChild(boxNode("visible", [3]float32{-1, -1, -1}, [3]float32{1, 1, 1}))

	hidden := boxNode("hidden", [3]float32{50, 50, 50}, [3]float32{60, 60, 60})
	hidden.SetVisible(false)
	root.AddChild(hidden)

	group := scene.NewNode("group")
	group.SetEnabled(false)
	group.AddChild(boxNode("inside disabled", [3]float32{-90, 0, 0}, [3]float32{-80, 1, 1}))
	root.AddChild(group)

	nodes := []scene.Node{root}
	s := cameraSession(nodes)
	result := NewFramer().Frame(s, nodes)

	require.True(t, result.Framed)
	assert.InDelta(t, 2.5, result.Scale, 1e-5)
	assertVec(t, [3]float32{}, result.Center)
	assertVec(t, [3]float32{5, 5, 5}, result.Bounds.Size())
}

func TestFrameDegenerateGeometry(t *testing.T) {
	point := [3]float32{2, 3, 4}
	root := scene.NewNode("__root__")
	root.AddChild(boxNode("point", point, point))
	nodes := []scene.Node{root}
	s := cameraSession(nodes)

	result := NewFramer().Frame(s, nodes)
	require.True(t, result.Framed)
	assert.Equal(t, float32(1), result.Scale)
	assert.Equal(t, [3]float32{1, 1, 1}, root.Scaling())
	assertVec(t, [3]float32{-2, -3, -4}, root.Position())
	assertVec(t, [3]float32{}, result.Bounds.Center())
}

func TestFrameWithoutVisibleGeometryKeepsDefaultPose(t *testing.T) {
	hidden := boxNode("hidden", [3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	hidden.SetVisible(false)

	tests := []struct {
		name  string
		nodes []scene.Node
	}{
		{name: "no nodes"},
		{name: "node without mesh", nodes: []scene.Node{scene.NewNode("empty")}},
		{name: "only hidden geometry", nodes: []scene.Node{hidden}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cameraSession(tt.nodes)
			ctrl := s.Controller()

			result := NewFramer().Frame(s, tt.nodes)
			assert.False(t, result.Framed)
			assert.Equal(t, float32(InitialRadius), ctrl.Radius())
			assert.InDelta(t, InitialAlpha, ctrl.Alpha(), 1e-6)
			assert.Equal(t, [3]float32{}, ctrl.Target())
			_, hasLower := ctrl.LowerRadiusLimit()
			assert.True(t, hasLower)
			for _, n := range tt.nodes {
				assert.Equal(t, [3]float32{}, n.Position())
				assert.Equal(t, [3]float32{1, 1, 1}, n.Scaling())
			}
		})
	}
}

func TestFrameImportedEmptyAsset(t *testing.T) {
	s, nodes := importedSession(t, glbtest.Empty())
	require.Len(t, nodes, 1)

	result := NewFramer().Frame(s, nodes)
	assert.False(t, result.Framed)
	assert.Equal(t, float32(InitialRadius), s.Controller().Radius())
}

func TestRefitUsesSessionNodes(t *testing.T) {
	root := boxNode("box", [3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	s := cameraSession([]scene.Node{root})

	result := NewFramer().Refit(s)
	require.True(t, result.Framed)
	assert.InDelta(t, s.Framing().FramingDistance(result.Bounds), s.Controller().Radius(), 1e-4)
	assert.Less(t, s.Controller().Radius(), float32(InitialRadius))
}
