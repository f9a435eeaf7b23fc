package pipeline

import (
	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
)

// CanonicalSize is the largest extent of a model after normalization.
const CanonicalSize float32 = 5

// FrameResult describes what the Framer did.
type FrameResult struct {
	// Framed is false when nothing visible was imported and the default pose was kept.
	Framed bool

	// Bounds are the world bounds after normalization.
	Bounds common.BoundingBox

	// Scale is the uniform factor applied to the imported roots.
	Scale float32

	// Center is the geometric center before normalization.
	Center [3]float32

	// Radius is the camera distance after framing.
	Radius float32
}

// Framer recenters and rescales an imported model and fits the camera to it.
type Framer struct {
	canonicalSize float32
}

// NewFramer creates a Framer normalizing models to CanonicalSize.
func NewFramer() *Framer {
	return &Framer{canonicalSize: CanonicalSize}
}

// Frame measures the visible and enabled geometry below nodes, moves its center to the
// origin, scales its largest dimension to the canonical size and frames the camera.
// Nodes are expected to be hierarchy roots. Degenerate geometry (largest dimension 0)
// is recentered but not scaled; no visible geometry leaves the scene and camera untouched.
// The nodes are remembered on the session for Refit.
//
// Parameters:
//   - s: the session whose camera is framed
//   - nodes: the imported roots
//
// Returns:
//   - FrameResult: the normalization applied
func (f *Framer) Frame(s *RenderSession, nodes []scene.Node) FrameResult {
	s.setNodes(nodes)
	box := scene.WorldExtends(nodes, scene.VisibleAndEnabled)
	if len(nodes) == 0 || box.IsEmpty() {
		return FrameResult{}
	}

	size := box.Size()
	center := common.Add(box.Min, common.Scale(size, 0.5))
	scale := float32(1)
	if maxDim := max(size[0], size[1], size[2]); maxDim > 0 {
		scale = f.canonicalSize / maxDim
	}

	for _, n := range nodes {
		if n == nil {
			continue
		}
		n.SetScaling(common.Scale(n.Scaling(), scale))
		n.SetPosition(common.Scale(common.Sub(n.Position(), center), scale))
	}

	result := f.fit(s, nodes)
	result.Scale = scale
	result.Center = center
	return result
}

// Refit recomputes the world bounds of the nodes last passed to Frame, removes the lower
// radius limit and snaps the camera onto the bounds.
//
// Parameters:
//   - s: the session whose camera is framed
//
// Returns:
//   - FrameResult: the bounds and radius, Framed false when nothing is visible
func (f *Framer) Refit(s *RenderSession) FrameResult {
	return f.fit(s, s.Nodes())
}

func (f *Framer) fit(s *RenderSession, nodes []scene.Node) FrameResult {
	box := scene.WorldExtends(nodes, scene.VisibleAndEnabled)
	ctrl := s.Controller()
	if box.IsEmpty() || ctrl == nil {
		return FrameResult{Scale: 1}
	}

	ctrl.ClearLowerRadiusLimit()
	s.Framing().SetFramingTime(0)
	s.Framing().ZoomOnBounds(box)

	return FrameResult{
		Framed: true,
		Bounds: box,
		Scale:  1,
		Radius: ctrl.Radius(),
	}
}
