package scene

import (
	"github.com/Carmen-Shannon/oxy-shot/common"
)

// Mesh is renderable triangle geometry in node-local space.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Colors    [][4]float32

	// Indices is a triangle list.
	Indices []uint32

	Material *Material

	// Bounds is the local-space bounding box of Positions.
	Bounds common.BoundingBox
}

// TriangleCount returns the number of triangles in the index list.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Material describes the surface of a mesh.
type Material struct {
	Name        string
	BaseColor   [4]float32
	Emissive    [3]float32
	AlphaMode   string
	AlphaCutoff float32
	DoubleSided bool

	// Texture is the decoded base color texture, or nil.
	Texture *Texture
}

// DefaultSceneMaterial returns the material used by meshes without one: opaque white.
func DefaultSceneMaterial() *Material {
	return &Material{
		Name:        "default",
		BaseColor:   [4]float32{1, 1, 1, 1},
		AlphaMode:   "OPAQUE",
		AlphaCutoff: 0.5,
	}
}
