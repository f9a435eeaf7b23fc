package model

import (
	"github.com/Carmen-Shannon/oxy-shot/common"
)

// ImportedModel represents a 3D model loaded from a GLB container.
// This is the format the loader produces and the engine turns into scene nodes.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Meshes contains one entry per triangle primitive in the file.
	Meshes []ImportedMesh

	// Materials are the materials referenced by ImportedMesh.MaterialIndex.
	Materials []*common.ImportedMaterial

	// Nodes is the flattened node hierarchy of the default scene.
	Nodes []ImportedNode

	// RootNodes are indices into Nodes for the nodes without a parent.
	RootNodes []int
}

// ImportedNode is one node of the transform hierarchy.
type ImportedNode struct {
	// Name is the node identifier (may be empty).
	Name string

	// Primitives are indices into ImportedModel.Meshes drawn by this node.
	Primitives []int

	// Translation is the local position offset.
	Translation [3]float32

	// Rotation is the local orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the local scale factor along each axis.
	Scale [3]float32

	// Matrix is the explicit local matrix when the file declares one instead of TRS.
	Matrix *[16]float32

	// Children are indices into ImportedModel.Nodes.
	Children []int
}

// ImportedMesh represents a single triangle primitive within an imported model.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Positions are the vertex positions in mesh space.
	Positions [][3]float32

	// Normals are per-vertex normals. Generated from geometry when the file omits them.
	Normals [][3]float32

	// TexCoords are the TEXCOORD_0 coordinates (nil when absent).
	TexCoords [][2]float32

	// Colors are the COLOR_0 vertex colors (nil when absent).
	Colors [][4]float32

	// Indices are the triangle indices.
	Indices []uint32

	// MaterialIndex references ImportedModel.Materials, -1 for the default material.
	MaterialIndex int

	// BoundingMin is the minimum corner of the axis-aligned bounding box.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box.
	BoundingMax [3]float32
}

// Bounds returns the mesh-space bounding box.
func (m *ImportedMesh) Bounds() common.BoundingBox {
	if len(m.Positions) == 0 {
		return common.BoundingBox{}
	}
	return common.NewBoundingBox(m.BoundingMin, m.BoundingMax)
}

// TriangleCount returns the number of complete triangles in the index list.
func (m *ImportedMesh) TriangleCount() int {
	return len(m.Indices) / 3
}
