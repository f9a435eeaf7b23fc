package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/model"
)

// errNonTriangleMode marks primitives (points, lines) that cannot be filled and are skipped.
var errNonTriangleMode = errors.New("primitive is not a triangle topology")

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor defines the interface for extracting mesh data from a parsed glTF document.
// It converts raw glTF accessor data into ImportedMesh structs.
type gltfMeshExtractor interface {
	// ExtractAllMeshes extracts every triangle primitive from the document.
	// The second return value maps each glTF mesh index to the flattened primitive indices it produced.
	//
	// Returns:
	//   - []model.ImportedMesh: all primitives, flattened
	//   - [][]int: primitive indices per glTF mesh
	//   - error: error if any accessor is malformed
	ExtractAllMeshes() ([]model.ImportedMesh, [][]int, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]model.ImportedMesh, [][]int, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, errors.New("no document loaded")
	}

	var all []model.ImportedMesh
	groups := make([][]int, len(doc.Meshes))
	for meshIndex := range doc.Meshes {
		mesh := &doc.Meshes[meshIndex]
		for primIndex := range mesh.Primitives {
			imported, err := e.extractPrimitive(&mesh.Primitives[primIndex], mesh.Name, primIndex)
			if errors.Is(err, errNonTriangleMode) {
				continue
			}
			if err != nil {
				return nil, nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIndex, err)
			}
			groups[meshIndex] = append(groups[meshIndex], len(all))
			all = append(all, *imported)
		}
	}

	return all, groups, nil
}

// extractPrimitive extracts a single primitive as an ImportedMesh with a triangle-list index buffer.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, meshName string, primIndex int) (*model.ImportedMesh, error) {
	mode := gltfPrimitiveModeTriangles
	if prim.Mode != nil {
		mode = *prim.Mode
	}
	switch mode {
	case gltfPrimitiveModeTriangles, gltfPrimitiveModeTriangleStrip, gltfPrimitiveModeTriangleFan:
	default:
		return nil, fmt.Errorf("%w: mode %d", errNonTriangleMode, mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	positions, err := e.parser.ReadVec3Accessor(posAccessor)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	vertexCount := len(positions)

	mesh := &model.ImportedMesh{
		Name:          meshName,
		Positions:     positions,
		MaterialIndex: -1,
	}
	if mesh.Name == "" {
		mesh.Name = fmt.Sprintf("mesh_%d", primIndex)
	}
	if primIndex > 0 {
		mesh.Name = fmt.Sprintf("%s_prim%d", mesh.Name, primIndex)
	}
	if prim.Material != nil {
		mesh.MaterialIndex = *prim.Material
	}

	if acc, ok := prim.Attributes["NORMAL"]; ok {
		if mesh.Normals, err = e.parser.ReadVec3Accessor(acc); err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		if len(mesh.Normals) != vertexCount {
			mesh.Normals = nil
		}
	}

	if acc, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if mesh.TexCoords, err = e.parser.ReadVec2Accessor(acc); err != nil {
			return nil, fmt.Errorf("failed to read texcoords: %w", err)
		}
		if len(mesh.TexCoords) != vertexCount {
			mesh.TexCoords = nil
		}
	}

	if acc, ok := prim.Attributes["COLOR_0"]; ok {
		if mesh.Colors, err = e.readColorAccessor(acc); err != nil {
			return nil, fmt.Errorf("failed to read colors: %w", err)
		}
		if len(mesh.Colors) != vertexCount {
			mesh.Colors = nil
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = e.parser.ReadIndicesAccessor(*prim.Indices); err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range indices {
			if int(idx) >= vertexCount {
				return nil, fmt.Errorf("index %d exceeds vertex count %d", idx, vertexCount)
			}
		}
	} else {
		indices = make([]uint32, vertexCount)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	mesh.Indices = triangulate(indices, mode)

	if mesh.Normals == nil {
		mesh.Normals = generateNormals(positions, mesh.Indices)
	}

	mesh.BoundingMin, mesh.BoundingMax = gltfCalculateBoundingBox(positions)
	return mesh, nil
}

// readColorAccessor reads COLOR_0, which may be VEC3 or VEC4 in float or normalized integers.
func (e *gltfMeshExtractorImpl) readColorAccessor(accessorIndex int) ([][4]float32, error) {
	doc := e.parser.Document()
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}

	if doc.Accessors[accessorIndex].Type == gltfAccessorTypeVec3 {
		rgb, err := e.parser.ReadVec3Accessor(accessorIndex)
		if err != nil {
			return nil, err
		}
		colors := make([][4]float32, len(rgb))
		for i, c := range rgb {
			colors[i] = [4]float32{c[0], c[1], c[2], 1}
		}
		return colors, nil
	}

	return e.parser.ReadVec4Accessor(accessorIndex)
}

// triangulate converts strip and fan index orders into a triangle list and drops any
// trailing partial triangle.
func triangulate(indices []uint32, mode int) []uint32 {
	switch mode {
	case gltfPrimitiveModeTriangleStrip:
		var out []uint32
		for i := 2; i < len(indices); i++ {
			if i%2 == 0 {
				out = append(out, indices[i-2], indices[i-1], indices[i])
			} else {
				out = append(out, indices[i-1], indices[i-2], indices[i])
			}
		}
		return out
	case gltfPrimitiveModeTriangleFan:
		var out []uint32
		for i := 2; i < len(indices); i++ {
			out = append(out, indices[0], indices[i-1], indices[i])
		}
		return out
	default:
		return indices[:len(indices)-len(indices)%3]
	}
}

// gltfCalculateBoundingBox computes the axis-aligned bounds of a position list.
func gltfCalculateBoundingBox(positions [][3]float32) ([3]float32, [3]float32) {
	box := common.BoundingBox{}
	for _, p := range positions {
		box = box.ExtendPoint(p)
	}
	return box.Min, box.Max
}

// generateNormals accumulates area-weighted face normals per vertex.
func generateNormals(positions [][3]float32, indices []uint32) [][3]float32 {
	normals := make([][3]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		face := common.Cross(common.Sub(positions[b], positions[a]), common.Sub(positions[c], positions[a]))
		for _, idx := range [3]uint32{a, b, c} {
			normals[idx] = common.Add(normals[idx], face)
		}
	}
	for i := range normals {
		n := common.Normalize(normals[i])
		if n == ([3]float32{}) {
			n = [3]float32{0, 1, 0}
		}
		normals[i] = n
	}
	return normals
}
