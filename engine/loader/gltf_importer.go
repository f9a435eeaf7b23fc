package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-shot/engine/model"
)

var errNodeCycle = errors.New("node hierarchy contains a cycle")

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full GLB import.
// It combines the parser and the extractors to produce a complete ImportedModel.
type gltfImporter interface {
	// ImportBytes parses a GLB container and extracts meshes, materials and the node hierarchy
	// of the default scene.
	//
	// Parameters:
	//   - data: the complete GLB bytes
	//   - fallbackName: used as the model name when the file declares none
	//
	// Returns:
	//   - *model.ImportedModel: the fully populated imported model
	//   - error: error if import fails
	ImportBytes(data []byte, fallbackName string) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) ImportBytes(data []byte, fallbackName string) (*model.ImportedModel, error) {
	parser := newGLTFParser()
	if err := parser.ParseGLB(data); err != nil {
		return nil, fmt.Errorf("failed to parse GLB: %w", err)
	}
	doc := parser.Document()

	meshes, groups, err := newGLTFMeshExtractor(parser).ExtractAllMeshes()
	if err != nil {
		return nil, fmt.Errorf("mesh extraction failed: %w", err)
	}

	materials, err := newGLTFMaterialExtractor(parser).ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}
	for i := range meshes {
		if meshes[i].MaterialIndex >= len(materials) {
			meshes[i].MaterialIndex = -1
		}
	}

	nodes, roots, err := gltfExtractNodes(doc, groups)
	if err != nil {
		return nil, fmt.Errorf("node extraction failed: %w", err)
	}

	return &model.ImportedModel{
		Name:      gltfExtractModelName(doc, fallbackName),
		Meshes:    meshes,
		Materials: materials,
		Nodes:     nodes,
		RootNodes: roots,
	}, nil
}

// gltfExtractNodes converts the document nodes and resolves the root set of the default scene.
// Files without scenes use every parentless node as a root.
func gltfExtractNodes(doc *gltfDocument, meshGroups [][]int) ([]model.ImportedNode, []int, error) {
	nodes := make([]model.ImportedNode, len(doc.Nodes))
	hasParent := make([]bool, len(doc.Nodes))

	for i := range doc.Nodes {
		src := &doc.Nodes[i]
		n := model.ImportedNode{
			Name:     src.Name,
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
			Matrix:   src.Matrix,
		}
		if src.Translation != nil {
			n.Translation = *src.Translation
		}
		if src.Rotation != nil {
			n.Rotation = *src.Rotation
		}
		if src.Scale != nil {
			n.Scale = *src.Scale
		}
		if src.Mesh != nil {
			if *src.Mesh < 0 || *src.Mesh >= len(meshGroups) {
				return nil, nil, fmt.Errorf("node %d references missing mesh %d", i, *src.Mesh)
			}
			n.Primitives = meshGroups[*src.Mesh]
		}
		for _, c := range src.Children {
			if c < 0 || c >= len(doc.Nodes) {
				return nil, nil, fmt.Errorf("node %d references missing child %d", i, c)
			}
			if hasParent[c] {
				return nil, nil, fmt.Errorf("node %d has more than one parent", c)
			}
			hasParent[c] = true
			n.Children = append(n.Children, c)
		}
		nodes[i] = n
	}

	var roots []int
	sceneIndex := 0
	if doc.Scene != nil {
		sceneIndex = *doc.Scene
	}
	if sceneIndex >= 0 && sceneIndex < len(doc.Scenes) {
		for _, r := range doc.Scenes[sceneIndex].Nodes {
			if r < 0 || r >= len(doc.Nodes) {
				return nil, nil, fmt.Errorf("scene %d references missing node %d", sceneIndex, r)
			}
			roots = append(roots, r)
		}
	} else {
		for i := range nodes {
			if !hasParent[i] {
				roots = append(roots, i)
			}
		}
	}

	if err := gltfCheckAcyclic(nodes, roots); err != nil {
		return nil, nil, err
	}
	return nodes, roots, nil
}

// gltfCheckAcyclic walks the hierarchy from the roots and fails on revisits.
func gltfCheckAcyclic(nodes []model.ImportedNode, roots []int) error {
	visited := make([]bool, len(nodes))
	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[i] {
			return errNodeCycle
		}
		visited[i] = true
		stack = append(stack, nodes[i].Children...)
	}
	return nil
}

// gltfExtractModelName prefers the default scene name, then the caller's fallback.
func gltfExtractModelName(doc *gltfDocument, fallbackName string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallbackName != "" {
		return fallbackName
	}
	return "unnamed_model"
}
