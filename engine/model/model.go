package model

// model is the implementation of the Model interface.
type model struct {
	name     string
	imported *ImportedModel
	stats    Stats
}

// Stats summarizes the geometry and material content of an imported asset.
type Stats struct {
	Nodes     int `json:"nodes"`
	Meshes    int `json:"meshes"`
	Vertices  int `json:"vertices"`
	Triangles int `json:"triangles"`
	Materials int `json:"materials"`
	Textures  int `json:"textures"`
}

// Model defines the interface for an imported 3D asset.
// A Model wraps the CPU-side ImportedModel produced by the loader and exposes
// a summary used for reporting.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Imported retrieves the raw importer output.
	//
	// Returns:
	//   - *ImportedModel: meshes, materials and node hierarchy
	Imported() *ImportedModel

	// Stats retrieves the content summary computed at construction.
	//
	// Returns:
	//   - Stats: node, mesh, vertex, triangle, material and texture counts
	Stats() Stats
}

var _ Model = &model{}

// NewModel wraps an ImportedModel. The name defaults to the imported name.
//
// Parameters:
//   - imported: the importer output (must not be nil)
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new Model instance
func NewModel(imported *ImportedModel, options ...ModelBuilderOption) Model {
	m := &model{
		name:     imported.Name,
		imported: imported,
		stats:    computeStats(imported),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Imported() *ImportedModel {
	return m.imported
}

func (m *model) Stats() Stats {
	return m.stats
}

func computeStats(imported *ImportedModel) Stats {
	s := Stats{
		Nodes:     len(imported.Nodes),
		Meshes:    len(imported.Meshes),
		Materials: len(imported.Materials),
	}
	for i := range imported.Meshes {
		s.Vertices += len(imported.Meshes[i].Positions)
		s.Triangles += imported.Meshes[i].TriangleCount()
	}
	for _, mat := range imported.Materials {
		if mat != nil && mat.BaseColorTexture != nil {
			s.Textures++
		}
	}
	return s
}
