package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/stretchr/testify/assert"
)

func TestNewModelStats(t *testing.T) {
	imported := &ImportedModel{
		Name: "scene",
		Meshes: []ImportedMesh{
			{Positions: make([][3]float32, 4), Indices: []uint32{0, 1, 2, 0, 2, 3}},
			{Positions: make([][3]float32, 3), Indices: []uint32{0, 1, 2}},
		},
		Materials: []*common.ImportedMaterial{
			common.DefaultMaterial(),
			{Name: "textured", BaseColorTexture: &common.ImportedTexture{Name: "t"}},
		},
		Nodes: []ImportedNode{{Name: "a"}, {Name: "b"}},
	}

	m := NewModel(imported)
	assert.Equal(t, "scene", m.Name())
	assert.Same(t, imported, m.Imported())
	assert.Equal(t, Stats{Nodes: 2, Meshes: 2, Vertices: 7, Triangles: 3, Materials: 2, Textures: 1}, m.Stats())

	assert.Equal(t, "override", NewModel(imported, WithName("override")).Name())
	assert.Equal(t, "scene", NewModel(imported, WithName("")).Name())
}
