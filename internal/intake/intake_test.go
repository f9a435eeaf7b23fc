package intake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccept(t *testing.T) {
	tests := []struct {
		name string
		file File
		want bool
	}{
		{name: "glb extension", file: File{Name: "chair.glb"}, want: true},
		{name: "upper case extension", file: File{Name: "CHAIR.GLB", MediaType: "application/octet-stream"}, want: true},
		{name: "declared media type", file: File{Name: "upload", MediaType: "model/gltf-binary"}, want: true},
		{name: "media type with parameters", file: File{Name: "upload", MediaType: "Model/GLTF-Binary; charset=binary"}, want: true},
		{name: "gltf json", file: File{Name: "chair.gltf", MediaType: "model/gltf+json"}, want: false},
		{name: "image", file: File{Name: "photo.png", MediaType: "image/png"}, want: false},
		{name: "extension in middle", file: File{Name: "chair.glb.txt"}, want: false},
		{name: "no name", file: File{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Accept(tt.file))
		})
	}
}

func TestTrimExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "crate.glb", want: "crate"},
		{name: "Crate.GLB", want: "Crate"},
		{name: "my.model.glb", want: "my.model"},
		{name: "scene.gltf", want: "scene.gltf"},
		{name: ".glb", want: ""},
		{name: "glb", want: "glb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrimExtension(tt.name))
		})
	}
}

func TestFilterKeepsMatchingSubsetInOrder(t *testing.T) {
	files := []File{
		{Name: "a.glb"},
		{Name: "notes.txt", MediaType: "text/plain"},
		{Name: "b", MediaType: MediaTypeGLB},
		{Name: "c.obj"},
		{Name: "d.GLB"},
	}
	got := Filter(files)
	require.Len(t, got, 3)
	assert.Equal(t, "a.glb", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, "d.GLB", got[2].Name)

	assert.Empty(t, Filter(nil))
	assert.Empty(t, Filter([]File{{Name: "x.fbx"}}))
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "glb", data: glbtest.Cube(1), want: MediaTypeGLB},
		{name: "png", data: glbtest.CheckerPNG(2), want: "image/png"},
		{name: "json", data: glbtest.NotGLB(), want: "text/plain; charset=utf-8"},
		{name: "empty", data: nil, want: "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectMediaType(tt.data))
		})
	}
}

func TestResolveMediaType(t *testing.T) {
	assert.Equal(t, MediaTypeGLB, ResolveMediaType("application/octet-stream", glbtest.Cube(1)))
	assert.Equal(t, MediaTypeGLB, ResolveMediaType("", glbtest.Cube(1)))
	assert.Equal(t, "image/jpeg", ResolveMediaType("image/jpeg", glbtest.Cube(1)))
}

func TestReadPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.glb"), glbtest.Cube(1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.glb"), glbtest.Cube(2), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# models"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.glb"), 0o755))

	single := filepath.Join(t.TempDir(), "single.bin")
	require.NoError(t, os.WriteFile(single, glbtest.Cube(1), 0o644))

	files, err := ReadPaths(dir, single)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "a.glb", files[0].Name)
	assert.Equal(t, "b.glb", files[1].Name)
	assert.Equal(t, "single.bin", files[2].Name)
	assert.Equal(t, MediaTypeGLB, files[2].MediaType)
	assert.True(t, Accept(files[2]))

	_, err = ReadPaths(filepath.Join(dir, "missing.glb"))
	assert.Error(t, err)
}

func TestReadFileRejectsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.glb")
	require.NoError(t, os.WriteFile(p, nil, 0o644))

	_, err := ReadFile(p)
	assert.ErrorIs(t, err, ErrEmptyFile)
}
