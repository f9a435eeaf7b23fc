package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/model"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/google/uuid"
)

// ErrUnknownObjectURL is returned when importing from a URL that was never created or has been revoked.
var ErrUnknownObjectURL = errors.New("unknown object URL")

const (
	objectURLPrefix = "blob:oxy/"

	// RootNodeName names the transform node that parents every imported scene root.
	RootNodeName = "__root__"

	// MediaTypeGLB is the registered media type of binary glTF.
	MediaTypeGLB = "model/gltf-binary"
)

// objectURL is a registered byte source.
type objectURL struct {
	data      []byte
	mediaType string
}

func (e *engine) CreateObjectURL(data []byte, mediaType string) string {
	url := objectURLPrefix + uuid.NewString()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return url
	}
	e.objectURLs[url] = objectURL{data: data, mediaType: mediaType}
	return url
}

func (e *engine) RevokeObjectURL(url string) {
	e.mu.Lock()
	_, ok := e.objectURLs[url]
	delete(e.objectURLs, url)
	e.mu.Unlock()
	if ok {
		e.loader.Release(url)
	}
}

func (e *engine) ObjectURLs() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.objectURLs)
}

func (e *engine) ImportedModel(url string) model.Model {
	imported := e.loader.Get(url)
	if imported == nil {
		return nil
	}
	return model.NewModel(imported)
}

func (e *engine) ImportAsset(ctx context.Context, url string, sc scene.Scene, onProgress func(fraction float64)) ([]scene.Node, error) {
	e.lifecycle.RLock()
	defer e.lifecycle.RUnlock()

	e.mu.RLock()
	obj, ok := e.objectURLs[url]
	disposed := e.disposed
	e.mu.RUnlock()
	if disposed {
		return nil, ErrEngineDisposed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObjectURL, url)
	}
	if sc == nil || sc.Disposed() {
		return nil, scene.ErrSceneDisposed
	}

	// the loader reports 1 when parsing ends; the final 1 is sent once the scene is built
	progress := func(f float64) {
		if onProgress != nil && f < 1 {
			onProgress(f)
		}
	}

	imported, err := e.loader.Load(ctx, url, assetFileName(obj.mediaType), bytes.NewReader(obj.data), int64(len(obj.data)), progress)
	if err != nil {
		return nil, err
	}

	root, err := buildSceneGraph(imported, sc)
	if err != nil {
		return nil, err
	}
	sc.AddNode(root)
	if sc.Disposed() {
		return nil, scene.ErrSceneDisposed
	}

	stats := model.NewModel(imported).Stats()
	e.logger.Debug("asset added to scene", "scene", sc.Name(), "model", imported.Name,
		"nodes", stats.Nodes, "meshes", stats.Meshes, "triangles", stats.Triangles, "textures", stats.Textures)

	if onProgress != nil {
		onProgress(1)
	}
	return []scene.Node{root}, nil
}

// assetFileName gives the loader a file name whose extension matches the declared media type.
func assetFileName(mediaType string) string {
	if strings.EqualFold(mediaType, MediaTypeGLB) {
		return "asset.glb"
	}
	return "asset"
}

// buildSceneGraph converts an imported model into scene nodes under a single root node.
// Nodes drawing several primitives get one child node per primitive.
func buildSceneGraph(imported *model.ImportedModel, sc scene.Scene) (scene.Node, error) {
	textures := make(map[*common.ImportedTexture]*scene.Texture)
	materials := make([]*scene.Material, len(imported.Materials))
	for i, m := range imported.Materials {
		if m == nil {
			continue
		}
		mat := &scene.Material{
			Name:        m.Name,
			BaseColor:   m.BaseColor,
			Emissive:    m.Emissive,
			AlphaMode:   m.AlphaMode,
			AlphaCutoff: m.AlphaCutoff,
			DoubleSided: m.DoubleSided,
		}
		if m.BaseColorTexture != nil {
			tex, ok := textures[m.BaseColorTexture]
			if !ok {
				var err error
				if tex, err = sc.AddTexture(m.BaseColorTexture); err != nil {
					return nil, fmt.Errorf("material %q: %w", m.Name, err)
				}
				textures[m.BaseColorTexture] = tex
			}
			mat.Texture = tex
		}
		materials[i] = mat
	}

	meshes := make([]*scene.Mesh, len(imported.Meshes))
	for i := range imported.Meshes {
		m := &imported.Meshes[i]
		mesh := &scene.Mesh{
			Name:      m.Name,
			Positions: m.Positions,
			Normals:   m.Normals,
			TexCoords: m.TexCoords,
			Colors:    m.Colors,
			Indices:   m.Indices,
			Bounds:    m.Bounds(),
		}
		if m.MaterialIndex >= 0 && m.MaterialIndex < len(materials) {
			mesh.Material = materials[m.MaterialIndex]
		}
		meshes[i] = mesh
	}

	nodes := make([]scene.Node, len(imported.Nodes))
	for i, n := range imported.Nodes {
		var opts []scene.NodeBuilderOption
		if n.Matrix != nil {
			opts = append(opts, scene.WithLocalMatrix(*n.Matrix))
		} else {
			opts = append(opts, scene.WithPosition(n.Translation), scene.WithRotation(n.Rotation), scene.WithScaling(n.Scale))
		}
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		node := scene.NewNode(name, opts...)

		switch len(n.Primitives) {
		case 0:
		case 1:
			node.SetMesh(meshes[n.Primitives[0]])
		default:
			for _, p := range n.Primitives {
				node.AddChild(scene.NewNode(meshes[p].Name, scene.WithMesh(meshes[p])))
			}
		}
		nodes[i] = node
	}
	for i, n := range imported.Nodes {
		for _, c := range n.Children {
			nodes[i].AddChild(nodes[c])
		}
	}

	root := scene.NewNode(RootNodeName)
	for _, r := range imported.RootNodes {
		root.AddChild(nodes[r])
	}
	return root, nil
}
