// Package glbtest builds small binary glTF assets in memory for tests.
package glbtest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
)

const (
	glbMagic     = 0x46546C67
	chunkJSON    = 0x4E4F534A
	chunkBIN     = 0x004E4942
	floatType    = 5126
	ushortType   = 5123
	arrayTarget  = 34962
	elemTarget   = 34963
	vertsPerFace = 4
)

// builder collects the asset description before encoding.
type builder struct {
	min, max    [3]float32
	sceneName   string
	nodeName    string
	translation *[3]float32
	scale       *[3]float32
	texture     []byte
	textureMime string
	version     string
	glbVersion  uint32
	noMesh      bool
	baseColor   *[4]float32
}

// Option configures Build.
type Option func(*builder)

// WithBox sets the local-space extent of the box mesh.
func WithBox(min, max [3]float32) Option {
	return func(b *builder) {
		b.min, b.max = min, max
	}
}

// WithSceneName sets the glTF scene name, which importers use as the model name.
func WithSceneName(name string) Option {
	return func(b *builder) {
		b.sceneName = name
	}
}

// WithNodeName sets the mesh node name.
func WithNodeName(name string) Option {
	return func(b *builder) {
		b.nodeName = name
	}
}

// WithTranslation offsets the mesh node.
func WithTranslation(t [3]float32) Option {
	return func(b *builder) {
		b.translation = &t
	}
}

// WithScale scales the mesh node.
func WithScale(s [3]float32) Option {
	return func(b *builder) {
		b.scale = &s
	}
}

// WithBaseColor sets the material base color factor.
func WithBaseColor(c [4]float32) Option {
	return func(b *builder) {
		b.baseColor = &c
	}
}

// WithTexture embeds encoded image bytes as the base color texture.
func WithTexture(data []byte, mimeType string) Option {
	return func(b *builder) {
		b.texture = data
		b.textureMime = mimeType
	}
}

// WithAssetVersion overrides asset.version in the JSON chunk.
func WithAssetVersion(v string) Option {
	return func(b *builder) {
		b.version = v
	}
}

// WithContainerVersion overrides the GLB header version.
func WithContainerVersion(v uint32) Option {
	return func(b *builder) {
		b.glbVersion = v
	}
}

// WithoutMesh produces a scene with a single empty node.
func WithoutMesh() Option {
	return func(b *builder) {
		b.noMesh = true
	}
}

// Build encodes a GLB holding one box mesh node (unless WithoutMesh) with a single material.
func Build(options ...Option) []byte {
	b := &builder{
		min:        [3]float32{-0.5, -0.5, -0.5},
		max:        [3]float32{0.5, 0.5, 0.5},
		sceneName:  "fixture",
		nodeName:   "box",
		version:    "2.0",
		glbVersion: 2,
	}
	for _, option := range options {
		option(b)
	}
	return b.encode()
}

// Cube returns a GLB with a cube of the given edge length centered on the origin.
func Cube(size float32) []byte {
	h := size / 2
	return Build(WithBox([3]float32{-h, -h, -h}, [3]float32{h, h, h}))
}

// Box returns a GLB with a box spanning min to max.
func Box(min, max [3]float32) []byte {
	return Build(WithBox(min, max))
}

// TexturedCube returns a cube whose material samples a 2x2 checker PNG.
func TexturedCube(size float32) []byte {
	h := size / 2
	return Build(WithBox([3]float32{-h, -h, -h}, [3]float32{h, h, h}), WithTexture(CheckerPNG(2), "image/png"))
}

// Empty returns a valid GLB whose scene contains a node without geometry.
func Empty() []byte {
	return Build(WithoutMesh())
}

// Malformed returns bytes with GLB magic and a truncated body.
func Malformed() []byte {
	return []byte{'g', 'l', 'T', 'F', 2, 0, 0, 0, 0xff, 0xff, 0, 0, 1, 2, 3}
}

// NotGLB returns bytes that are not a binary glTF container.
func NotGLB() []byte {
	return []byte(`{"asset":{"version":"2.0"}}`)
}

// CheckerPNG encodes an n x n black and white checker image.
func CheckerPNG(n int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			c := color.RGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// face axes: normal n and tangents u, v with u x v = n so each quad winds counter-clockwise from outside.
var faces = [6][3][3]float32{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
}

func (b *builder) geometry() (positions, normals [][3]float32, uvs [][2]float32, indices []uint16) {
	var center, half [3]float32
	for i := 0; i < 3; i++ {
		center[i] = (b.min[i] + b.max[i]) / 2
		half[i] = (b.max[i] - b.min[i]) / 2
	}
	corners := [vertsPerFace][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for f, axes := range faces {
		n, u, v := axes[0], axes[1], axes[2]
		for _, c := range corners {
			var p [3]float32
			for i := 0; i < 3; i++ {
				p[i] = center[i] + (n[i]+c[0]*u[i]+c[1]*v[i])*half[i]
			}
			positions = append(positions, p)
			normals = append(normals, n)
			uvs = append(uvs, [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2})
		}
		base := uint16(f * vertsPerFace)
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return positions, normals, uvs, indices
}

func (b *builder) encode() []byte {
	doc := map[string]any{
		"asset": map[string]any{"version": b.version, "generator": "glbtest"},
		"scene": 0,
		"scenes": []any{
			map[string]any{"name": b.sceneName, "nodes": []int{0}},
		},
	}
	node := map[string]any{"name": b.nodeName}
	if b.translation != nil {
		node["translation"] = b.translation[:]
	}
	if b.scale != nil {
		node["scale"] = b.scale[:]
	}

	var bin bytes.Buffer
	if !b.noMesh {
		node["mesh"] = 0
		positions, normals, uvs, indices := b.geometry()

		view := func(data any, target int) map[string]any {
			offset := bin.Len()
			_ = binary.Write(&bin, binary.LittleEndian, data)
			length := bin.Len() - offset
			for bin.Len()%4 != 0 {
				bin.WriteByte(0)
			}
			v := map[string]any{"buffer": 0, "byteOffset": offset, "byteLength": length}
			if target != 0 {
				v["target"] = target
			}
			return v
		}
		views := []any{
			view(positions, arrayTarget),
			view(normals, arrayTarget),
			view(uvs, arrayTarget),
			view(indices, elemTarget),
		}
		accessors := []any{
			map[string]any{"bufferView": 0, "componentType": floatType, "count": len(positions), "type": "VEC3",
				"min": b.min[:], "max": b.max[:]},
			map[string]any{"bufferView": 1, "componentType": floatType, "count": len(normals), "type": "VEC3"},
			map[string]any{"bufferView": 2, "componentType": floatType, "count": len(uvs), "type": "VEC2"},
			map[string]any{"bufferView": 3, "componentType": ushortType, "count": len(indices), "type": "SCALAR"},
		}

		pbr := map[string]any{"metallicFactor": 0, "roughnessFactor": 1}
		if b.baseColor != nil {
			pbr["baseColorFactor"] = b.baseColor[:]
		}
		if b.texture != nil {
			views = append(views, view(b.texture, 0))
			doc["images"] = []any{map[string]any{"name": "checker", "bufferView": len(views) - 1, "mimeType": b.textureMime}}
			doc["samplers"] = []any{map[string]any{"magFilter": 9728, "minFilter": 9728, "wrapS": 33071, "wrapT": 33071}}
			doc["textures"] = []any{map[string]any{"source": 0, "sampler": 0}}
			pbr["baseColorTexture"] = map[string]any{"index": 0}
		}

		doc["bufferViews"] = views
		doc["accessors"] = accessors
		doc["buffers"] = []any{map[string]any{"byteLength": bin.Len()}}
		doc["materials"] = []any{map[string]any{"name": "surface", "pbrMetallicRoughness": pbr}}
		doc["meshes"] = []any{map[string]any{
			"name": b.nodeName,
			"primitives": []any{map[string]any{
				"attributes": map[string]int{"POSITION": 0, "NORMAL": 1, "TEXCOORD_0": 2},
				"indices":    3,
				"material":   0,
			}},
		}}
	}
	doc["nodes"] = []any{node}

	jsonData, _ := json.Marshal(doc)
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}

	total := 12 + 8 + len(jsonData)
	if bin.Len() > 0 {
		total += 8 + bin.Len()
	}

	var out bytes.Buffer
	_ = binary.Write(&out, binary.LittleEndian, [3]uint32{glbMagic, b.glbVersion, uint32(total)})
	_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(jsonData)), chunkJSON})
	out.Write(jsonData)
	if bin.Len() > 0 {
		_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(bin.Len()), chunkBIN})
		out.Write(bin.Bytes())
	}
	return out.Bytes()
}

// MaxDimension returns the largest extent of a box, handy for asserting framing scale.
func MaxDimension(min, max [3]float32) float32 {
	var m float64
	for i := 0; i < 3; i++ {
		m = math.Max(m, float64(max[i]-min[i]))
	}
	return float32(m)
}
