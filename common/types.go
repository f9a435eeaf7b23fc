// package common contains plain data types and math helpers shared across the engine. They are not
// interface-wrapped structs, just plain structs that express commonly used data-types.
package common

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNilTexture is returned when decoding a nil texture.
	ErrNilTexture = errors.New("texture is nil")
	// ErrEmptyTexture is returned when a texture carries no image bytes.
	ErrEmptyTexture = errors.New("texture has no data")
)

// SamplerStagingData holds the sampler configuration declared by a model file for one texture.
// The rasterizer honors the U/V address modes and the magnification filter.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
}

// DefaultSampler returns the glTF default sampler: repeat wrapping with linear filtering.
func DefaultSampler() *SamplerStagingData {
	return &SamplerStagingData{
		AddressModeU: wgpu.AddressModeRepeat,
		AddressModeV: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	}
}

// ImportedMaterial represents material properties from an imported model file.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse color (RGBA).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// Emissive is the emitted light color added after lighting.
	Emissive [3]float32

	// AlphaMode is one of OPAQUE, MASK or BLEND.
	AlphaMode string

	// AlphaCutoff is the MASK threshold.
	AlphaCutoff float32

	// DoubleSided disables back-face culling for primitives using this material.
	DoubleSided bool

	// BaseColorTexture holds the embedded base color image, if any.
	BaseColorTexture *ImportedTexture
}

// DefaultMaterial returns the material glTF assigns to primitives without one.
func DefaultMaterial() *ImportedMaterial {
	return &ImportedMaterial{
		Name:        "default",
		BaseColor:   [4]float32{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		AlphaMode:   "OPAQUE",
		AlphaCutoff: 0.5,
	}
}

// ImportedTexture represents embedded image data extracted from a model file.
type ImportedTexture struct {
	// Name is an identifier for this texture.
	Name string

	// Data contains the encoded image bytes (PNG, JPEG or WebP).
	Data []byte

	// MimeType indicates the declared image format. Sniffed from Data when empty.
	MimeType string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int

	// Sampler holds the sampling parameters declared for the texture.
	Sampler *SamplerStagingData
}

// Decode decodes the embedded image into an RGBA image and records its dimensions.
// Supports PNG, JPEG and WebP.
//
// Returns:
//   - *image.RGBA: the decoded pixels
//   - error: error if the texture is empty or decoding fails
func (t *ImportedTexture) Decode() (*image.RGBA, error) {
	if t == nil {
		return nil, ErrNilTexture
	}
	if len(t.Data) == 0 {
		return nil, fmt.Errorf("texture %q: %w", t.Name, ErrEmptyTexture)
	}
	if t.MimeType == "" {
		if kind, err := filetype.Match(t.Data); err == nil && kind != filetype.Unknown {
			t.MimeType = kind.MIME.Value
		}
	}

	img, _, err := image.Decode(bytes.NewReader(t.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %q (%s): %w", t.Name, t.MimeType, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return rgba, nil
}
