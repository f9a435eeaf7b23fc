package scene

import (
	"image"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	environmentWidth  = 64
	environmentHeight = 32
)

// Environment is the image-based ambient lighting of a scene, stored as an
// equirectangular sky/ground gradient texture.
type Environment struct {
	texture   *Texture
	intensity float32
}

// EnvironmentOptions configures CreateDefaultEnvironment.
type EnvironmentOptions struct {
	SkyColor     common.Color
	HorizonColor common.Color
	GroundColor  common.Color

	// Intensity scales the ambient contribution.
	Intensity float32
}

// DefaultEnvironmentOptions returns a neutral studio gradient.
func DefaultEnvironmentOptions() EnvironmentOptions {
	return EnvironmentOptions{
		SkyColor:     common.Color{R: 0.85, G: 0.88, B: 0.95, A: 1},
		HorizonColor: common.Color{R: 0.75, G: 0.75, B: 0.75, A: 1},
		GroundColor:  common.Color{R: 0.35, G: 0.33, B: 0.3, A: 1},
		Intensity:    0.3,
	}
}

// Texture returns the environment texture.
func (e *Environment) Texture() *Texture {
	return e.texture
}

// Intensity returns the ambient scale.
func (e *Environment) Intensity() float32 {
	return e.intensity
}

// Ambient returns the environment light arriving along a world-space normal.
// Returns zero until the environment texture is ready.
//
// Parameters:
//   - normal: unit surface normal
//
// Returns:
//   - [3]float32: RGB ambient energy
func (e *Environment) Ambient(normal [3]float32) [3]float32 {
	if e == nil || e.texture.State() != TextureStateReady {
		return [3]float32{}
	}
	u := 0.5 + math32.Atan2(normal[2], normal[0])/(2*math32.Pi)
	v := math32.Acos(common.Clamp(normal[1], -1, 1)) / math32.Pi
	c := e.texture.Sample(u, v)
	return [3]float32{c[0] * e.intensity, c[1] * e.intensity, c[2] * e.intensity}
}

var generateEnvironment = generateEnvironmentImage

// generateEnvironmentImage renders the gradient: sky at the top row, horizon in the middle, ground at the bottom.
func generateEnvironmentImage(opts EnvironmentOptions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, environmentWidth, environmentHeight))
	for y := 0; y < environmentHeight; y++ {
		t := (float32(y) + 0.5) / environmentHeight
		var c common.Color
		if t < 0.5 {
			c = opts.SkyColor.Lerp(opts.HorizonColor, t*2)
		} else {
			c = opts.HorizonColor.Lerp(opts.GroundColor, (t-0.5)*2)
		}
		nrgba := c.WithAlpha(1).NRGBA()
		for x := 0; x < environmentWidth; x++ {
			img.Set(x, y, nrgba)
		}
	}
	return img
}

// environmentSampler wraps horizontally and clamps vertically.
func environmentSampler() *common.SamplerStagingData {
	s := common.DefaultSampler()
	s.AddressModeU = wgpu.AddressModeRepeat
	s.AddressModeV = wgpu.AddressModeClampToEdge
	return s
}
