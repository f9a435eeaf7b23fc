package scene

import (
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureState is the decode state of a texture.
type TextureState int

const (
	TextureStatePending TextureState = iota
	TextureStateReady
	TextureStateFailed
)

// Texture is a decoded RGBA image plus its sampler description.
// Textures are created pending and complete asynchronously.
type Texture struct {
	mu sync.RWMutex

	name    string
	sampler common.SamplerStagingData

	state TextureState
	img   *image.RGBA
	err   error
}

// newTexture creates a pending texture.
func newTexture(name string, sampler *common.SamplerStagingData) *Texture {
	t := &Texture{name: name, sampler: *common.DefaultSampler()}
	if sampler != nil {
		t.sampler = *sampler
	}
	return t
}

// NewTextureFromImage creates a ready texture from an already decoded image.
//
// Parameters:
//   - name: the texture name
//   - img: the decoded pixels
//   - sampler: sampler description, nil for linear/repeat
//
// Returns:
//   - *Texture: the ready texture
func NewTextureFromImage(name string, img *image.RGBA, sampler *common.SamplerStagingData) *Texture {
	t := newTexture(name, sampler)
	t.complete(img, nil)
	return t
}

// complete records the decode result.
func (t *Texture) complete(img *image.RGBA, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.img = img
	t.err = err
	if err != nil || img == nil {
		t.state = TextureStateFailed
		return
	}
	t.state = TextureStateReady
}

// Name returns the texture name.
func (t *Texture) Name() string {
	return t.name
}

// State returns the decode state.
func (t *Texture) State() TextureState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// IsReady reports whether decoding has finished. A failed decode counts as finished;
// the renderer falls back to the material color.
func (t *Texture) IsReady() bool {
	return t.State() != TextureStatePending
}

// Image returns the decoded pixels, or nil while pending or after a failure.
func (t *Texture) Image() *image.RGBA {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.img
}

// Err returns the decode error, if any.
func (t *Texture) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Sampler returns the sampler description.
func (t *Texture) Sampler() common.SamplerStagingData {
	return t.sampler
}

// Sample reads the texture at (u, v) using the sampler's address modes and mag filter.
// Returns opaque white when no image is available.
//
// Parameters:
//   - u, v: texture coordinates, (0, 0) at the top-left
//
// Returns:
//   - [4]float32: RGBA in [0, 1]
func (t *Texture) Sample(u, v float32) [4]float32 {
	img := t.Image()
	if img == nil {
		return [4]float32{1, 1, 1, 1}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return [4]float32{1, 1, 1, 1}
	}

	u = applyAddressMode(u, t.sampler.AddressModeU)
	v = applyAddressMode(v, t.sampler.AddressModeV)
	x := u*float32(w) - 0.5
	y := v*float32(h) - 0.5

	if t.sampler.MagFilter == wgpu.FilterModeNearest {
		return texel(img, int(math32.Round(x)), int(math32.Round(y)), t.sampler)
	}

	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)
	c00 := texel(img, ix, iy, t.sampler)
	c10 := texel(img, ix+1, iy, t.sampler)
	c01 := texel(img, ix, iy+1, t.sampler)
	c11 := texel(img, ix+1, iy+1, t.sampler)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}

// applyAddressMode maps a coordinate into [0, 1] according to the wrap mode.
func applyAddressMode(c float32, mode wgpu.AddressMode) float32 {
	switch mode {
	case wgpu.AddressModeClampToEdge:
		return common.Clamp(c, 0, 1)
	case wgpu.AddressModeMirrorRepeat:
		f := math32.Mod(math32.Abs(c), 2)
		if f > 1 {
			f = 2 - f
		}
		return f
	default:
		return c - math32.Floor(c)
	}
}

// texel fetches a pixel, wrapping or clamping integer coordinates that fall outside the image.
func texel(img *image.RGBA, x, y int, s common.SamplerStagingData) [4]float32 {
	b := img.Bounds()
	x = wrapIndex(x, b.Dx(), s.AddressModeU)
	y = wrapIndex(y, b.Dy(), s.AddressModeV)
	i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
	p := img.Pix[i : i+4 : i+4]
	return [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func wrapIndex(i, n int, mode wgpu.AddressMode) int {
	if mode == wgpu.AddressModeRepeat {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return min(max(i, 0), n-1)
}
