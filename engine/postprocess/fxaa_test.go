package postprocess

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkerEdge(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if x >= w/2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFXAAPreservesBoundsAndFlatRegions(t *testing.T) {
	src := checkerEdge(8, 8)
	out := NewFXAA("").Apply(src)

	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, src.RGBAAt(0, 4), out.RGBAAt(0, 4))
	assert.Equal(t, src.RGBAAt(7, 4), out.RGBAAt(7, 4))
}

func TestFXAADoesNotModifyInput(t *testing.T) {
	src := checkerEdge(8, 8)
	before := append([]uint8(nil), src.Pix...)
	_ = NewFXAA("fxaa").Apply(src)
	assert.Equal(t, before, src.Pix)
}

func TestFXAATinyImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	out := NewFXAA("fxaa").Apply(src)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestChainSkipsNil(t *testing.T) {
	src := checkerEdge(4, 4)
	out := Chain(src, []PostProcess{nil})
	assert.Same(t, src, out)

	assert.Equal(t, "fxaa", NewFXAA("").Name())
}
