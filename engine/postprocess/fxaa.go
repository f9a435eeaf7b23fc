package postprocess

import (
	"image"

	"github.com/chewxy/math32"
)

const (
	fxaaEdgeThresholdMin = 0.0312
	fxaaEdgeThreshold    = 0.125
	fxaaSubpixQuality    = 0.75
)

// fxaaImpl is a luminance-driven edge smoothing pass in the spirit of FXAA 3.11 (console quality).
type fxaaImpl struct {
	name string
}

var _ PostProcess = &fxaaImpl{}

// NewFXAA creates a fast approximate anti-aliasing pass.
//
// Parameters:
//   - name: the effect identifier
//
// Returns:
//   - PostProcess: the FXAA effect
func NewFXAA(name string) PostProcess {
	if name == "" {
		name = "fxaa"
	}
	return &fxaaImpl{name: name}
}

func (f *fxaaImpl) Name() string {
	return f.name
}

func (f *fxaaImpl) Apply(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(b)
	copy(out.Pix, src.Pix)
	if w < 3 || h < 3 {
		return out
	}

	luma := make([]float32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			luma[y*w+x] = lumaOf(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
		}
	}
	at := func(x, y int) float32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return luma[y*w+x]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lm := at(x, y)
			ln, ls, le, lw := at(x, y-1), at(x, y+1), at(x+1, y), at(x-1, y)
			lMin := min(lm, ln, ls, le, lw)
			lMax := max(lm, ln, ls, le, lw)
			contrast := lMax - lMin
			if contrast < max(fxaaEdgeThresholdMin, lMax*fxaaEdgeThreshold) {
				continue
			}

			lnw, lne, lsw, lse := at(x-1, y-1), at(x+1, y-1), at(x-1, y+1), at(x+1, y+1)
			horizontal := math32.Abs(ln+ls-2*lm)*2 + math32.Abs(lne+lse-2*le) + math32.Abs(lnw+lsw-2*lw)
			vertical := math32.Abs(le+lw-2*lm)*2 + math32.Abs(lne+lnw-2*ln) + math32.Abs(lse+lsw-2*ls)
			isHorizontal := horizontal >= vertical

			// pick the neighbor across the edge with the steeper gradient
			var ox, oy int
			if isHorizontal {
				if math32.Abs(ln-lm) >= math32.Abs(ls-lm) {
					oy = -1
				} else {
					oy = 1
				}
			} else {
				if math32.Abs(lw-lm) >= math32.Abs(le-lm) {
					ox = -1
				} else {
					ox = 1
				}
			}

			avg := (2*(ln+ls+le+lw) + lnw + lne + lsw + lse) / 12
			subpix := min(math32.Abs(avg-lm)/contrast, 1)
			subpix = (-2*subpix + 3) * subpix * subpix
			blend := subpix * subpix * fxaaSubpixQuality * 0.5
			if blend <= 0 {
				continue
			}

			di := out.PixOffset(b.Min.X+x, b.Min.Y+y)
			si := src.PixOffset(b.Min.X+clampInt(x+ox, w), b.Min.Y+clampInt(y+oy, h))
			for c := 0; c < 4; c++ {
				a := float32(src.Pix[di+c])
				n := float32(src.Pix[si+c])
				out.Pix[di+c] = uint8(a + (n-a)*blend + 0.5)
			}
		}
	}
	return out
}

func lumaOf(r, g, b uint8) float32 {
	return (0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)) / 255
}

func clampInt(v, n int) int {
	return min(max(v, 0), n-1)
}
