package common

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrInvalidHexColor is returned when a color string is not #rgb or #rrggbb.
var ErrInvalidHexColor = errors.New("invalid hex color")

// Color is a linear RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// ParseHexColor parses "#rrggbb" or "#rgb" (the leading '#' is optional) into an opaque Color.
//
// Parameters:
//   - hex: the color string
//
// Returns:
//   - Color: the parsed color with A = 1
//   - error: ErrInvalidHexColor if the string is malformed
func ParseHexColor(hex string) (Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHexColor, hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidHexColor, hex)
	}
	return Color{
		R: float32((v>>16)&0xff) / 255,
		G: float32((v>>8)&0xff) / 255,
		B: float32(v&0xff) / 255,
		A: 1,
	}, nil
}

// WithAlpha returns a copy of c with its alpha replaced, clamped to [0, 1].
func (c Color) WithAlpha(a float32) Color {
	c.A = Clamp(a, 0, 1)
	return c
}

// Hex formats the RGB components as "#rrggbb".
func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

// NRGBA converts the color to a non-premultiplied 8-bit color.
func (c Color) NRGBA() color.NRGBA {
	to8 := func(v float32) uint8 { return uint8(Clamp(v, 0, 1)*255 + 0.5) }
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}
}

// Mul multiplies two colors component-wise.
func (c Color) Mul(o Color) Color {
	return Color{R: c.R * o.R, G: c.G * o.G, B: c.B * o.B, A: c.A * o.A}
}

// Scale multiplies the RGB components by s, leaving alpha untouched.
func (c Color) Scale(s float32) Color {
	return Color{R: c.R * s, G: c.G * s, B: c.B * s, A: c.A}
}

// Add sums the RGB components, keeping the alpha of c.
func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A}
}

// Lerp interpolates between c and o by t.
func (c Color) Lerp(o Color, t float32) Color {
	return Color{
		R: c.R + (o.R-c.R)*t,
		G: c.G + (o.G-c.G)*t,
		B: c.B + (o.B-c.B)*t,
		A: c.A + (o.A-c.A)*t,
	}
}

// ColorFromArray converts an RGBA array (as stored in glTF factors) to a Color.
func ColorFromArray(v [4]float32) Color {
	return Color{R: v[0], G: v[1], B: v[2], A: v[3]}
}
