package common

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Color
		err   bool
	}{
		{"long form", "#ff8000", Color{R: 1, G: 128.0 / 255, B: 0, A: 1}, false},
		{"short form", "#fff", Color{R: 1, G: 1, B: 1, A: 1}, false},
		{"no hash", "000000", Color{A: 1}, false},
		{"padded", "  #000000 ", Color{A: 1}, false},
		{"name", "red", Color{}, true},
		{"too long", "#ff00ff00", Color{}, true},
		{"not hex", "#gg0000", Color{}, true},
		{"empty", "", Color{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidHexColor)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.R, got.R, 1e-6)
			assert.InDelta(t, tt.want.G, got.G, 1e-6)
			assert.InDelta(t, tt.want.B, got.B, 1e-6)
			assert.Equal(t, tt.want.A, got.A)
		})
	}
}

func TestColorConversions(t *testing.T) {
	c, err := ParseHexColor("#336699")
	require.NoError(t, err)
	assert.Equal(t, "#336699", c.Hex())
	assert.Equal(t, color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}, c.NRGBA())

	assert.Equal(t, float32(0), c.WithAlpha(-1).A)
	assert.Equal(t, float32(1), c.WithAlpha(3).A)
	assert.Equal(t, uint8(128), c.WithAlpha(0.5).NRGBA().A)
}

func TestBoundingBox(t *testing.T) {
	var empty BoundingBox
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, [3]float32{}, empty.Size())
	assert.Equal(t, [3]float32{}, empty.Center())
	id := IdentityMatrix()
	assert.True(t, empty.Transform(id[:]).IsEmpty())

	b := NewBoundingBox([3]float32{2, -1, 4}, [3]float32{-2, 1, 0})
	assert.False(t, b.IsEmpty())
	assert.Equal(t, [3]float32{-2, -1, 0}, b.Min)
	assert.Equal(t, [3]float32{2, 1, 4}, b.Max)
	assert.Equal(t, [3]float32{4, 2, 4}, b.Size())
	assert.Equal(t, [3]float32{0, 0, 2}, b.Center())
	assert.Equal(t, float32(4), b.MaxDimension())
	assert.InDelta(t, 6, b.Diagonal(), 1e-5)

	u := empty.Union(b).Union(BoundingBox{}).Union(NewBoundingBox([3]float32{5, 5, 5}, [3]float32{6, 6, 6}))
	assert.Equal(t, [3]float32{-2, -1, 0}, u.Min)
	assert.Equal(t, [3]float32{6, 6, 6}, u.Max)
}

func TestBoundingBoxTransform(t *testing.T) {
	b := NewBoundingBox([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})

	tests := []struct {
		name     string
		t        [3]float32
		s        [3]float32
		min, max [3]float32
	}{
		{"identity", [3]float32{}, [3]float32{1, 1, 1}, [3]float32{-1, -1, -1}, [3]float32{1, 1, 1}},
		{"translate", [3]float32{10, 0, -3}, [3]float32{1, 1, 1}, [3]float32{9, -1, -4}, [3]float32{11, 1, -2}},
		{"scale", [3]float32{}, [3]float32{2, 3, 4}, [3]float32{-2, -3, -4}, [3]float32{2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := make([]float32, 16)
			ComposeTRS(m, tt.t, [4]float32{0, 0, 0, 1}, tt.s)
			got := b.Transform(m)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.min[i], got.Min[i], 1e-5)
				assert.InDelta(t, tt.max[i], got.Max[i], 1e-5)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5, 0, 10))
	assert.Equal(t, 10, Clamp(50, 0, 10))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}
