package common

import (
	"github.com/chewxy/math32"
)

// BoundingBox is an axis-aligned box. The zero value is an empty box that
// absorbs the first point or box it is extended with.
type BoundingBox struct {
	Min [3]float32
	Max [3]float32

	valid bool
}

// NewBoundingBox creates a box from explicit corners. Corners are reordered per axis if needed.
//
// Parameters:
//   - min: the minimum corner
//   - max: the maximum corner
//
// Returns:
//   - BoundingBox: the non-empty box spanning both corners
func NewBoundingBox(min, max [3]float32) BoundingBox {
	b := BoundingBox{}
	b = b.ExtendPoint(min)
	return b.ExtendPoint(max)
}

// IsEmpty reports whether no point has been added to the box.
func (b BoundingBox) IsEmpty() bool {
	return !b.valid
}

// ExtendPoint returns the box grown to include p.
func (b BoundingBox) ExtendPoint(p [3]float32) BoundingBox {
	if !b.valid {
		return BoundingBox{Min: p, Max: p, valid: true}
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if o.IsEmpty() {
		return b
	}
	return b.ExtendPoint(o.Min).ExtendPoint(o.Max)
}

// Size returns max - min, or the zero vector for an empty box.
func (b BoundingBox) Size() [3]float32 {
	if !b.valid {
		return [3]float32{}
	}
	return Sub(b.Max, b.Min)
}

// Center returns min + size/2, or the origin for an empty box.
func (b BoundingBox) Center() [3]float32 {
	if !b.valid {
		return [3]float32{}
	}
	return Add(b.Min, Scale(b.Size(), 0.5))
}

// MaxDimension returns the largest extent along any axis.
func (b BoundingBox) MaxDimension() float32 {
	s := b.Size()
	return math32.Max(s[0], math32.Max(s[1], s[2]))
}

// Diagonal returns the length of the box diagonal.
func (b BoundingBox) Diagonal() float32 {
	return Length(b.Size())
}

// Corners returns the eight corners of the box.
func (b BoundingBox) Corners() [8][3]float32 {
	var c [8][3]float32
	for i := 0; i < 8; i++ {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = b.Max[axis]
			} else {
				c[i][axis] = b.Min[axis]
			}
		}
	}
	return c
}

// Transform returns the axis-aligned box enclosing the eight transformed corners of b.
//
// Parameters:
//   - m: a column-major affine matrix
//
// Returns:
//   - BoundingBox: the transformed bounds, empty if b is empty
func (b BoundingBox) Transform(m []float32) BoundingBox {
	if !b.valid {
		return b
	}
	out := BoundingBox{}
	for _, c := range b.Corners() {
		out = out.ExtendPoint(TransformPoint(m, c))
	}
	return out
}
