// Package postprocess holds image-space effects applied to captured frames after rasterization.
package postprocess

import "image"

// PostProcess is an image-space effect attached to a camera.
type PostProcess interface {
	// Name returns the effect identifier.
	Name() string

	// Apply runs the effect over a frame and returns the result.
	// Implementations may return a new image; the input must not be retained.
	//
	// Parameters:
	//   - src: the rendered frame
	//
	// Returns:
	//   - *image.RGBA: the processed frame with the same bounds as src
	Apply(src *image.RGBA) *image.RGBA
}

// Chain applies each effect in order. A nil or empty chain returns src unchanged.
//
// Parameters:
//   - src: the rendered frame
//   - effects: the effects to apply
//
// Returns:
//   - *image.RGBA: the processed frame
func Chain(src *image.RGBA, effects []PostProcess) *image.RGBA {
	out := src
	for _, e := range effects {
		if e == nil {
			continue
		}
		out = e.Apply(out)
	}
	return out
}
