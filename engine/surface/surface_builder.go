package surface

// SurfaceBuilderOption is a functional option for configuring a Surface via NewSurface.
type SurfaceBuilderOption func(*headlessSurface)

// WithSize sets the initial client area size of the surface.
//
// Parameters:
//   - width: width in pixels
//   - height: height in pixels
//
// Returns:
//   - SurfaceBuilderOption: a function that applies the size option
func WithSize(width, height int) SurfaceBuilderOption {
	return func(s *headlessSurface) {
		s.width = width
		s.height = height
	}
}

// WithResizeCallback sets the function called after a successful Resize.
func WithResizeCallback(callback func(width, height int)) SurfaceBuilderOption {
	return func(s *headlessSurface) {
		s.onResize = callback
	}
}
