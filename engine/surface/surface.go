package surface

import (
	"errors"
	"image"
	"image/draw"
	"sync"
)

var (
	// ErrInvalidSize is returned when a surface is created or resized with a non-positive dimension.
	ErrInvalidSize = errors.New("surface dimensions must be positive")

	// ErrSurfaceClosed is returned when presenting into a closed surface.
	ErrSurfaceClosed = errors.New("surface is closed")
)

// Surface is the headless display target the engine render loop presents frames into.
// It stands in for a window: it has a client area size, can be resized and closed,
// and keeps the most recently presented frame for live previews.
type Surface interface {
	// Width returns the current client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Valid reports whether the surface is open and has a drawable area.
	//
	// Returns:
	//   - bool: true if frames can be presented
	Valid() bool

	// Present copies a rendered frame into the surface back buffer.
	// Frames with a different size are drawn anchored at the origin and clipped.
	//
	// Parameters:
	//   - frame: the rendered frame
	//
	// Returns:
	//   - error: ErrSurfaceClosed if the surface has been closed
	Present(frame image.Image) error

	// Snapshot returns a copy of the last presented frame, or nil before the first Present.
	//
	// Returns:
	//   - *image.RGBA: the frame copy
	Snapshot() *image.RGBA

	// Frames returns the number of frames presented so far.
	Frames() uint64

	// SetResizeCallback sets the function called after a successful Resize.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// Resize changes the client area size and drops the back buffer.
	//
	// Parameters:
	//   - width: new width in pixels
	//   - height: new height in pixels
	//
	// Returns:
	//   - error: ErrInvalidSize for non-positive dimensions
	Resize(width, height int) error

	// Close releases the back buffer. Closing twice is a no-op.
	//
	// Returns:
	//   - error: always nil for headless surfaces
	Close() error
}

// headlessSurface is the implementation of the Surface interface.
type headlessSurface struct {
	mu sync.RWMutex

	width  int
	height int

	closed bool
	frames uint64

	back *image.RGBA

	onResize func(width, height int)
}

var _ Surface = &headlessSurface{}

// NewSurface creates a new headless Surface.
// Applies default values first (640x360), then each option in order.
//
// Parameters:
//   - options: functional options to configure the surface
//
// Returns:
//   - Surface: the configured surface
//   - error: ErrInvalidSize if the configured size is not positive
func NewSurface(options ...SurfaceBuilderOption) (Surface, error) {
	s := &headlessSurface{
		width:  640,
		height: 360,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.width <= 0 || s.height <= 0 {
		return nil, ErrInvalidSize
	}
	return s, nil
}

func (s *headlessSurface) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

func (s *headlessSurface) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

func (s *headlessSurface) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed && s.width > 0 && s.height > 0
}

func (s *headlessSurface) Present(frame image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSurfaceClosed
	}
	if s.back == nil {
		s.back = image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	}
	draw.Draw(s.back, s.back.Bounds(), frame, frame.Bounds().Min, draw.Src)
	s.frames++
	return nil
}

func (s *headlessSurface) Snapshot() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.back == nil {
		return nil
	}
	out := image.NewRGBA(s.back.Bounds())
	copy(out.Pix, s.back.Pix)
	return out
}

func (s *headlessSurface) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

func (s *headlessSurface) SetResizeCallback(callback func(width, height int)) {
	s.mu.Lock()
	s.onResize = callback
	s.mu.Unlock()
}

func (s *headlessSurface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	s.mu.Lock()
	s.width = width
	s.height = height
	s.back = nil
	cb := s.onResize
	s.mu.Unlock()

	if cb != nil {
		cb(width, height)
	}
	return nil
}

func (s *headlessSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.back = nil
	return nil
}
