package surface

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSurface(t *testing.T) {
	tests := []struct {
		name    string
		options []SurfaceBuilderOption
		wantW   int
		wantH   int
		wantErr error
	}{
		{name: "defaults", wantW: 640, wantH: 360},
		{name: "custom size", options: []SurfaceBuilderOption{WithSize(100, 50)}, wantW: 100, wantH: 50},
		{name: "zero width", options: []SurfaceBuilderOption{WithSize(0, 50)}, wantErr: ErrInvalidSize},
		{name: "negative height", options: []SurfaceBuilderOption{WithSize(10, -1)}, wantErr: ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSurface(tt.options...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantW, s.Width())
			assert.Equal(t, tt.wantH, s.Height())
			assert.True(t, s.Valid())
		})
	}
}

func TestSurfacePresentAndSnapshot(t *testing.T) {
	s, err := NewSurface(WithSize(4, 4))
	require.NoError(t, err)
	assert.Nil(t, s.Snapshot())

	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	frame.Set(1, 1, color.RGBA{R: 255, A: 255})
	require.NoError(t, s.Present(frame))

	snap := s.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, snap.RGBAAt(1, 1))
	assert.Equal(t, uint64(1), s.Frames())

	// snapshot is a copy
	snap.Set(1, 1, color.RGBA{})
	assert.Equal(t, color.RGBA{R: 255, A: 255}, s.Snapshot().RGBAAt(1, 1))
}

func TestSurfaceResizeAndClose(t *testing.T) {
	var gotW, gotH int
	s, err := NewSurface(WithSize(10, 10), WithResizeCallback(func(w, h int) { gotW, gotH = w, h }))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Resize(0, 10), ErrInvalidSize)
	require.NoError(t, s.Resize(20, 30))
	assert.Equal(t, 20, gotW)
	assert.Equal(t, 30, gotH)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.Valid())
	assert.ErrorIs(t, s.Present(image.NewRGBA(image.Rect(0, 0, 1, 1))), ErrSurfaceClosed)
}
