package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCaptureEngine() *CaptureEngine {
	return NewCaptureEngine(NewFramer(), NewReadinessGate(time.Millisecond), discard)
}

// framedSession imports and frames data, ready for capture.
func framedSession(t *testing.T, data []byte) *RenderSession {
	t.Helper()
	s, nodes := importedSession(t, data)
	NewFramer().Frame(s, nodes)
	return s
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestCaptureProducesPNGAtRequestedSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		large         bool
	}{
		{name: "minimum", width: 100, height: 100},
		{name: "wide", width: 320, height: 180},
		{name: "tall", width: 120, height: 300},
		{name: "maximum", width: 3840, height: 2160, large: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.large && testing.Short() {
				t.Skip("large capture")
			}
			s := framedSession(t, glbtest.Cube(2))

			shot, err := testCaptureEngine().Capture(context.Background(), s, tt.width, tt.height)
			require.NoError(t, err)
			assert.Equal(t, tt.width, shot.Width)
			assert.Equal(t, tt.height, shot.Height)
			assert.False(t, shot.CapturedAt.IsZero())

			img := decodePNG(t, shot.PNG)
			assert.Equal(t, tt.width, img.Bounds().Dx())
			assert.Equal(t, tt.height, img.Bounds().Dy())

			// black background, lit model in the middle
			r, g, b, _ := img.At(0, 0).RGBA()
			assert.Zero(t, r+g+b)
			r, g, b, _ = img.At(tt.width/2, tt.height/2).RGBA()
			assert.NotZero(t, r+g+b)
		})
	}
}

func TestCaptureRestoresCameraAndIsRepeatable(t *testing.T) {
	s := framedSession(t, glbtest.TexturedCube(3))
	cam := s.Camera()
	ctrl := s.Controller()

	aspect := cam.Aspect()
	ctrl.SetAlpha(1.1)
	ctrl.SetBeta(0.4)

	ce := testCaptureEngine()
	first, err := ce.Capture(context.Background(), s, 200, 100)
	require.NoError(t, err)

	assert.Equal(t, aspect, cam.Aspect())
	assert.InDelta(t, InitialAlpha, ctrl.Alpha(), 1e-6)
	assert.InDelta(t, InitialBeta, ctrl.Beta(), 1e-6)

	effects := cam.PostProcesses()
	require.Len(t, effects, 1)
	assert.Equal(t, fxaaName, effects[0].Name())

	env := s.Scene().Environment()
	require.NotNil(t, env)
	assert.True(t, env.Texture().IsReady())

	second, err := ce.Capture(context.Background(), s, 200, 100)
	require.NoError(t, err)
	assert.Same(t, env, s.Scene().Environment())
	assert.Len(t, cam.PostProcesses(), 1)
	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)
	assert.NotEmpty(t, second.PNG)
}

func TestCaptureInvalidDimensions(t *testing.T) {
	s := cameraSession(nil)
	tests := []struct {
		name          string
		width, height int
	}{
		{name: "zero width", width: 0, height: 100},
		{name: "zero height", width: 100, height: 0},
		{name: "negative", width: -5, height: -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shot, err := testCaptureEngine().Capture(context.Background(), s, tt.width, tt.height)
			assert.Nil(t, shot)
			var captureErr *CaptureError
			require.ErrorAs(t, err, &captureErr)
			assert.ErrorIs(t, err, ErrInvalidDimensions)
			assert.Equal(t, CaptureFailedMessage, UserMessage(err))
		})
	}
}

func TestCaptureDisposedSession(t *testing.T) {
	s := framedSession(t, glbtest.Cube(1))
	s.Dispose()

	shot, err := testCaptureEngine().Capture(context.Background(), s, 100, 100)
	assert.Nil(t, shot)
	assert.ErrorIs(t, err, ErrSessionDisposed)
}

func TestCaptureCancelled(t *testing.T) {
	s := framedSession(t, glbtest.Cube(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testCaptureEngine().Capture(ctx, s, 100, 100)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, s.Disposed())
}
