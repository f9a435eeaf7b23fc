package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine"
	"github.com/Carmen-Shannon/oxy-shot/engine/light"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapCreatesSession(t *testing.T) {
	rec := testRecord("crate.glb", cube(1))
	vp := ViewportConfig{Background: "#336699", Opacity: 0.5, Width: 200, Height: 100}
	s, err := testBootstrapper().Bootstrap(context.Background(), rec, vp)
	require.NoError(t, err)
	t.Cleanup(s.Dispose)

	assert.Equal(t, rec.ID, s.ModelID())
	assert.True(t, s.Engine().Running())
	assert.Equal(t, 64, s.Surface().Width())

	bg := s.Scene().ClearColor()
	assert.InDelta(t, 0.2, bg.R, 1e-3)
	assert.InDelta(t, 0.6, bg.B, 1e-3)
	assert.Equal(t, float32(0.5), bg.A)
	assert.Same(t, s.Camera(), s.Scene().ActiveCamera())

	ctrl := s.Controller()
	require.NotNil(t, ctrl)
	assert.InDelta(t, InitialAlpha, ctrl.Alpha(), 1e-6)
	assert.InDelta(t, InitialBeta, ctrl.Beta(), 1e-6)
	assert.Equal(t, float32(InitialRadius), ctrl.Radius())
	assert.True(t, ctrl.InputAttached())
	assert.Equal(t, float32(50), ctrl.WheelPrecision())
	assert.Equal(t, float32(50), ctrl.PanningSensibility())
	upper, ok := ctrl.UpperRadiusLimit()
	assert.True(t, ok)
	assert.Equal(t, float32(50), upper)
	_, ok = ctrl.LowerRadiusLimit()
	assert.True(t, ok)

	lights := s.Scene().Lights()
	require.Len(t, lights, 1)
	assert.Equal(t, light.LightTypeHemispheric, lights[0].Type())
	assert.Equal(t, [3]float32{0, 1, 0}, lights[0].Direction())
	assert.Equal(t, float32(0.7), lights[0].Intensity())

	effects := s.Camera().PostProcesses()
	require.Len(t, effects, 1)
	assert.Equal(t, fxaaName, effects[0].Name())

	env := s.Scene().Environment()
	require.NotNil(t, env)
	require.Eventually(t, func() bool { return env.Texture().IsReady() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, scene.TextureStateReady, env.Texture().State())

	require.Eventually(t, func() bool { return s.Surface().Frames() > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NotNil(t, s.Snapshot())
}

func TestBootstrapFailures(t *testing.T) {
	rec := testRecord("crate.glb", cube(1))

	_, err := testBootstrapper().Bootstrap(context.Background(), rec, ViewportConfig{Background: "not-a-color", Width: 200, Height: 100})
	var bootErr *BootstrapError
	require.ErrorAs(t, err, &bootErr)
	assert.Equal(t, BootstrapFailedMessage, UserMessage(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = testBootstrapper().Bootstrap(ctx, rec, smallViewport())
	require.ErrorAs(t, err, &bootErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionDisposeReleasesEverythingOnce(t *testing.T) {
	rec := testRecord("crate.glb", cube(1))
	s, err := testBootstrapper().Bootstrap(context.Background(), rec, smallViewport())
	require.NoError(t, err)

	url, err := s.exposeBytes(rec.Data(), engine.MediaTypeGLB)
	require.NoError(t, err)
	assert.Equal(t, url, s.ObjectURL())
	assert.Equal(t, 1, s.Engine().ObjectURLs())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Dispose()
		}()
	}
	wg.Wait()
	s.Dispose()

	assert.True(t, s.Disposed())
	assert.Empty(t, s.ObjectURL())
	assert.True(t, s.Scene().Disposed())
	assert.True(t, s.Engine().Disposed())
	assert.False(t, s.Engine().Running())
	assert.False(t, s.Surface().Valid())
	assert.Nil(t, s.Snapshot())

	_, err = s.exposeBytes(rec.Data(), engine.MediaTypeGLB)
	assert.ErrorIs(t, err, ErrSessionDisposed)
}

func TestImporterLoadsAndRevokes(t *testing.T) {
	rec := testRecord("crate.glb", glbtest.TexturedCube(2))
	s := newSession(t, rec)

	var fractions []float64
	nodes, err := NewImporter(discard).Import(context.Background(), s, rec, func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, engine.RootNodeName, nodes[0].Name())
	assert.Empty(t, s.Nodes())

	assert.Empty(t, s.ObjectURL())
	assert.Equal(t, 0, s.Engine().ObjectURLs())

	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
	}
}

func TestImporterRejectsMalformedBytes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "truncated", data: glbtest.Malformed()},
		{name: "json", data: glbtest.NotGLB()},
		{name: "empty", data: nil},
		{name: "old version", data: glbtest.Build(glbtest.WithAssetVersion("1.0"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecord("broken.glb", tt.data)
			s := newSession(t, rec)

			nodes, err := NewImporter(discard).Import(context.Background(), s, rec, nil)
			assert.Nil(t, nodes)
			var importErr *ImportError
			require.ErrorAs(t, err, &importErr)
			assert.Equal(t, ImportFailedMessage, UserMessage(err))

			assert.Empty(t, s.ObjectURL())
			assert.Equal(t, 0, s.Engine().ObjectURLs())
			assert.Empty(t, s.Scene().RootNodes())
			assert.True(t, s.Engine().Running())
		})
	}
}

func TestImporterOnDisposedSession(t *testing.T) {
	rec := testRecord("crate.glb", cube(1))
	s := newSession(t, rec)
	s.Dispose()

	called := false
	_, err := NewImporter(discard).Import(context.Background(), s, rec, func(float64) { called = true })
	assert.True(t, errors.Is(err, ErrSessionDisposed))
	assert.False(t, called)
}

func TestImporterCancelled(t *testing.T) {
	rec := testRecord("crate.glb", cube(1))
	s := newSession(t, rec)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewImporter(discard).Import(ctx, s, rec, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Engine().ObjectURLs())
}
