package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledScene never finishes loading.
type stalledScene struct {
	scene.Scene
	checks int
}

func (s *stalledScene) IsReady() bool {
	s.checks++
	return false
}

func (s *stalledScene) EnvironmentTexture() *scene.Texture { return nil }

func (s *stalledScene) Disposed() bool { return false }

func newTestScene(t *testing.T) scene.Scene {
	t.Helper()
	sc := scene.NewScene("readiness", scene.WithWorkers(2), scene.WithLogger(discard))
	t.Cleanup(sc.Dispose)
	return sc
}

func TestNewReadinessGateInterval(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, NewReadinessGate(0).Interval())
	assert.Equal(t, DefaultPollInterval, NewReadinessGate(-time.Second).Interval())
	assert.Equal(t, 5*time.Millisecond, NewReadinessGate(5*time.Millisecond).Interval())
}

func TestReadinessGateWaits(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, sc scene.Scene)
	}{
		{
			name:  "empty scene",
			setup: func(t *testing.T, sc scene.Scene) {},
		},
		{
			name: "default environment",
			setup: func(t *testing.T, sc scene.Scene) {
				_, err := sc.CreateDefaultEnvironment(scene.DefaultEnvironmentOptions())
				require.NoError(t, err)
			},
		},
		{
			name: "pending textures",
			setup: func(t *testing.T, sc scene.Scene) {
				for i := 0; i < 4; i++ {
					_, err := sc.AddTexture(&common.ImportedTexture{Name: "checker", Data: glbtest.CheckerPNG(64), MimeType: "image/png"})
					require.NoError(t, err)
				}
			},
		},
		{
			name: "undecodable texture",
			setup: func(t *testing.T, sc scene.Scene) {
				_, err := sc.AddTexture(&common.ImportedTexture{Name: "junk", Data: []byte("not an image")})
				require.NoError(t, err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestScene(t)
			tt.setup(t, sc)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			require.NoError(t, NewReadinessGate(time.Millisecond).Wait(ctx, sc))
			assert.True(t, sc.IsReady())
			if tex := sc.EnvironmentTexture(); tex != nil {
				assert.True(t, tex.IsReady())
			}
		})
	}
}

func TestReadinessGateHasNoTimeoutOfItsOwn(t *testing.T) {
	sc := &stalledScene{Scene: newTestScene(t)}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewReadinessGate(time.Millisecond).Wait(ctx, sc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, sc.checks, 1)
}

func TestReadinessGateDisposedScene(t *testing.T) {
	sc := newTestScene(t)
	sc.Dispose()

	err := NewReadinessGate(time.Millisecond).Wait(context.Background(), sc)
	assert.ErrorIs(t, err, scene.ErrSceneDisposed)
}
