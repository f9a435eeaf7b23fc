package pipeline

import (
	"context"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
)

// DefaultPollInterval is the readiness polling period.
const DefaultPollInterval = 100 * time.Millisecond

// ReadinessGate blocks until a scene's asynchronous resources have finished loading.
type ReadinessGate struct {
	interval time.Duration
}

// NewReadinessGate creates a gate polling at the given interval; values <= 0 use DefaultPollInterval.
func NewReadinessGate(interval time.Duration) *ReadinessGate {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &ReadinessGate{interval: interval}
}

// Interval returns the polling period.
func (g *ReadinessGate) Interval() time.Duration {
	return g.interval
}

// Wait polls until the environment texture, if the scene has one, is ready and then
// until the scene reports itself ready. There is no timeout; cancel ctx to abort.
//
// Parameters:
//   - ctx: cancels the wait
//   - sc: the scene to observe
//
// Returns:
//   - error: ctx.Err() on cancellation, scene.ErrSceneDisposed if the scene is disposed
func (g *ReadinessGate) Wait(ctx context.Context, sc scene.Scene) error {
	environmentReady := func() bool {
		tex := sc.EnvironmentTexture()
		return tex == nil || tex.IsReady()
	}
	if err := g.poll(ctx, sc, environmentReady); err != nil {
		return err
	}
	return g.poll(ctx, sc, sc.IsReady)
}

func (g *ReadinessGate) poll(ctx context.Context, sc scene.Scene, ready func() bool) error {
	check := func() (bool, error) {
		if sc.Disposed() {
			return false, scene.ErrSceneDisposed
		}
		return ready(), nil
	}

	if done, err := check(); done || err != nil {
		return err
	}

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if done, err := check(); done || err != nil {
				return err
			}
		}
	}
}
