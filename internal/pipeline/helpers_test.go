package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func smallViewport() ViewportConfig {
	return ViewportConfig{Background: "#000000", Opacity: 1, Width: 200, Height: 100}
}

func testBootstrapper() Bootstrapper {
	return NewBootstrapper(
		WithBootstrapLogger(discard),
		WithPreviewSurface(64, 36),
		WithEngineWorkers(2),
	)
}

func glbFile(name string, data []byte) intake.File {
	return intake.File{Name: name, MediaType: "application/octet-stream", Data: data}
}

func testRecord(name string, data []byte) ModelRecord {
	return NewModelRecord(glbFile(name, data))
}

// newSession bootstraps a live session that is disposed when the test ends.
func newSession(t *testing.T, rec ModelRecord) *RenderSession {
	t.Helper()
	s, err := testBootstrapper().Bootstrap(context.Background(), rec, smallViewport())
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	return s
}

// importedSession bootstraps a session and imports data into it.
func importedSession(t *testing.T, data []byte) (*RenderSession, []scene.Node) {
	t.Helper()
	rec := testRecord("model.glb", data)
	s := newSession(t, rec)
	nodes, err := NewImporter(discard).Import(context.Background(), s, rec, nil)
	require.NoError(t, err)
	return s, nodes
}

// cameraSession is a session carrying only a camera, enough for framing math.
func cameraSession(nodes []scene.Node) *RenderSession {
	cam := camera.NewCamera(camera.WithAspect(16.0/9.0), camera.WithController(NewSessionController()))
	return &RenderSession{
		mu:      &sync.Mutex{},
		logger:  discard,
		camera:  cam,
		framing: camera.NewFramingBehavior(cam),
		nodes:   nodes,
	}
}

func newTestController(t *testing.T, options ...ControllerBuilderOption) *Controller {
	t.Helper()
	defaults := []ControllerBuilderOption{
		WithLogger(discard),
		WithBootstrapper(testBootstrapper()),
		WithSettleDelay(10 * time.Millisecond),
		WithPollInterval(5 * time.Millisecond),
		WithViewport(smallViewport()),
	}
	return NewController(append(defaults, options...)...)
}

// runController starts Run and stops it when the test ends.
func runController(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("controller did not stop")
		}
	})
}

func waitIdle(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, c.WaitIdle(ctx))
}

// collectUntilIdle reads events until the pipeline reports idle.
func collectUntilIdle(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(30 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
			if ev.Phase == PhaseIdle {
				return got
			}
		case <-timeout:
			t.Fatalf("no idle event, got %d events", len(got))
			return got
		}
	}
}

func eventsFor(events []Event, id string) []Event {
	var out []Event
	for _, ev := range events {
		if ev.ModelID == id {
			out = append(out, ev)
		}
	}
	return out
}

func indexOf(events []Event, id string, phase Phase) int {
	for i, ev := range events {
		if ev.ModelID == id && ev.Phase == phase {
			return i
		}
	}
	return -1
}

func cube(size float32) []byte {
	return glbtest.Cube(size)
}
