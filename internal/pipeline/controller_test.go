package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingImporter holds the first import at its first progress report until the run
// is cancelled.
type blockingImporter struct {
	inner   Importer
	once    sync.Once
	started chan struct{}
}

func newBlockingImporter() *blockingImporter {
	return &blockingImporter{inner: NewImporter(discard), started: make(chan struct{})}
}

func (b *blockingImporter) Import(ctx context.Context, s *RenderSession, rec ModelRecord, onProgress func(float64)) ([]scene.Node, error) {
	first := false
	b.once.Do(func() { first = true })
	if !first {
		return b.inner.Import(ctx, s, rec, onProgress)
	}
	blocked := false
	return b.inner.Import(ctx, s, rec, func(f float64) {
		if !blocked {
			blocked = true
			close(b.started)
			<-ctx.Done()
		}
		if onProgress != nil {
			onProgress(f)
		}
	})
}

type failingBootstrapper struct{}

func (failingBootstrapper) Bootstrap(context.Context, ModelRecord, ViewportConfig) (*RenderSession, error) {
	return nil, &BootstrapError{Err: errors.New("no rendering context")}
}

func TestControllerProcessesBatch(t *testing.T) {
	c := newTestController(t, WithViewport(DefaultViewport()))
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	created := c.Enqueue(
		glbFile("crate.glb", cube(2)),
		glbFile("broken.glb", glbtest.Malformed()),
		intake.File{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hello")},
	)
	require.Len(t, created, 2)
	a, b := created[0], created[1]
	assert.Equal(t, StatusQueued, a.Status)

	runController(t, c)
	got := collectUntilIdle(t, events)
	waitIdle(t, c)

	records := c.Records()
	require.Len(t, records, 2)
	assert.Equal(t, a.ID, records[0].ID)
	assert.Equal(t, b.ID, records[1].ID)

	ready := records[0]
	assert.Equal(t, StatusReady, ready.Status)
	require.True(t, ready.HasScreenshot())
	assert.Equal(t, 1920, ready.Screenshot.Width)
	assert.Equal(t, 1080, ready.Screenshot.Height)
	img := decodePNG(t, ready.Screenshot.PNG)
	assert.Equal(t, 1920, img.Bounds().Dx())
	assert.False(t, ready.CompletedAt.IsZero())
	assert.Empty(t, ready.Error)

	failed := records[1]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, ImportFailedMessage, failed.Error)
	assert.False(t, failed.HasScreenshot())

	assert.Equal(t, 0, c.Progress())
	assert.Nil(t, c.ActiveSession())

	// per-model progress never goes backwards and the ready model ends at 100
	aEvents := eventsFor(got, a.ID)
	require.NotEmpty(t, aEvents)
	for i := 1; i < len(aEvents); i++ {
		assert.GreaterOrEqual(t, aEvents[i].Percent, aEvents[i-1].Percent, "event %d (%s)", i, aEvents[i].Phase)
	}
	last := aEvents[len(aEvents)-1]
	assert.Equal(t, PhaseReady, last.Phase)
	assert.Equal(t, 100, last.Percent)

	order := []Phase{PhaseQueued, PhaseBootstrapping, PhaseImporting, PhaseFraming, PhaseAwaitingReady, PhaseCapturing, PhaseReleased, PhaseReady}
	for i := 1; i < len(order); i++ {
		assert.Less(t, indexOf(got, a.ID, order[i-1]), indexOf(got, a.ID, order[i]), "%s before %s", order[i-1], order[i])
	}

	// one render session at a time
	assert.Less(t, indexOf(got, a.ID, PhaseReleased), indexOf(got, b.ID, PhaseBootstrapping))

	bFailed := indexOf(got, b.ID, PhaseFailed)
	require.GreaterOrEqual(t, bFailed, 0)
	assert.Equal(t, ImportFailedMessage, got[bFailed].Error)
	assert.Equal(t, -1, indexOf(got, b.ID, PhaseCapturing))

	idle := got[len(got)-1]
	assert.Equal(t, PhaseIdle, idle.Phase)
	assert.Empty(t, idle.ModelID)
	assert.Equal(t, 0, idle.Percent)
}

// environmentImporter remembers the environment texture each session had when its
// import started.
type environmentImporter struct {
	inner    Importer
	mu       sync.Mutex
	textures map[string]*scene.Texture
}

func (e *environmentImporter) Import(ctx context.Context, s *RenderSession, rec ModelRecord, onProgress func(float64)) ([]scene.Node, error) {
	e.mu.Lock()
	e.textures[rec.ID] = s.Scene().EnvironmentTexture()
	e.mu.Unlock()
	return e.inner.Import(ctx, s, rec, onProgress)
}

func (e *environmentImporter) texture(id string) *scene.Texture {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.textures[id]
}

func TestControllerEnvironmentReadyBeforeCapture(t *testing.T) {
	im := &environmentImporter{inner: NewImporter(discard), textures: make(map[string]*scene.Texture)}
	c := newTestController(t, WithImporter(im))
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	created := c.Enqueue(glbFile("crate.glb", cube(2)))
	require.Len(t, created, 1)
	id := created[0].ID
	runController(t, c)

	timeout := time.After(30 * time.Second)
	for capturing := false; !capturing; {
		select {
		case ev, ok := <-events:
			require.True(t, ok)
			if ev.ModelID != id || ev.Phase != PhaseCapturing {
				continue
			}
			capturing = true
			tex := im.texture(id)
			require.NotNil(t, tex, "environment created during bootstrap")
			assert.Equal(t, scene.TextureStateReady, tex.State())
		case <-timeout:
			t.Fatal("no capturing event")
		}
	}

	waitIdle(t, c)
	rec, ok := c.Record(id)
	require.True(t, ok)
	assert.Equal(t, StatusReady, rec.Status)
}

func TestControllerRunsSessionsSequentially(t *testing.T) {
	c := newTestController(t)
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	created := c.Enqueue(
		glbFile("one.glb", cube(1)),
		glbFile("two.glb", glbtest.TexturedCube(4)),
		glbFile("three.glb", glbtest.Box([3]float32{0, 0, 0}, [3]float32{10, 1, 1})),
	)
	require.Len(t, created, 3)
	runController(t, c)
	got := collectUntilIdle(t, events)
	waitIdle(t, c)

	for _, rec := range c.Records() {
		assert.Equal(t, StatusReady, rec.Status, rec.Name)
		require.True(t, rec.HasScreenshot(), rec.Name)
		assert.Equal(t, 200, rec.Screenshot.Width)
		assert.Equal(t, 100, rec.Screenshot.Height)
	}
	for i := 1; i < len(created); i++ {
		prev, next := created[i-1].ID, created[i].ID
		assert.Less(t, indexOf(got, prev, PhaseReleased), indexOf(got, next, PhaseBootstrapping))
		assert.Less(t, indexOf(got, prev, PhaseReady), indexOf(got, next, PhaseBootstrapping))
	}
}

func TestControllerRemoveActiveModel(t *testing.T) {
	im := newBlockingImporter()
	c := newTestController(t, WithImporter(im))
	created := c.Enqueue(glbFile("slow.glb", cube(1)), glbFile("next.glb", cube(2)))
	require.Len(t, created, 2)
	runController(t, c)

	<-im.started
	s := c.ActiveSession()
	require.NotNil(t, s)
	assert.Equal(t, created[0].ID, s.ModelID())

	assert.True(t, c.Remove(created[0].ID))
	assert.False(t, c.Remove(created[0].ID))
	waitIdle(t, c)

	assert.True(t, s.Disposed())
	assert.Empty(t, s.ObjectURL())
	assert.True(t, s.Scene().Disposed())
	_, ok := c.Record(created[0].ID)
	assert.False(t, ok)

	records := c.Records()
	require.Len(t, records, 1)
	assert.Equal(t, created[1].ID, records[0].ID)
	assert.Equal(t, StatusReady, records[0].Status)
	assert.True(t, records[0].HasScreenshot())
}

func TestControllerRemoveQueuedModel(t *testing.T) {
	c := newTestController(t)
	created := c.Enqueue(glbFile("a.glb", cube(1)), glbFile("b.glb", cube(1)))
	require.True(t, c.Remove(created[1].ID))
	assert.False(t, c.Remove("missing"))

	runController(t, c)
	waitIdle(t, c)

	records := c.Records()
	require.Len(t, records, 1)
	assert.Equal(t, StatusReady, records[0].Status)
}

func TestControllerClear(t *testing.T) {
	im := newBlockingImporter()
	c := newTestController(t, WithImporter(im))
	c.Enqueue(glbFile("a.glb", cube(1)), glbFile("b.glb", cube(1)), glbFile("c.glb", cube(1)))
	runController(t, c)

	<-im.started
	s := c.ActiveSession()
	require.NotNil(t, s)

	c.Clear()
	waitIdle(t, c)

	assert.Empty(t, c.Records())
	assert.Equal(t, 0, c.Progress())
	assert.True(t, s.Disposed())
	assert.Nil(t, c.ActiveSession())

	// the pipeline keeps accepting work after a clear
	created := c.Enqueue(glbFile("d.glb", cube(1)))
	waitIdle(t, c)
	rec, ok := c.Record(created[0].ID)
	require.True(t, ok)
	assert.Equal(t, StatusReady, rec.Status)
}

func TestControllerBootstrapFailure(t *testing.T) {
	c := newTestController(t, WithBootstrapper(failingBootstrapper{}))
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	created := c.Enqueue(glbFile("a.glb", cube(1)), glbFile("b.glb", cube(1)))
	runController(t, c)
	got := collectUntilIdle(t, events)
	waitIdle(t, c)

	for _, rec := range c.Records() {
		assert.Equal(t, StatusFailed, rec.Status)
		assert.Equal(t, BootstrapFailedMessage, rec.Error)
	}
	for _, rec := range created {
		assert.Equal(t, -1, indexOf(got, rec.ID, PhaseReleased))
		assert.GreaterOrEqual(t, indexOf(got, rec.ID, PhaseFailed), 0)
	}
}

func TestControllerEmptyAsset(t *testing.T) {
	c := newTestController(t)
	created := c.Enqueue(glbFile("empty.glb", glbtest.Empty()))
	runController(t, c)
	waitIdle(t, c)

	rec, ok := c.Record(created[0].ID)
	require.True(t, ok)
	assert.Equal(t, StatusReady, rec.Status)
	require.True(t, rec.HasScreenshot())

	img := decodePNG(t, rec.Screenshot.PNG)
	r, g, b, _ := img.At(100, 50).RGBA()
	assert.Zero(t, r+g+b)
}

func TestControllerAlreadyRunning(t *testing.T) {
	c := newTestController(t)
	c.Enqueue(glbFile("a.glb", cube(1)))
	runController(t, c)
	waitIdle(t, c)

	assert.ErrorIs(t, c.Run(context.Background()), ErrAlreadyRunning)
}

func TestControllerIgnoresNonGLB(t *testing.T) {
	c := newTestController(t)
	created := c.Enqueue(
		intake.File{Name: "photo.png", MediaType: "image/png", Data: glbtest.CheckerPNG(2)},
		intake.File{Name: "notes.txt", Data: []byte("hello")},
	)
	assert.Empty(t, created)
	assert.Empty(t, c.Records())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, c.WaitIdle(ctx))
}

func TestControllerSetViewport(t *testing.T) {
	c := newTestController(t)

	err := c.SetViewport(ViewportConfig{Background: "#ffffff", Opacity: 1, Width: 0, Height: 100})
	assert.ErrorIs(t, err, ErrInvalidViewport)
	assert.Equal(t, smallViewport(), c.Viewport())

	vp := ViewportConfig{Background: "#202020", Opacity: 1, Width: 160, Height: 120}
	require.NoError(t, c.SetViewport(vp))
	assert.Equal(t, vp, c.Viewport())

	created := c.Enqueue(glbFile("a.glb", cube(1)))
	runController(t, c)
	waitIdle(t, c)

	rec, ok := c.Record(created[0].ID)
	require.True(t, ok)
	require.True(t, rec.HasScreenshot())
	assert.Equal(t, 160, rec.Screenshot.Width)
	assert.Equal(t, 120, rec.Screenshot.Height)
}

func TestWithViewportIgnoresInvalidConfig(t *testing.T) {
	c := NewController(WithLogger(discard), WithViewport(ViewportConfig{Width: -1}))
	assert.Equal(t, DefaultViewport(), c.Viewport())
}

func TestControllerCloseEndsEventStreams(t *testing.T) {
	c := newTestController(t)
	first, unsubscribeFirst := c.Subscribe()
	second, unsubscribeSecond := c.Subscribe()

	c.Close()

	for _, events := range []<-chan Event{first, second} {
		select {
		case _, ok := <-events:
			assert.False(t, ok)
		case <-time.After(time.Second):
			t.Fatal("event stream still open")
		}
	}
	unsubscribeFirst()
	unsubscribeSecond()
}
