package pipeline

import (
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/scene"
	"github.com/Carmen-Shannon/oxy-shot/engine/surface"
)

// RenderSession is the rendering context of one model: engine, surface, scene, camera,
// framing behavior, imported nodes and the object URL exposing the asset bytes.
// A session is never reused; Dispose releases everything exactly once.
type RenderSession struct {
	mu *sync.Mutex

	modelID string
	logger  *slog.Logger

	engine  engine.Engine
	surface surface.Surface
	scene   scene.Scene
	camera  camera.Camera
	framing camera.FramingBehavior

	nodes     []scene.Node
	objectURL string

	createdAt   time.Time
	disposeOnce sync.Once
	disposed    atomic.Bool
}

func (s *RenderSession) ModelID() string {
	return s.modelID
}

func (s *RenderSession) Engine() engine.Engine {
	return s.engine
}

func (s *RenderSession) Surface() surface.Surface {
	return s.surface
}

func (s *RenderSession) Scene() scene.Scene {
	return s.scene
}

func (s *RenderSession) Camera() camera.Camera {
	return s.camera
}

// Framing returns the framing behavior attached to the camera.
func (s *RenderSession) Framing() camera.FramingBehavior {
	return s.framing
}

// Controller returns the camera's orbit controller.
func (s *RenderSession) Controller() camera.ArcRotateController {
	return s.camera.Controller()
}

// CreatedAt returns when the session was bootstrapped.
func (s *RenderSession) CreatedAt() time.Time {
	return s.createdAt
}

// Nodes returns the imported top-level nodes.
func (s *RenderSession) Nodes() []scene.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scene.Node(nil), s.nodes...)
}

func (s *RenderSession) setNodes(nodes []scene.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = nodes
}

// ObjectURL returns the live object URL of the asset bytes, or "" once revoked.
func (s *RenderSession) ObjectURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objectURL
}

// exposeBytes registers the asset bytes with the engine. Fails on a disposed session.
func (s *RenderSession) exposeBytes(data []byte, mediaType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed.Load() {
		return "", ErrSessionDisposed
	}
	s.objectURL = s.engine.CreateObjectURL(data, mediaType)
	return s.objectURL, nil
}

// revokeObjectURL releases the asset bytes. Safe to call repeatedly.
func (s *RenderSession) revokeObjectURL() {
	s.mu.Lock()
	url := s.objectURL
	s.objectURL = ""
	s.mu.Unlock()
	if url != "" {
		s.engine.RevokeObjectURL(url)
	}
}

// Snapshot returns the last frame presented by the live render loop, or nil.
func (s *RenderSession) Snapshot() *image.RGBA {
	if s.disposed.Load() {
		return nil
	}
	return s.surface.Snapshot()
}

// Disposed reports whether Dispose has been called.
func (s *RenderSession) Disposed() bool {
	return s.disposed.Load()
}

// Dispose revokes the object URL and disposes the scene, the engine and the surface.
// Runs once; concurrent and repeated calls return after the first has finished.
// Teardown panics are logged and suppressed.
func (s *RenderSession) Dispose() {
	s.disposeOnce.Do(func() {
		s.disposed.Store(true)
		s.teardown("object url", s.revokeObjectURL)
		s.teardown("scene", s.scene.Dispose)
		s.teardown("engine", s.engine.Dispose)
		s.teardown("surface", func() {
			if err := s.surface.Close(); err != nil {
				s.logger.Warn("failed to close surface", "model", s.modelID, "err", err)
			}
		})
		s.logger.Debug("render session disposed", "model", s.modelID, "lifetime", time.Since(s.createdAt))
	})
}

func (s *RenderSession) teardown(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("render session teardown panicked", "model", s.modelID, "resource", what, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
