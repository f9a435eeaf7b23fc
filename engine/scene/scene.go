package scene

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shot/common"
	"github.com/Carmen-Shannon/oxy-shot/engine/camera"
	"github.com/Carmen-Shannon/oxy-shot/engine/light"
)

// ErrSceneDisposed is returned by operations on a disposed scene.
var ErrSceneDisposed = errors.New("scene has been disposed")

// Scene manages a graph of transform nodes, the textures referenced by their materials,
// lights, an optional image-based environment and the active camera.
// Texture decoding and environment generation run on a worker pool; IsReady reports
// when every pending resource has completed.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// ClearColor returns the background color, alpha included.
	ClearColor() common.Color

	// SetClearColor sets the background color.
	//
	// Parameters:
	//   - c: the background color
	SetClearColor(c common.Color)

	// ActiveCamera returns the camera used for rendering, or nil.
	ActiveCamera() camera.Camera

	// SetActiveCamera sets the camera used for rendering.
	//
	// Parameters:
	//   - cam: the camera
	SetActiveCamera(cam camera.Camera)

	// AddNode registers a root node. Descendants are reached through the node itself.
	// Ignored on a disposed scene.
	//
	// Parameters:
	//   - n: the root node
	AddNode(n Node)

	// RemoveNode unregisters a root node.
	//
	// Parameters:
	//   - n: the root node
	RemoveNode(n Node)

	// RootNodes returns a copy of the registered root nodes.
	RootNodes() []Node

	// MeshNodes returns every registered node (roots and descendants) that carries a mesh.
	MeshNodes() []Node

	// AddLight adds a light source to the scene.
	//
	// Parameters:
	//   - l: the Light to add
	AddLight(l light.Light)

	// Lights returns all lights currently registered in the scene.
	//
	// Returns:
	//   - []light.Light: the scene's light list
	Lights() []light.Light

	// AddTexture registers an encoded texture and schedules its decode on the worker pool.
	//
	// Parameters:
	//   - imported: the encoded texture
	//
	// Returns:
	//   - *Texture: the pending texture
	//   - error: ErrSceneDisposed on a disposed scene
	AddTexture(imported *common.ImportedTexture) (*Texture, error)

	// Textures returns a copy of the registered textures.
	Textures() []*Texture

	// CreateDefaultEnvironment creates the image-based environment. Idempotent: when an
	// environment exists it is returned unchanged. The gradient texture is generated on the worker pool.
	//
	// Parameters:
	//   - opts: gradient colors and intensity
	//
	// Returns:
	//   - *Environment: the scene environment
	//   - error: ErrSceneDisposed on a disposed scene
	CreateDefaultEnvironment(opts EnvironmentOptions) (*Environment, error)

	// Environment returns the environment, or nil when none was created.
	Environment() *Environment

	// EnvironmentTexture returns the environment texture, or nil when no environment exists.
	EnvironmentTexture() *Texture

	// IsReady reports whether every texture and the environment texture have finished
	// and the scene is not disposed.
	IsReady() bool

	// Disposed reports whether Dispose has been called.
	Disposed() bool

	// Dispose releases nodes, textures, lights and the environment. Safe to call repeatedly.
	Dispose()
}

type scene struct {
	mu *sync.RWMutex

	name       string
	clearColor common.Color

	cam    camera.Camera
	roots  []Node
	lights []light.Light

	textures    []*Texture
	environment *Environment

	pool     worker.DynamicWorkerPool
	ownsPool bool
	workers  int
	taskID   int
	logger   *slog.Logger
	disposed bool
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new empty Scene.
// When no worker pool is supplied through WithWorkerPool, the scene creates its own
// sized to runtime.NumCPU()-1 and stops it on Dispose.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:         &sync.RWMutex{},
		name:       name,
		clearColor: common.Color{R: 1, G: 1, B: 1, A: 1},
		workers:    max(runtime.NumCPU()-1, 1),
		logger:     slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.pool == nil {
		// Queue size of 256 accommodates texture-heavy assets with headroom.
		s.pool = worker.NewDynamicWorkerPool(s.workers, 256, 1*time.Second)
		s.ownsPool = true
	}

	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) ClearColor() common.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clearColor
}

func (s *scene) SetClearColor(c common.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearColor = c
}

func (s *scene) ActiveCamera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetActiveCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) AddNode(n Node) {
	if n == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.roots = append(s.roots, n)
}

func (s *scene) RemoveNode(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.roots {
		if r == n {
			s.roots = append(s.roots[:i], s.roots[i+1:]...)
			return
		}
	}
}

func (s *scene) RootNodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Node(nil), s.roots...)
}

func (s *scene) MeshNodes() []Node {
	var out []Node
	for _, r := range s.RootNodes() {
		for _, n := range append([]Node{r}, r.Descendants()...) {
			if n.Mesh() != nil {
				out = append(out, n)
			}
		}
	}
	return out
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]light.Light(nil), s.lights...)
}

func (s *scene) AddTexture(imported *common.ImportedTexture) (*Texture, error) {
	if imported == nil {
		return nil, common.ErrNilTexture
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrSceneDisposed
	}
	tex := newTexture(imported.Name, imported.Sampler)
	s.textures = append(s.textures, tex)
	s.mu.Unlock()

	s.submit(func() {
		var img *image.RGBA
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("texture decode panicked: %v", r)
			}
			if err != nil {
				s.logger.Warn("texture decode failed", "texture", imported.Name, "err", err)
			}
			tex.complete(img, err)
		}()
		img, err = imported.Decode()
	})
	return tex, nil
}

func (s *scene) Textures() []*Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Texture(nil), s.textures...)
}

func (s *scene) CreateDefaultEnvironment(opts EnvironmentOptions) (*Environment, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil, ErrSceneDisposed
	}
	if s.environment != nil {
		env := s.environment
		s.mu.Unlock()
		return env, nil
	}
	env := &Environment{
		texture:   newTexture(s.name+"_environment", environmentSampler()),
		intensity: opts.Intensity,
	}
	s.environment = env
	s.mu.Unlock()

	s.submit(func() {
		var img *image.RGBA
		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("environment generation panicked: %v", r)
			}
			if err != nil {
				s.logger.Warn("environment generation failed", "scene", s.name, "err", err)
			}
			env.texture.complete(img, err)
		}()
		img = generateEnvironment(opts)
	})
	return env, nil
}

func (s *scene) Environment() *Environment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.environment
}

func (s *scene) EnvironmentTexture() *Texture {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.environment == nil {
		return nil
	}
	return s.environment.texture
}

func (s *scene) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return false
	}
	if s.environment != nil && !s.environment.texture.IsReady() {
		return false
	}
	for _, t := range s.textures {
		if !t.IsReady() {
			return false
		}
	}
	return true
}

func (s *scene) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

func (s *scene) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.roots = nil
	s.lights = nil
	s.textures = nil
	s.environment = nil
	s.cam = nil
	pool, owns := s.pool, s.ownsPool
	s.mu.Unlock()

	if owns {
		pool.Stop()
	}
}

// submit runs fn on the worker pool. Panics inside fn are recovered and logged so a
// malformed resource cannot take down a shared worker.
func (s *scene) submit(fn func()) {
	s.mu.Lock()
	s.taskID++
	id := s.taskID
	pool := s.pool
	s.mu.Unlock()

	pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("scene task panicked", "scene", s.name, "task", id, "panic", fmt.Sprint(r))
				}
			}()
			fn()
			return nil, nil
		},
	})
}
