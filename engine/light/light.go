package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-shot/common"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeHemispheric represents an ambient sky/ground light. Surfaces facing the
	// light direction receive the sky color, surfaces facing away receive the ground color,
	// and everything in between is blended by the normal.
	LightTypeHemispheric LightType = iota

	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun. No distance attenuation.
	LightTypeDirectional
)

func (t LightType) String() string {
	switch t {
	case LightTypeHemispheric:
		return "hemispheric"
	case LightTypeDirectional:
		return "directional"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu sync.RWMutex

	name        string
	lightType   LightType
	direction   [3]float32
	color       [3]float32
	groundColor [3]float32
	intensity   float32
	enabled     bool
}

// Light defines the interface for a light source in the scene.
//
// Lights are evaluated per face by the software rasterizer. Type-specific
// properties (ground color for hemispheric lights) return zero values when not applicable.
type Light interface {
	// Name returns the light's identifier.
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Direction returns the normalized direction of the light.
	// For hemispheric lights this points toward the sky. For directional lights
	// this is the direction the light travels.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB diffuse color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// GroundColor returns the color applied to surfaces facing away from a hemispheric light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	GroundColor() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Enabled returns whether this light contributes to rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// Contribution returns the light energy reaching a surface with the given world-space normal.
	//
	// Parameters:
	//   - normal: unit surface normal
	//
	// Returns:
	//   - [3]float32: RGB energy, already scaled by intensity
	Contribution(normal [3]float32) [3]float32

	// SetDirection sets and normalizes the light direction.
	SetDirection(x, y, z float32)

	// SetColor sets the RGB diffuse color.
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetEnabled toggles the light.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light with the specified type and options applied.
// Defaults: white light, black ground, intensity 1, pointing up (0, 1, 0), enabled.
//
// Parameters:
//   - lightType: the kind of light to create
//   - options: a variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new instance of Light configured with the provided options
func NewLight(lightType LightType, options ...LightBuilderOption) Light {
	l := &lightImpl{
		name:      lightType.String(),
		lightType: lightType,
		direction: [3]float32{0, 1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1,
		enabled:   true,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// NewHemisphericLight is a convenience constructor for a hemispheric light.
func NewHemisphericLight(name string, direction [3]float32, options ...LightBuilderOption) Light {
	opts := append([]LightBuilderOption{WithName(name), WithDirection(direction[0], direction[1], direction[2])}, options...)
	return NewLight(LightTypeHemispheric, opts...)
}

func (l *lightImpl) Name() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.name
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) GroundColor() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.groundColor
}

func (l *lightImpl) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *lightImpl) Contribution(normal [3]float32) [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.enabled {
		return [3]float32{}
	}

	switch l.lightType {
	case LightTypeHemispheric:
		// 1 when the normal faces the sky, 0 when it faces the ground
		w := 0.5*common.Dot(normal, l.direction) + 0.5
		return common.Scale(common.Lerp3(l.groundColor, l.color, w), l.intensity)
	case LightTypeDirectional:
		nl := max(-common.Dot(normal, l.direction), 0)
		return common.Scale(l.color, nl*l.intensity)
	default:
		return [3]float32{}
	}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = normalizeDirection(x, y, z)
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// normalizeDirection normalizes a direction, falling back to straight up for zero vectors.
func normalizeDirection(x, y, z float32) [3]float32 {
	d := common.Normalize([3]float32{x, y, z})
	if d == ([3]float32{}) {
		return [3]float32{0, 1, 0}
	}
	return d
}
