package camera

// ArcRotateController defines an orbit camera controller. The camera orbits a target
// on a sphere described by alpha (azimuth around Y), beta (polar angle measured from +Y)
// and radius. Controllers own positional state; the Camera reads from the controller
// and computes matrices.
type ArcRotateController interface {
	arcRotateLimits
	arcRotateInput

	// Position returns the camera's world-space position derived from the spherical coordinates.
	//
	// Returns:
	//   - [3]float32: world-space camera position
	Position() [3]float32

	// Target returns the orbit pivot.
	//
	// Returns:
	//   - [3]float32: world-space target position
	Target() [3]float32

	// SetTarget sets the orbit pivot.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target [3]float32)

	// Alpha returns the azimuth around the Y axis in radians.
	Alpha() float32

	// SetAlpha sets the azimuth in radians.
	SetAlpha(alpha float32)

	// Beta returns the polar angle from +Y in radians.
	Beta() float32

	// SetBeta sets the polar angle, clamped to (0.01, π-0.01).
	SetBeta(beta float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius, clamped to the active limits.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)
}

// arcRotateLimits defines the optional radius limits of an orbit controller.
type arcRotateLimits interface {
	// LowerRadiusLimit returns the minimum radius and whether the limit is set.
	//
	// Returns:
	//   - float32: the limit value
	//   - bool: true if a lower limit is active
	LowerRadiusLimit() (float32, bool)

	// SetLowerRadiusLimit activates a minimum radius and clamps the current radius.
	SetLowerRadiusLimit(limit float32)

	// ClearLowerRadiusLimit removes the minimum radius.
	ClearLowerRadiusLimit()

	// UpperRadiusLimit returns the maximum radius and whether the limit is set.
	//
	// Returns:
	//   - float32: the limit value
	//   - bool: true if an upper limit is active
	UpperRadiusLimit() (float32, bool)

	// SetUpperRadiusLimit activates a maximum radius and clamps the current radius.
	SetUpperRadiusLimit(limit float32)

	// ClearUpperRadiusLimit removes the maximum radius.
	ClearUpperRadiusLimit()
}

// arcRotateInput defines pointer, wheel and keyboard handling. Input is ignored
// while detached.
type arcRotateInput interface {
	// AttachInput enables user input.
	AttachInput()

	// DetachInput disables user input.
	DetachInput()

	// InputAttached reports whether user input is applied.
	InputAttached() bool

	// Orbit rotates the camera from a pointer drag.
	//
	// Parameters:
	//   - dx, dy: pointer movement in pixels, divided by the angular sensibility
	Orbit(dx, dy float32)

	// Wheel zooms from a wheel event; positive delta moves toward the target.
	//
	// Parameters:
	//   - delta: wheel delta, divided by the wheel precision
	Wheel(delta float32)

	// Pan translates target and position along the camera plane.
	//
	// Parameters:
	//   - dx, dy: pointer movement in pixels, divided by the panning sensibility
	Pan(dx, dy float32)

	// KeyDown applies a keyboard command (arrows orbit, plus/minus zoom, home resets the orientation).
	//
	// Parameters:
	//   - keyCode: DOM key code
	KeyDown(keyCode uint32)

	// WheelPrecision returns the wheel divisor; higher values zoom slower.
	WheelPrecision() float32

	// SetWheelPrecision sets the wheel divisor. Non-positive values are ignored.
	SetWheelPrecision(precision float32)

	// PanningSensibility returns the pan divisor; higher values pan slower.
	PanningSensibility() float32

	// SetPanningSensibility sets the pan divisor. Non-positive values are ignored.
	SetPanningSensibility(sensibility float32)

	// AngularSensibility returns the orbit divisor; higher values rotate slower.
	AngularSensibility() float32
}
