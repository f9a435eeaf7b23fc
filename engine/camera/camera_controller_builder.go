package camera

// ArcRotateControllerOption is a functional option for configuring an ArcRotateController.
type ArcRotateControllerOption func(*arcRotateControllerImpl)

// WithAlpha sets the initial azimuth around the Y axis.
//
// Parameters:
//   - alpha: azimuth in radians
//
// Returns:
//   - ArcRotateControllerOption: functional option to set alpha
func WithAlpha(alpha float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.alpha = alpha
	}
}

// WithBeta sets the initial polar angle from +Y.
//
// Parameters:
//   - beta: polar angle in radians (0 looks straight down)
//
// Returns:
//   - ArcRotateControllerOption: functional option to set beta
func WithBeta(beta float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.beta = beta
	}
}

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - ArcRotateControllerOption: functional option to set the radius
func WithRadius(radius float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.radius = radius
	}
}

// WithTarget sets the orbit pivot.
//
// Parameters:
//   - x: X coordinate of the target
//   - y: Y coordinate of the target
//   - z: Z coordinate of the target
//
// Returns:
//   - ArcRotateControllerOption: functional option to set the target position
func WithTarget(x, y, z float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.target = [3]float32{x, y, z}
	}
}

// WithLowerRadiusLimit activates a minimum orbit radius.
func WithLowerRadiusLimit(limit float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.lowerRadiusLimit = limit
		cc.hasLowerRadiusLimit = true
	}
}

// WithUpperRadiusLimit activates a maximum orbit radius.
func WithUpperRadiusLimit(limit float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.upperRadiusLimit = limit
		cc.hasUpperRadiusLimit = true
	}
}

// WithWheelPrecision sets the wheel divisor.
//
// Parameters:
//   - precision: divisor applied to wheel deltas; higher zooms slower
//
// Returns:
//   - ArcRotateControllerOption: functional option to set the wheel precision
func WithWheelPrecision(precision float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		if precision > 0 {
			cc.wheelPrecision = precision
		}
	}
}

// WithPanningSensibility sets the pan divisor.
func WithPanningSensibility(sensibility float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		if sensibility > 0 {
			cc.panningSensibility = sensibility
		}
	}
}

// WithAngularSensibility sets the orbit divisor applied to pointer drags.
func WithAngularSensibility(sensibility float32) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		if sensibility > 0 {
			cc.angularSensibility = sensibility
		}
	}
}

// WithInputAttached sets whether user input is applied from the start.
func WithInputAttached(attached bool) ArcRotateControllerOption {
	return func(cc *arcRotateControllerImpl) {
		cc.inputAttached = attached
	}
}
