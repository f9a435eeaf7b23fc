package pipeline

import (
	"errors"
	"fmt"
)

const (
	// ImportFailedMessage is shown for assets that could not be loaded.
	ImportFailedMessage = "Failed to load the 3D model. Please ensure the file is a valid GLB file and try again."

	// CaptureFailedMessage is shown when the screenshot could not be produced.
	CaptureFailedMessage = "Failed to create model preview."

	// BootstrapFailedMessage is shown when the rendering context could not be created.
	BootstrapFailedMessage = "Failed to initialize the 3D viewer."
)

var (
	// ErrInvalidViewport is returned for viewport settings outside the supported range.
	ErrInvalidViewport = errors.New("invalid viewport configuration")

	// ErrInvalidDimensions is returned when a capture is requested with a non-positive size.
	ErrInvalidDimensions = errors.New("screenshot dimensions must be positive")

	// ErrSessionDisposed is returned by pipeline steps that observe a disposed session.
	ErrSessionDisposed = errors.New("render session has been disposed")

	// ErrNoActiveSession is returned by operations that need a model being processed.
	ErrNoActiveSession = errors.New("no active render session")
)

// BootstrapError reports a failure to create the rendering context for a model.
type BootstrapError struct {
	Err error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap: %v", e.Err)
}

func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing description of the failure.
func (e *BootstrapError) Message() string {
	return BootstrapFailedMessage
}

// ImportError reports asset bytes that could not be loaded into the scene.
type ImportError struct {
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import: %v", e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing description of the failure.
func (e *ImportError) Message() string {
	return ImportFailedMessage
}

// CaptureError reports a failed render-target capture.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing description of the failure.
func (e *CaptureError) Message() string {
	return CaptureFailedMessage
}

// UserMessage returns the human-readable message recorded on a failed model.
// Errors outside the pipeline taxonomy fall back to their own text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var m interface{ Message() string }
	if errors.As(err, &m) {
		return m.Message()
	}
	return err.Error()
}
