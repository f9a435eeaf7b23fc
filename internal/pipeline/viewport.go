package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-shot/common"
)

const (
	MinWidth      = 100
	MinHeight     = 100
	MaxWidth      = 3840
	MaxHeight     = 2160
	DefaultWidth  = 1920
	DefaultHeight = 1080

	DefaultBackground = "#ffffff"
	DefaultOpacity    = 1.0
)

// ViewportConfig is the background and output resolution applied to a pipeline run.
type ViewportConfig struct {
	Background string  `json:"background" yaml:"background" toml:"background"`
	Opacity    float64 `json:"opacity" yaml:"opacity" toml:"opacity"`
	Width      int     `json:"width" yaml:"width" toml:"width"`
	Height     int     `json:"height" yaml:"height" toml:"height"`
}

// DefaultViewport returns an opaque white background at 1920x1080.
func DefaultViewport() ViewportConfig {
	return ViewportConfig{
		Background: DefaultBackground,
		Opacity:    DefaultOpacity,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
	}
}

// Validate checks the color, opacity and resolution.
// Width and height must be positive and within 100x100 to 3840x2160.
func (v ViewportConfig) Validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: %dx%d: %w", ErrInvalidViewport, v.Width, v.Height, ErrInvalidDimensions)
	}
	if v.Width < MinWidth || v.Width > MaxWidth {
		return fmt.Errorf("%w: width %d outside %d..%d", ErrInvalidViewport, v.Width, MinWidth, MaxWidth)
	}
	if v.Height < MinHeight || v.Height > MaxHeight {
		return fmt.Errorf("%w: height %d outside %d..%d", ErrInvalidViewport, v.Height, MinHeight, MaxHeight)
	}
	if v.Opacity < 0 || v.Opacity > 1 || v.Opacity != v.Opacity {
		return fmt.Errorf("%w: opacity %v outside 0..1", ErrInvalidViewport, v.Opacity)
	}
	if _, err := common.ParseHexColor(v.Background); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidViewport, err)
	}
	return nil
}

// ClearColor combines the background color with the opacity.
func (v ViewportConfig) ClearColor() (common.Color, error) {
	c, err := common.ParseHexColor(v.Background)
	if err != nil {
		return common.Color{}, err
	}
	return c.WithAlpha(float32(v.Opacity)), nil
}
