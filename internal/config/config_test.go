package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "8888", cfg.Port)
	assert.Equal(t, pipeline.DefaultViewport(), cfg.Viewport)
	assert.Equal(t, 300*time.Millisecond, time.Duration(cfg.SettleDelay))
	assert.Equal(t, 100*time.Millisecond, time.Duration(cfg.PollInterval))
	assert.Equal(t, 640, cfg.PreviewWidth)
	assert.Equal(t, 360, cfg.PreviewHeight)
	assert.Equal(t, int64(256<<20), cfg.MaxUploadSize)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "oxy.yaml",
			content: `port: "9000"
settle_delay: 50ms
viewport:
  background: "#112233"
  width: 800
`,
		},
		{
			name: "toml",
			file: "oxy.toml",
			content: `port = "9000"
settle_delay = "50ms"

[viewport]
background = "#112233"
width = 800
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, "9000", cfg.Port)
			assert.Equal(t, 50*time.Millisecond, time.Duration(cfg.SettleDelay))
			assert.Equal(t, "#112233", cfg.Viewport.Background)
			assert.Equal(t, 800, cfg.Viewport.Width)
			// untouched keys keep their defaults
			assert.Equal(t, pipeline.DefaultHeight, cfg.Viewport.Height)
			assert.Equal(t, pipeline.DefaultOpacity, cfg.Viewport.Opacity)
			assert.Equal(t, 100*time.Millisecond, time.Duration(cfg.PollInterval))
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want error
	}{
		{
			name: "unsupported extension",
			path: func(t *testing.T) string { return writeFile(t, "oxy.json", "{}") },
			want: ErrUnsupportedFormat,
		},
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.yaml") },
			want: os.ErrNotExist,
		},
		{
			name: "invalid viewport",
			path: func(t *testing.T) string { return writeFile(t, "oxy.yaml", "viewport:\n  width: 5000\n") },
			want: pipeline.ErrInvalidViewport,
		},
		{
			name: "invalid log level",
			path: func(t *testing.T) string { return writeFile(t, "oxy.yml", "log_level: loud\n") },
			want: ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Load(writeFile(t, "bad.yaml", "settle_delay: soon\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OXYSHOT_PORT", "7000")
	t.Setenv("OXYSHOT_BACKGROUND", "#000000")
	t.Setenv("OXYSHOT_OPACITY", "0.5")
	t.Setenv("OXYSHOT_WIDTH", "640")
	t.Setenv("OXYSHOT_HEIGHT", "480")
	t.Setenv("OXYSHOT_SETTLE_DELAY", "1s")

	path := writeFile(t, "oxy.yaml", "port: \"9000\"\nviewport:\n  width: 800\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, pipeline.ViewportConfig{Background: "#000000", Opacity: 0.5, Width: 640, Height: 480}, cfg.Viewport)
	assert.Equal(t, time.Second, time.Duration(cfg.SettleDelay))
}

func TestEnvOverrideErrors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "OXYSHOT_OPACITY", value: "opaque"},
		{key: "OXYSHOT_WIDTH", value: "wide"},
		{key: "OXYSHOT_SETTLE_DELAY", value: "later"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(func(key string) (string, bool) {
				if key == tt.key {
					return tt.value, true
				}
				return "", false
			})
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestControllerOptions(t *testing.T) {
	cfg := Default()
	cfg.Viewport.Width = 320
	cfg.Viewport.Height = 240

	c := pipeline.NewController(cfg.ControllerOptions(slog.Default())...)
	assert.Equal(t, cfg.Viewport, c.Viewport())
}
