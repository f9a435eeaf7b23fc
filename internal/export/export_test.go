package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/engine/render"
	"github.com/Carmen-Shannon/oxy-shot/internal/glbtest"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func readyRecord(name string, size int64, png []byte) pipeline.ModelRecord {
	return pipeline.ModelRecord{
		ID:     name,
		Name:   name,
		Size:   size,
		Status: pipeline.StatusReady,
		Screenshot: &render.Screenshot{
			PNG:        png,
			Width:      2,
			Height:     2,
			CapturedAt: generated,
		},
	}
}

func failedRecord(name string) pipeline.ModelRecord {
	return pipeline.ModelRecord{ID: name, Name: name, Size: 1024, Status: pipeline.StatusFailed, Error: pipeline.ImportFailedMessage}
}

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestScreenshotName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "crate.glb", want: "crate_screenshot.png"},
		{name: "Crate.GLB", want: "Crate_screenshot.png"},
		{name: "my.model.glb", want: "my.model_screenshot.png"},
		{name: "noext", want: "noext_screenshot.png"},
		{name: "scene.gltf", want: "scene.gltf_screenshot.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScreenshotName(tt.name))
		})
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0.00 MB", FormatSize(0))
	assert.Equal(t, "1.00 MB", FormatSize(1024*1024))
	assert.Equal(t, "2.50 MB", FormatSize(5*512*1024))
	assert.Equal(t, "0.01 MB", FormatSize(10*1024))
}

func TestWriteZip(t *testing.T) {
	shot := glbtest.CheckerPNG(2)
	records := []pipeline.ModelRecord{
		readyRecord("crate.glb", 10, shot),
		failedRecord("broken.glb"),
		{ID: "q", Name: "queued.glb", Status: pipeline.StatusQueued},
		readyRecord("crate.glb", 12, shot),
		readyRecord("barrel.GLB", 20, shot),
	}

	var buf bytes.Buffer
	n, err := WriteZip(&buf, records)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, shot, data)
	}
	assert.Equal(t, []string{"crate_screenshot.png", "crate_1_screenshot.png", "barrel_screenshot.png"}, names)
}

func TestWriteZipNamesNeverCollide(t *testing.T) {
	shot := glbtest.CheckerPNG(2)
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "suffixed name uploaded after duplicates",
			files: []string{"a.glb", "a.glb", "a_1.glb"},
			want:  []string{"a_screenshot.png", "a_1_screenshot.png", "a_1_1_screenshot.png"},
		},
		{
			name:  "suffixed name uploaded first",
			files: []string{"a_1.glb", "a.glb", "a.glb", "a.glb"},
			want:  []string{"a_1_screenshot.png", "a_screenshot.png", "a_2_screenshot.png", "a_3_screenshot.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]pipeline.ModelRecord, 0, len(tt.files))
			for _, f := range tt.files {
				records = append(records, readyRecord(f, 1, shot))
			}
			var buf bytes.Buffer
			n, err := WriteZip(&buf, records)
			require.NoError(t, err)
			assert.Equal(t, len(tt.files), n)

			zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			require.NoError(t, err)
			var names []string
			for _, f := range zr.File {
				names = append(names, f.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestWriteZipEmpty(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteZip(&buf, []pipeline.ModelRecord{failedRecord("a.glb")})
	require.NoError(t, err)
	assert.Zero(t, n)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}

func TestWriteHTMLReport(t *testing.T) {
	shot := glbtest.CheckerPNG(2)
	records := []pipeline.ModelRecord{
		readyRecord("crate.glb", 3*1024*1024/2, shot),
		failedRecord("<broken>.glb"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHTMLReport(&buf, records, generated))
	html := buf.String()

	assert.Contains(t, html, "<title>3D Models Report</title>")
	assert.Contains(t, html, "Generated on 3/5/2024, 2:07:09 PM")
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, "1.50 MB")
	assert.Contains(t, html, "0.00 MB")
	assert.Equal(t, 1, strings.Count(html, `class="no-screenshot"`))
	assert.Contains(t, html, NoPreviewText)
	assert.Contains(t, html, "&lt;broken&gt;.glb")
	assert.NotContains(t, html, "<broken>")
	assert.Contains(t, html, `onclick="window.print()"`)
	assert.Contains(t, html, "Save as PDF")
	assert.Contains(t, html, "@media print")
	assert.Equal(t, 2, strings.Count(html, `class="model-card"`))
}

func TestWritePDFReport(t *testing.T) {
	records := []pipeline.ModelRecord{
		readyRecord("large.glb", 2048, solidPNG(t, 1920, 1080)),
		failedRecord("broken.glb"),
		readyRecord("a-model-with-a-name-long-enough-to-need-shortening-in-the-card.glb", 10, solidPNG(t, 100, 300)),
		readyRecord("corrupt.glb", 10, []byte("not a png")),
	}
	for i := 0; i < 12; i++ {
		records = append(records, readyRecord("small.glb", 1, glbtest.CheckerPNG(4)))
	}

	var buf bytes.Buffer
	require.NoError(t, WritePDFReport(&buf, records, generated))
	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "%%EOF")
	assert.GreaterOrEqual(t, bytes.Count(out, []byte("/Type /Page\n")), 2)
}

func TestThumbnail(t *testing.T) {
	img, err := thumbnail(solidPNG(t, 1920, 1080), thumbnailWidth)
	require.NoError(t, err)
	assert.Equal(t, thumbnailWidth, img.Bounds().Dx())
	assert.Equal(t, 270, img.Bounds().Dy())

	small, err := thumbnail(solidPNG(t, 64, 32), thumbnailWidth)
	require.NoError(t, err)
	assert.Equal(t, 64, small.Bounds().Dx())

	_, err = thumbnail([]byte("nope"), thumbnailWidth)
	assert.Error(t, err)
}
