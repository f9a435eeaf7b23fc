// Package export turns captured records into downloadable artifacts: a zip archive of
// screenshots, an HTML report and a PDF report.
package export

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
)

const (
	// ArchiveName is the download name of the screenshot archive.
	ArchiveName = "model_screenshots.zip"

	// ReportTitle heads both report formats.
	ReportTitle = "3D Models Report"

	// NoPreviewText stands in for a missing screenshot.
	NoPreviewText = "No preview available"

	screenshotSuffix = "_screenshot.png"
	bytesPerMB       = 1024 * 1024
)

// ScreenshotName returns the file name of a model's screenshot: the model name without
// its .glb extension followed by "_screenshot.png".
func ScreenshotName(name string) string {
	return intake.TrimExtension(name) + screenshotSuffix
}

// FormatSize renders a byte count in megabytes with two decimals.
func FormatSize(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/bytesPerMB)
}

// Captured returns the ready records that carry a screenshot, in order.
func Captured(records []pipeline.ModelRecord) []pipeline.ModelRecord {
	out := make([]pipeline.ModelRecord, 0, len(records))
	for _, rec := range records {
		if rec.Status == pipeline.StatusReady && rec.HasScreenshot() {
			out = append(out, rec)
		}
	}
	return out
}

// WriteZip writes one PNG entry per captured record. Queued, loading and failed records
// are skipped. Entries with the same name are suffixed with a counter.
//
// Parameters:
//   - w: the archive destination
//   - records: the batch in intake order
//
// Returns:
//   - int: the number of entries written
//   - error: any write error
func WriteZip(w io.Writer, records []pipeline.ModelRecord) (int, error) {
	zw := zip.NewWriter(w)
	used := make(map[string]int)
	count := 0
	for _, rec := range Captured(records) {
		name := uniqueName(used, ScreenshotName(rec.Name))
		modified := rec.Screenshot.CapturedAt
		if modified.IsZero() {
			modified = time.Now()
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: modified,
		})
		if err != nil {
			return count, fmt.Errorf("failed to add %s: %w", name, err)
		}
		if _, err := entry.Write(rec.Screenshot.PNG); err != nil {
			return count, fmt.Errorf("failed to write %s: %w", name, err)
		}
		count++
	}
	if err := zw.Close(); err != nil {
		return count, fmt.Errorf("failed to finish archive: %w", err)
	}
	return count, nil
}

// uniqueName keeps duplicate model names from overwriting each other in an archive.
// The counter skips suffixed names that are already taken.
func uniqueName(used map[string]int, name string) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	base := strings.TrimSuffix(name, screenshotSuffix)
	for {
		candidate := fmt.Sprintf("%s_%d%s", base, n, screenshotSuffix)
		if used[candidate] == 0 {
			used[candidate] = 1
			used[name] = n + 1
			return candidate
		}
		n++
	}
}
