package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/export"
	"github.com/Carmen-Shannon/oxy-shot/internal/intake"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/spf13/cobra"
)

const (
	reportFile    = "models_report.html"
	reportPDFFile = "models_report.pdf"
)

var (
	errNoModels  = errors.New("no .glb files found")
	errAllFailed = errors.New("every model failed")
)

func newCaptureCmd(opts *rootOptions) *cobra.Command {
	var (
		outDir     string
		zipArchive bool
		report     bool
		pdf        bool
		width      int
		height     int
		background string
		opacity    float64
	)

	cmd := &cobra.Command{
		Use:   "capture <path>...",
		Short: "Capture screenshots of models on disk",
		Long: `Runs the screenshot pipeline once over the given files and directories.

Directories are scanned one level deep for .glb files. Each ready model is
written to the output directory as <name>_screenshot.png. The command fails
when no model could be captured.`,
		Example: `  # Capture every model in a directory at 800x600 on a transparent background
  oxy-shot capture ./models --width 800 --height 600 --opacity 0

  # Capture two files and bundle the results
  oxy-shot capture crate.glb barrel.glb --out ./shots --zip --report`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			flags := cmd.Flags()
			if flags.Changed("width") {
				cfg.Viewport.Width = width
			}
			if flags.Changed("height") {
				cfg.Viewport.Height = height
			}
			if flags.Changed("background") {
				cfg.Viewport.Background = background
			}
			if flags.Changed("opacity") {
				cfg.Viewport.Opacity = opacity
			}
			if err := cfg.Viewport.Validate(); err != nil {
				return err
			}

			files, err := intake.ReadPaths(args...)
			if err != nil {
				return err
			}
			files = intake.Filter(files)
			if len(files) == 0 {
				return errNoModels
			}

			records, err := runBatch(cmd.Context(), pipeline.NewController(cfg.ControllerOptions(opts.logger)...), files)
			if err != nil {
				return err
			}
			return writeResults(cmd, records, outputs{
				dir:    outDir,
				zip:    zipArchive,
				report: report,
				pdf:    pdf,
			})
		},
	}

	defaults := pipeline.DefaultViewport()
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Directory for screenshots and exports")
	cmd.Flags().BoolVar(&zipArchive, "zip", false, "Also write "+export.ArchiveName)
	cmd.Flags().BoolVar(&report, "report", false, "Also write "+reportFile)
	cmd.Flags().BoolVar(&pdf, "pdf", false, "Also write "+reportPDFFile)
	cmd.Flags().IntVar(&width, "width", defaults.Width, fmt.Sprintf("Screenshot width (%d-%d)", pipeline.MinWidth, pipeline.MaxWidth))
	cmd.Flags().IntVar(&height, "height", defaults.Height, fmt.Sprintf("Screenshot height (%d-%d)", pipeline.MinHeight, pipeline.MaxHeight))
	cmd.Flags().StringVar(&background, "background", defaults.Background, "Background color as #rrggbb")
	cmd.Flags().Float64Var(&opacity, "opacity", defaults.Opacity, "Background opacity (0-1)")

	return cmd
}

// runBatch processes files to completion and returns the final records.
func runBatch(ctx context.Context, controller *pipeline.Controller, files []intake.File) ([]pipeline.ModelRecord, error) {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- controller.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
		controller.Close()
	}()

	controller.Enqueue(files...)
	if err := controller.WaitIdle(ctx); err != nil {
		return nil, err
	}
	return controller.Records(), nil
}

type outputs struct {
	dir    string
	zip    bool
	report bool
	pdf    bool
}

func writeResults(cmd *cobra.Command, records []pipeline.ModelRecord, out outputs) error {
	if err := os.MkdirAll(out.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	captured := export.Captured(records)
	for _, rec := range captured {
		path := filepath.Join(out.dir, export.ScreenshotName(rec.Name))
		if err := os.WriteFile(path, rec.Screenshot.PNG, 0o644); err != nil {
			return fmt.Errorf("failed to write screenshot: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", rec.Name, path)
	}
	for _, rec := range records {
		if rec.Status == pipeline.StatusFailed {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\tfailed: %s\n", rec.Name, rec.Error)
		}
	}

	now := time.Now()
	if out.zip && len(captured) > 0 {
		if err := writeFile(filepath.Join(out.dir, export.ArchiveName), func(w io.Writer) error {
			_, err := export.WriteZip(w, records)
			return err
		}); err != nil {
			return err
		}
	}
	if out.report {
		if err := writeFile(filepath.Join(out.dir, reportFile), func(w io.Writer) error {
			return export.WriteHTMLReport(w, records, now)
		}); err != nil {
			return err
		}
	}
	if out.pdf {
		if err := writeFile(filepath.Join(out.dir, reportPDFFile), func(w io.Writer) error {
			return export.WritePDFReport(w, records, now)
		}); err != nil {
			return err
		}
	}

	if len(captured) == 0 {
		return fmt.Errorf("%w (%d models)", errAllFailed, len(records))
	}
	return nil
}

// writeFile renders into memory first so a failed export leaves no partial file.
func writeFile(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return fmt.Errorf("failed to build %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
