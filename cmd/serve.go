package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/handlers"
	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/Carmen-Shannon/oxy-shot/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		port     string
		watchDir string
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface and screenshot pipeline",
		Long: `Starts the oxy-shot web interface on the specified port.

Uploaded models are processed one at a time: each is loaded into a fresh
headless scene, framed, and captured at the configured resolution. Progress
is streamed to the page over a websocket, which also accepts camera input for
the live preview.

With --watch, .glb files written to the directory are queued as well and
their screenshots are saved to --out.`,
		Example: `  # Start server on default port 8888
  oxy-shot serve

  # Start server on custom port and watch a drop folder
  oxy-shot serve --port 3000 --watch ./incoming --out ./shots`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("watch") {
				cfg.WatchDir = watchDir
			}
			if cmd.Flags().Changed("out") {
				cfg.OutDir = outDir
			}
			if cfg.WatchDir != "" && cfg.OutDir == "" {
				return errors.New("--out is required with --watch")
			}

			logger := opts.logger
			controller := pipeline.NewController(cfg.ControllerOptions(logger)...)
			handler := handlers.New(controller,
				handlers.WithLogger(logger),
				handlers.WithMaxUploadSize(cfg.MaxUploadSize),
			)

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return controller.Run(ctx)
			})
			g.Go(func() error {
				logger.Info("oxy-shot interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			if cfg.WatchDir != "" {
				w := watch.New(controller, cfg.WatchDir, cfg.OutDir, watch.WithLogger(logger))
				g.Go(func() error {
					return w.Run(ctx)
				})
			}
			g.Go(func() error {
				<-ctx.Done()
				logger.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("Server shutdown failed", "err", err)
					return err
				}
				logger.Info("Server stopped")
				return nil
			})

			err := g.Wait()
			// ends the websocket streams left open after the HTTP server stopped
			controller.Close()
			return err
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&watchDir, "watch", "", "Directory to watch for .glb files")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for screenshots of watched models")

	return cmd
}
