package cmd

import (
	"time"

	"github.com/Carmen-Shannon/oxy-shot/internal/pipeline"
	"github.com/Carmen-Shannon/oxy-shot/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		outDir   string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Capture screenshots of models dropped into a directory",
		Long: `Watches a directory and captures every .glb file created or rewritten in it,
without starting the web interface. Screenshots are written to --out as
<name>_screenshot.png.`,
		Example: `  oxy-shot watch ./incoming --out ./shots`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if cmd.Flags().Changed("out") || cfg.OutDir == "" {
				cfg.OutDir = outDir
			}
			logger := opts.logger
			controller := pipeline.NewController(cfg.ControllerOptions(logger)...)
			w := watch.New(controller, args[0], cfg.OutDir,
				watch.WithLogger(logger),
				watch.WithDebounce(debounce),
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return controller.Run(ctx)
			})
			g.Go(func() error {
				return w.Run(ctx)
			})
			err := g.Wait()
			controller.Close()
			return err
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "screenshots", "Directory for screenshots")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a changed file is read")

	return cmd
}
