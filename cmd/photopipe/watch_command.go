package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-photopipe/internal/logging"
	"github.com/askiada/go-photopipe/internal/watch"
	"github.com/askiada/go-photopipe/pkg/pipeline/model"
)

func newWatchCommand(root *rootFlags) *cobra.Command {
	var (
		colorTransfer bool
		cores         int
		settle        = watch.DefaultSettle
	)

	cmd := &cobra.Command{
		Use:   "watch <input dir> <output dir>",
		Short: "Process every image created under a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := model.NewConfig()
			cfg.Input, cfg.Output = args[0], args[1]
			cfg.AutoResize = true
			cfg.ColorTransfer = colorTransfer
			cfg.Cores = cores

			pipe, err := newPipeline(cmd, cfg, root.debug, "")
			if err != nil {
				return err
			}

			w, err := watch.New(pipe, cfg,
				watch.WithLogger(logging.New(cmd.OutOrStdout(), root.debug)),
				watch.WithSettle(settle),
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s, press Ctrl+C to stop\n", cfg.Input)
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&colorTransfer, "color-transfer", false, "Transfer the original colors to the result")
	cmd.Flags().IntVar(&cores, "n-cores", 1, "Frames processed concurrently for GIFs and videos")
	cmd.Flags().DurationVar(&settle, "settle", watch.DefaultSettle, "How long a new file must stay untouched before it is processed")

	return cmd
}
