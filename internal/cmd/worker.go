package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run promotion workers without the HTTP control plane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if cmd.Flags().Changed("workers") {
					a.cfg.Workers.Count = workers
				}
				ctx, stop := signalContext(ctx)
				defer stop()

				a.restoreDelays(ctx)
				return a.newPool().Run(ctx, a.cfg.Workers.Count)
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "promotion workers to start (overrides workers.count)")
	return cmd
}
