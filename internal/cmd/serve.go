package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/url-frontier/internal/delivery/http/handler"
	"github.com/user/url-frontier/internal/delivery/http/router"
	"github.com/user/url-frontier/internal/delivery/http/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP control plane and promotion workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if cmd.Flags().Changed("workers") {
					a.cfg.Workers.Count = workers
				}
				return runServe(ctx, a)
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "promotion workers to start (overrides workers.count)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	a.restoreDelays(ctx)

	pool := a.newPool()
	var opts []handler.Option
	if a.delays != nil {
		opts = append(opts, handler.WithDatabase(a.delays))
	}
	h := handler.NewHandler(a.frontier, a.politeness, pool, a.logger.Named("http"), opts...)
	srv := server.New(a.cfg.Server.Addr(), router.New(h, a.metrics, a.registry, a.logger), a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return pool.Run(gctx, a.cfg.Workers.Count) })

	err := g.Wait()
	a.logger.Info("server exiting", zap.Error(err))
	return err
}
