package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/user/url-frontier/internal/frontier"
)

func newDelayCmd(opts *rootOptions) *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "delay HOST [MILLISECONDS]",
		Short: "Set or clear the crawl delay of a host",
		Args: func(cmd *cobra.Command, args []string) error {
			if unset {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if unset {
				return withApp(cmd, opts, func(ctx context.Context, a *app) error {
					if err := a.politeness.ClearDelay(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "crawl delay of %s cleared\n", args[0])
					return nil
				})
			}
			ms, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid delay %q: %w", args[1], err)
			}
			delay, err := frontier.DelayFromMillis(ms)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.politeness.SetDelay(ctx, args[0], delay); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "crawl delay of %s set to %dms\n", args[0], ms)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "remove the explicit delay so the default applies")
	return cmd
}

func newIntakeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "intake [PRIORITY...]",
		Short: "Print the intake queue length of each priority",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				tiers := args
				if len(tiers) == 0 {
					for _, t := range a.frontier.Config().Tiers {
						tiers = append(tiers, t.Name)
					}
				}
				lengths := make(map[string]int64, len(tiers))
				for _, tier := range tiers {
					n, err := a.frontier.IntakeLen(ctx, tier)
					if err != nil {
						return err
					}
					lengths[tier] = n
				}
				return printJSON(cmd.OutOrStdout(), lengths)
			})
		},
	}
}

func newHeapCmd(opts *rootOptions) *cobra.Command {
	var (
		cursor uint64
		count  int64
	)
	cmd := &cobra.Command{
		Use:   "heap",
		Short: "Scan the host readiness heap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				entries, next, err := a.frontier.Heap(ctx, cursor, count)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"data": entries, "cursor": next})
			})
		},
	}
	cmd.Flags().Uint64Var(&cursor, "cursor", 0, "scan cursor from a previous call")
	cmd.Flags().Int64Var(&count, "count", 10, "entries per page")
	return cmd
}

func newBackendCmd(opts *rootOptions) *cobra.Command {
	var start, stop int64
	cmd := &cobra.Command{
		Use:   "backend HOST",
		Short: "List items queued for a host, most recently promoted first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				items, err := a.frontier.Backend(ctx, args[0], start, stop)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), items)
			})
		},
	}
	cmd.Flags().Int64Var(&start, "start", 0, "first index")
	cmd.Flags().Int64Var(&stop, "stop", -1, "last index, inclusive; negative counts from the end")
	return cmd
}

func newCountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count HOST",
		Short: "Print the number of items queued for a host (null when unknown)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				n, ok, err := a.frontier.HostnameURLCount(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return printJSON(cmd.OutOrStdout(), nil)
				}
				return printJSON(cmd.OutOrStdout(), n)
			})
		},
	}
}
