package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		priority string
		meta     string
	)
	cmd := &cobra.Command{
		Use:   "add URL...",
		Short: "Add URLs to an intake queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw json.RawMessage
			if meta != "" {
				raw = json.RawMessage(meta)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				for _, u := range args {
					if err := a.frontier.Add(ctx, u, priority, raw); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d url(s) to %s\n", len(args), priority)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "normal", "priority tier")
	cmd.Flags().StringVar(&meta, "meta", "", "JSON metadata stored with each URL")
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Take the next due URL and print it as JSON (null when none is ready)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				item, ok, err := a.frontier.Get(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return printJSON(cmd.OutOrStdout(), nil)
				}
				return printJSON(cmd.OutOrStdout(), item)
			})
		},
	}
}

func newPromoteCmd(opts *rootOptions) *cobra.Command {
	var (
		tier  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Promote intake items into backend queues once, without a worker loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				promoted := 0
				for i := 0; i < limit; i++ {
					t := tier
					if t == "" {
						t = a.frontier.SelectTier()
					}
					ok, err := a.frontier.PromoteOnce(ctx, t)
					if err != nil {
						return err
					}
					if !ok && tier != "" {
						break
					}
					if ok {
						promoted++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "promoted %d item(s)\n", promoted)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&tier, "tier", "t", "", "promote only from this tier")
	cmd.Flags().IntVarP(&limit, "max", "n", 1, "maximum promotion attempts")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
