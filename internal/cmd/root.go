// Package cmd provides the command-line interface for the URL frontier.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type rootOptions struct {
	cfgFile string
}

// SetVersionInfo sets version information for the CLI.
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
}

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "frontier",
		Short: "A shared, polite URL frontier for distributed crawlers",
		Long: `frontier keeps per-priority intake queues, per-host backend queues and a
readiness heap in a shared store so that many crawler processes can agree on
which URL to fetch next without hitting any host faster than its crawl delay.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	root.AddCommand(
		newServeCmd(opts),
		newWorkerCmd(opts),
		newAddCmd(opts),
		newGetCmd(opts),
		newPromoteCmd(opts),
		newSeedCmd(opts),
		newDelayCmd(opts),
		newHeapCmd(opts),
		newBackendCmd(opts),
		newCountCmd(opts),
		newIntakeCmd(opts),
	)
	return root
}

// withApp builds the app for a command and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, opts.cfgFile)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
