package cmd

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/url-frontier/internal/seed"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		priority string
		htmlBase string
	)
	cmd := &cobra.Command{
		Use:   "seed [FILE]",
		Short: "Add URLs from a newline list, or the links of an HTML page with --html-base",
		Long: `Reads FILE (or stdin when FILE is omitted or "-"). By default every
non-blank line that does not start with # is a URL. With --html-base the input
is parsed as HTML and every absolute http(s) link is added, resolving relative
links against the given base URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			urls, err := readSeed(in, htmlBase)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := seed.Load(ctx, a.frontier, urls, priority, a.logger.Named("seed"))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d, rejected %d\n", res.Added, res.Rejected)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "normal", "priority tier")
	cmd.Flags().StringVar(&htmlBase, "html-base", "", "treat input as HTML and resolve links against this URL")
	return cmd
}

func readSeed(in io.Reader, htmlBase string) ([]string, error) {
	if htmlBase == "" {
		return seed.ReadList(in)
	}
	base, err := url.Parse(htmlBase)
	if err != nil {
		return nil, fmt.Errorf("parse --html-base: %w", err)
	}
	return seed.ExtractLinks(base, in)
}
