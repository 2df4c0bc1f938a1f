// Package cli wires the cobra command tree for the cmdsense binary.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdsense/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd builds the container and wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "cmdsense",
		Short: "cmdsense - context-aware shell command suggestions",
		Long: "cmdsense serves semantic command suggestions over a local HTTP API,\n" +
			"backed by a vector index built from your shell history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(container))
	root.AddCommand(newIndexCommand(container))
	root.AddCommand(newCheckCommand(container))
	root.AddCommand(newFixCommand(container))
	root.AddCommand(newHistoryCommand(container))
	return root, nil
}
