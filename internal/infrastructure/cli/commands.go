package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/cmdsense/internal/app"
	"github.com/doeshing/cmdsense/internal/domain"
)

func newServeCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the suggestion API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer container.Close()
			return container.Server.ListenAndServe(ctx)
		},
	}
}

func newIndexCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and inspect the vector index",
	}
	cmd.AddCommand(newIndexBuildCommand(container))
	cmd.AddCommand(newIndexStatsCommand(container))
	return cmd
}

func newIndexBuildCommand(container *app.Container) *cobra.Command {
	var (
		historyFile string
		limit       int
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild the index from stored history",
		Long: "Rebuild the vector index from the history database. With\n" +
			"--history-file, that shell history file is imported first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer container.Close()

			if historyFile != "" {
				path := historyFile
				if strings.HasPrefix(path, "~/") {
					if home, err := os.UserHomeDir(); err == nil {
						path = filepath.Join(home, path[2:])
					}
				}
				n, err := container.HistoryStore.ImportFile(path, "import")
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d commands from %s\n", n, path)
			}

			commands, err := container.HistoryStore.Commands(limit)
			if err != nil {
				return err
			}
			if len(commands) == 0 {
				return fmt.Errorf("history is empty; import a history file with --history-file")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Embedding %d commands via %s...\n",
				len(commands), container.Config.Embedding.Model)
			stats, err := container.Engine.Rebuild(cmd.Context(), commands, "history")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index built: %d commands, dimension %d\n",
				stats.NumCommands, stats.Dimension)
			fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", container.Config.Index.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&historyFile, "history-file", "", "shell history file to import before building")
	cmd.Flags().IntVar(&limit, "limit", 0, "index at most N distinct commands (0 = all)")
	return cmd
}

func newIndexStatsCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print index and engine statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer container.Close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(container.Engine.Stats())
		},
	}
}

func newCheckCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "check COMMAND...",
		Short: "Classify a command's safety level",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer container.Close()
			command := strings.Join(args, " ")
			result := container.SafetyChecker.Classify(command)

			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", levelBadge(result.Level), command)
			if result.Warning != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", result.Warning)
			}
			for _, reason := range result.Reasons {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", reason)
			}
			return nil
		},
	}
}

func newFixCommand(container *app.Container) *cobra.Command {
	var lastCommand string
	cmd := &cobra.Command{
		Use:   "fix \"ERROR MESSAGE\"",
		Short: "Suggest fixes for a shell error message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer container.Close()
			message := strings.Join(args, " ")
			fixes, quick := container.Engine.FixError(message, lastCommand)
			if len(fixes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No known fix for this error.")
				return nil
			}
			if quick != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Quick fix: %s\n\n", quick)
			}
			for _, f := range fixes {
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (confidence %.2f)\n", f.Category, f.Description, f.Confidence)
				for _, candidate := range f.Fixes {
					fmt.Fprintf(cmd.OutOrStdout(), "  $ %s\n", candidate)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lastCommand, "last-command", "", "command that produced the error")
	return cmd
}

func newHistoryCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the command history database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add COMMAND...",
		Short: "Record a command in the history database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			defer container.Close()
			return container.HistoryStore.Append(strings.Join(args, " "), "manual")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "import FILE",
		Short: "Import a shell history file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			defer container.Close()
			n, err := container.HistoryStore.ImportFile(args[0], "import")
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "Imported %d commands\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Print the number of stored history records",
		RunE: func(c *cobra.Command, args []string) error {
			defer container.Close()
			n, err := container.HistoryStore.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), n)
			return nil
		},
	})
	return cmd
}

func levelBadge(level domain.SafetyLevel) string {
	switch level {
	case domain.SafetyDangerous:
		return "DANGEROUS"
	case domain.SafetyWarning:
		return "WARNING"
	default:
		return "SAFE"
	}
}
