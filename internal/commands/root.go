package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/buildinfo"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	repo       string
	configPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "cashflow",
		Short:   "Deterministic cash-flow forecasting for small businesses",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.repo, "repo", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default <repo>/cashflow.yaml)")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(opts),
		newForecastCommand(opts),
		newRecurringCommand(opts),
		newPatternsCommand(opts),
		newWatchCommand(opts),
		newRunsCommand(opts),
	)

	return rootCmd
}
