package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/config"
	"github.com/cleared-dev/cashflow/internal/gitops"
)

func newInitCommand() *cobra.Command {
	var name string
	var entityType string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cashflow project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, name, entityType, git); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized cashflow project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&entityType, "entity-type", "llc_single_member", "entity type")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository and commit forecasts on every watch refresh")

	return cmd
}

func runInit(dir, name, entityType string, git bool) error {
	cfg := config.Default(name, entityType)
	cfg.Schedule.Commit = git

	// Create directory structure.
	dirs := []string{
		"import",
		filepath.Join("import", "processed"),
		cfg.Schedule.OutputDir,
		filepath.Dir(cfg.Store.DSN),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", config.FileName)
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore. Forecasts stay tracked so refreshes can be diffed.
	gitignore := filepath.Dir(cfg.Store.DSN) + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !git {
		return nil
	}
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(dir); err != nil {
			return err
		}
	}
	if _, err := gitops.Commit(dir, "init: "+name, gitops.DefaultAuthor,
		config.FileName, ".gitignore", filepath.Join("import", ".gitkeep")); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	return nil
}
