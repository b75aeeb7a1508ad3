package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/scheduler"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh forecasts for configured entities on a cron schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			entities := a.cfg.WatchEntities()
			if len(entities) == 0 {
				// Fall back to every entity with imported history.
				if entities, err = a.store.Entities(cmd.Context()); err != nil {
					return err
				}
			}
			if len(entities) == 0 {
				return fmt.Errorf("no entities configured for watch")
			}

			textfile := ""
			if a.cfg.Metrics.Textfile != "" {
				textfile = resolve(a.root, a.cfg.Metrics.Textfile)
			}
			runner := scheduler.New(a.service(), a.cfg, a.metrics, a.log, scheduler.Options{
				Entities:    entities,
				HorizonDays: a.cfg.Forecast.HorizonDays,
				OutputDir:   resolve(a.root, a.cfg.Schedule.OutputDir),
				Textfile:    textfile,
				Commit:      a.cfg.Schedule.Commit,
				RepoRoot:    a.root,
			})

			if once {
				written, err := runner.RunOnce(cmd.Context())
				for _, path := range written {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				}
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runner.Start(ctx, a.cfg.Schedule.Cron)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run one refresh and exit")

	return cmd
}
