package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/report"
	"github.com/cleared-dev/cashflow/internal/runlog"
)

func newRunsCommand(opts *rootOptions) *cobra.Command {
	var entity string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List scheduled forecast runs from the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			entries, err := runlog.Read(resolve(a.root, a.cfg.Schedule.OutputDir))
			if err != nil {
				return err
			}
			var shown []runlog.Entry
			for _, e := range entries {
				if entity == "" || e.Entity == entity {
					shown = append(shown, e)
				}
			}
			if limit > 0 && len(shown) > limit {
				shown = shown[len(shown)-limit:]
			}

			out := cmd.OutOrStdout()
			if len(shown) == 0 {
				fmt.Fprintln(out, "No forecast runs recorded")
				return nil
			}

			t := report.Table{
				Title:   "Forecast runs",
				Headers: []string{"Ran", "Entity", "From", "Days", "End balance", "Lowest", "Shortfall", "File"},
			}
			for _, e := range shown {
				shortfall := "-"
				if e.Shortfall != nil {
					shortfall = e.Shortfall.Format(dateFormat)
				}
				t.Rows = append(t.Rows, []string{
					e.Timestamp.Format("2006-01-02 15:04"),
					e.Entity,
					e.Today.Format(dateFormat),
					strconv.Itoa(e.HorizonDays),
					report.FormatMoney(e.EndBalance),
					report.FormatMoney(e.LowestBalance),
					shortfall,
					e.File,
				})
			}
			fmt.Fprint(out, report.RenderTable(t))
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "only show runs for this entity")
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many recent runs, 0 for all")

	return cmd
}
