package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/pattern"
	"github.com/cleared-dev/cashflow/internal/recurring"
	"github.com/cleared-dev/cashflow/internal/report"
)

func newRecurringCommand(opts *rootOptions) *cobra.Command {
	var entity, today string

	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "List recurring transactions detected in an entity's history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			day, err := parseToday(today)
			if err != nil {
				return err
			}
			txns, err := a.history(cmd.Context(), entity, day)
			if err != nil {
				return err
			}

			items := recurring.Detect(txns)
			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintf(out, "No recurring transactions in %d transactions\n", len(txns))
				return nil
			}
			fmt.Fprint(out, report.RenderTable(report.RecurringTable(items)))
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity to inspect (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&today, "today", "", "last day of history, YYYY-MM-DD (default today)")

	return cmd
}

func newPatternsCommand(opts *rootOptions) *cobra.Command {
	var entity, today string

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show day-of-week, category and trend statistics for an entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			day, err := parseToday(today)
			if err != nil {
				return err
			}
			txns, err := a.history(cmd.Context(), entity, day)
			if err != nil {
				return err
			}

			analysis, err := pattern.Analyze(txns)
			if err != nil {
				return fmt.Errorf("analyzing %s: %w", entity, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderTitle(entity+": spending patterns"))
			fmt.Fprint(out, report.AnalysisSummary(analysis))
			fmt.Fprintln(out)
			fmt.Fprint(out, report.RenderTable(report.WeekdayTable(analysis)))
			fmt.Fprint(out, report.RenderTable(report.CategoryTable(analysis)))
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity to inspect (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&today, "today", "", "last day of history, YYYY-MM-DD (default today)")

	return cmd
}
