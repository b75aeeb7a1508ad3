package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/forecast"
	"github.com/cleared-dev/cashflow/internal/report"
)

func newForecastCommand(opts *rootOptions) *cobra.Command {
	var (
		entity  string
		balance string
		horizon int
		today   string
		csvPath string
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project daily income, expenses and balance for an entity",
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
			if horizon == 0 {
				horizon = a.cfg.Forecast.HorizonDays
			}
			if horizon < 1 {
				return fmt.Errorf("--horizon must be at least 1, got %d", horizon)
			}

			start, err := a.cfg.Balance(entity)
			if err != nil {
				return err
			}
			if balance != "" {
				if start, err = decimal.NewFromString(balance); err != nil {
					return fmt.Errorf("parsing --balance %q: %w", balance, err)
				}
			}

			res, err := a.service().Run(cmd.Context(), forecast.Request{
				Entity:      entity,
				Balance:     start,
				HorizonDays: horizon,
				Today:       day,
			})
			a.writeMetrics()
			if err != nil {
				return err
			}

			if csvPath != "" {
				if err := report.WriteFile(csvPath, res.Days); err != nil {
					return err
				}
			}
			if quiet {
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.RenderTitle(fmt.Sprintf("%s: %d-day forecast from %s", entity, horizon, res.Today.Format(dateFormat))))
			fmt.Fprint(out, report.SummaryLines(res.Summary))
			fmt.Fprintln(out)
			fmt.Fprint(out, report.RenderTable(report.ForecastTable(res.Days)))
			if csvPath != "" {
				fmt.Fprintf(out, "Wrote %s\n", csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity to forecast (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&balance, "balance", "", "current balance (default from config)")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "days to forecast (default from config)")
	cmd.Flags().StringVar(&today, "today", "", "last day of history, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the forecast to this CSV file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress table output")

	return cmd
}

