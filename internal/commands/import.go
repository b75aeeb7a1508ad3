package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/importer"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var entity string
	var format string
	var keep bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import bank CSVs from the import/ inbox into the transaction store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if format == "" {
				format = a.cfg.Format(entity)
			}
			conv, err := a.cfg.SignConvention()
			if err != nil {
				return err
			}
			parser, err := importer.NewFormats(conv).Lookup(format)
			if err != nil {
				return err
			}

			inbox := importer.NewInbox(a.root)
			files, err := inbox.Pending()
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No CSV files in import/")
				return nil
			}

			total := 0
			for _, f := range files {
				txns, err := importer.ParseFile(parser, f.Path)
				if err != nil {
					return err
				}
				n, err := a.store.Insert(cmd.Context(), entity, txns)
				if err != nil {
					return fmt.Errorf("storing %s: %w", f.Name, err)
				}
				a.log.WithFields(logrus.Fields{
					"entity": entity, "file": f.Name, "parsed": len(txns), "inserted": n,
				}).Debug("imported file")
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d transactions, %d new\n", f.Name, len(txns), n)
				total += n

				if !keep {
					if _, err := inbox.Archive(f.Name); err != nil {
						return err
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d new transactions for %s\n", total, entity)
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity the statements belong to (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&format, "format", "", "statement format: chase or generic (default from config)")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave files in import/ instead of moving them to import/processed/")

	return cmd
}
