package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ponmo-books/ponmo/internal/importer"
)

func newImportCommand(g *globalFlags) *cobra.Command {
	var format string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Book inventory batch exports from the import directory",
		Long: `Scans import/ for CSV batch exports, records one raw-material purchase per
batch and moves each booked file to import/processed/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := importer.DefaultRegistry()
			parser := reg.Get(format)
			if parser == nil {
				return fmt.Errorf("unknown format %q (available: %s)", format, strings.Join(reg.Formats(), ", "))
			}

			files, err := importer.Scan(g.dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No CSV files in import/")
				return nil
			}

			return withApp(g, func(a *app) error {
				for _, f := range files {
					batches, err := importer.ParseFile(parser, f.Path)
					if err != nil {
						return err
					}
					if dryRun {
						fmt.Fprintf(out, "%s: %d batches\n", f.Name, len(batches))
						continue
					}

					// A failure leaves the file in import/; already booked batches stay posted.
					for _, b := range batches {
						entryID, err := a.accounting.RecordPurchaseFromBatch(cmd.Context(), a.scope, b)
						if err != nil {
							return fmt.Errorf("%s batch %s: %w", f.Name, b.ID, err)
						}
						printRecorded(out, "batch "+b.ID, entryID)
					}
					if _, err := importer.MarkProcessed(g.dir, f.Name); err != nil {
						return err
					}
					a.log.Info("import file booked", zap.String("file", f.Name), zap.Int("batches", len(batches)))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "batches", "export format")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse files without recording")
	return cmd
}
