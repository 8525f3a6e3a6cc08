package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/docstore"
	"github.com/ponmo-books/ponmo/internal/journal"
)

func newJournalCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List, reverse and export journal entries",
	}
	cmd.AddCommand(
		newJournalListCommand(g),
		newJournalReverseCommand(g),
		newJournalExportCommand(g),
	)
	return cmd
}

type entryFilter struct {
	from, to string
	kind     string
	customer string
	vendor   string
	limit    int
}

func (f *entryFilter) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.kind, "kind", "", "entry kind, e.g. sale")
	cmd.Flags().StringVar(&f.customer, "customer", "", "customer id")
	cmd.Flags().StringVar(&f.vendor, "vendor", "", "vendor id")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum entries (0 = all)")
}

func (f *entryFilter) query() (docstore.Query, error) {
	var q docstore.Query
	from, err := parseDate("from", f.from)
	if err != nil {
		return q, err
	}
	to, err := parseDate("to", f.to)
	if err != nil {
		return q, err
	}
	if !from.IsZero() {
		q.Filters = append(q.Filters, docstore.Gte("date", from))
	}
	if !to.IsZero() {
		q.Filters = append(q.Filters, docstore.Lte("date", to))
	}
	if f.kind != "" {
		q.Filters = append(q.Filters, docstore.Eq("kind", f.kind))
	}
	if f.customer != "" {
		q.Filters = append(q.Filters, docstore.Eq("customer_id", f.customer))
	}
	if f.vendor != "" {
		q.Filters = append(q.Filters, docstore.Eq("vendor_id", f.vendor))
	}
	q.Limit = f.limit
	return q, nil
}

func newJournalListCommand(g *globalFlags) *cobra.Command {
	var f entryFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal entries by date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				entries, err := a.journal.GetAll(cmd.Context(), a.scope, q)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tID\tKIND\tSTATUS\tREFERENCE\tAMOUNT\tDESCRIPTION")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						e.Date.Format(dateLayout), e.ID, e.Kind, e.Status, e.Reference, money(e.TotalDebits), e.Description)
				}
				return tw.Flush()
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newJournalReverseCommand(g *globalFlags) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reverse <entry-id>",
		Short: "Reverse a posted entry with a compensating entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, func(a *app) error {
				reversalID, err := a.journal.ReverseEntry(cmd.Context(), a.scope, args[0], reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reversed %s: entry %s\n", args[0], reversalID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the entry is reversed")
	return cmd
}

func newJournalExportCommand(g *globalFlags) *cobra.Command {
	var f entryFilter
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export journal lines as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			return withApp(g, func(a *app) error {
				entries, err := a.journal.GetAll(cmd.Context(), a.scope, q)
				if err != nil {
					return err
				}
				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					file, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("creating export: %w", err)
					}
					defer file.Close()
					w = file
				}
				return journal.WriteEntries(w, entries)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
