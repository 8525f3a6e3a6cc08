package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/accounts"
)

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect the chart of accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tCATEGORY")
			for _, a := range accounts.Default().All() {
				name := a.Name
				if a.Contra {
					name += " (contra)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Code, name, a.Type, a.Category)
			}
			return tw.Flush()
		},
	})
	return cmd
}
