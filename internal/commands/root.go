package commands

import (
	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/buildinfo"
)

// globalFlags are shared by every command that opens the books.
type globalFlags struct {
	dir   string
	scope string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "ponmo",
		Short:   "Double-entry books for small manufacturers",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "project directory containing ponmo.yaml")
	rootCmd.PersistentFlags().StringVar(&g.scope, "scope", "", "business scope (overrides the config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(),
		newRecordCommand(&g),
		newJournalCommand(&g),
		newReportCommand(&g),
		newCustomerCommand(&g),
		newVendorCommand(&g),
		newImportCommand(&g),
		newServeCommand(&g),
	)

	return rootCmd
}
