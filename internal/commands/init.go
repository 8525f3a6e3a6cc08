package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ponmo-books/ponmo/internal/accounts"
	"github.com/ponmo-books/ponmo/internal/config"
	"github.com/ponmo-books/ponmo/internal/importer"
)

func newInitCommand() *cobra.Command {
	var name string
	var backend string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ponmo project",
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

			if err := runInit(absDir, name, backend); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized ponmo project at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&backend, "backend", config.BackendBolt, "storage backend: bolt, sqlite or memory")

	return cmd
}

func runInit(dir, name, backend string) error {
	for _, d := range []string{"data", "exports", importer.ProcessedDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default(name)
	cfg.Storage.Backend = backend
	if backend == config.BackendSQLite {
		cfg.Storage.Path = "data/ponmo.sqlite"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// The chart is fixed in code; the CSV is a reference copy.
	f, err := os.Create(filepath.Join(dir, "chart-of-accounts.csv"))
	if err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	defer f.Close()
	if err := accounts.WriteAccounts(f, accounts.DefaultChart()); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := "data/\nexports/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return f.Close()
}
