package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakachris/simpldb/internal/config"
)

// dataDirFlag and backendFlag let every subcommand override the resolved
// config without needing a config file on disk, matching the teacher's
// flag-beats-config-beats-default precedence.
var (
	dataDirFlag string
	backendFlag string
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "simpldb",
	Short: "A single-node relational database engine",
	Long: `simpldb is a single-node relational database engine: a SQL front end,
a catalog and schema registry, a B-tree-backed index engine, and a row
storage layer, driven from the command line or embedded as a library.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(".")
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if dataDirFlag != "" {
			loaded.DataDir = dataDirFlag
		}
		if backendFlag != "" {
			loaded.Backend = backendFlag
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (overrides simpldb.yaml / SIMPLDB_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "storage backend: memory or sqlite (overrides simpldb.yaml / SIMPLDB_BACKEND)")
}

// Execute runs the root command, exiting the process on error the way the
// teacher's cmd/bd main does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
