package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a fresh data directory",
	Long: `Create a fresh data directory with an empty catalog, ready for
CREATE TABLE statements. Fails if the directory already holds a catalog.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if info, err := os.Stat(cfg.DataDir + "/catalog.yaml"); err == nil && !info.IsDir() {
			return fmt.Errorf("%q already has a catalog; refusing to re-initialize", cfg.DataDir)
		}

		e, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		if err := e.Close(); err != nil {
			return err
		}

		fmt.Printf("initialized simpldb data directory: %s (backend: %s)\n", cfg.DataDir, cfg.Backend)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
