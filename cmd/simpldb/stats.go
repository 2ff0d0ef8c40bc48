package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <table>",
	Short: "Show row and index statistics for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.Stats(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("table %s: %d rows\n", s.Table, s.RowCount)
		for _, idx := range s.Indexes {
			unique := ""
			if idx.Unique {
				unique = " (unique)"
			}
			fmt.Printf("  index on %s%s: %d distinct keys, %d entries\n",
				idx.Column, unique, idx.DistinctKeys, idx.TotalEntries)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
