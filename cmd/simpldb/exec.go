package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <sql>",
	Short: "Run one SQL statement against the data directory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sql := strings.Join(args, " ")
		e, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer e.Close()

		res := e.Execute(context.Background(), sql)
		printResult(res)
		if !res.Success {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
