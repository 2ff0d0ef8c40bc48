package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive SQL session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEngine(context.Background())
		if err != nil {
			return err
		}
		defer e.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		scanner := bufio.NewScanner(os.Stdin)
		ctx := context.Background()

		var buf strings.Builder
		for {
			if interactive {
				if buf.Len() == 0 {
					fmt.Print("simpldb> ")
				} else {
					fmt.Print("     ..> ")
				}
			}
			if !scanner.Scan() {
				break
			}
			buf.WriteString(scanner.Text())
			buf.WriteString(" ")

			stmt := strings.TrimSpace(buf.String())
			if !strings.HasSuffix(stmt, ";") {
				continue
			}
			stmt = strings.TrimSuffix(stmt, ";")
			buf.Reset()

			if stmt == "" {
				continue
			}
			if stmt == "exit" || stmt == "quit" {
				break
			}
			printResult(e.Execute(ctx, stmt))
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
