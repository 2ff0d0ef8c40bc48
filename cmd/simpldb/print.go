package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sakachris/simpldb/internal/engine"
)

// printResult renders one statement's result the way a psql-style client
// would: a tab-aligned grid for SELECT, a one-line status otherwise.
func printResult(res *engine.ExecResult) {
	if !res.Success {
		fmt.Fprintln(os.Stderr, "error:", res.Message)
		return
	}
	if res.Columns == nil {
		switch {
		case res.RowID != 0:
			fmt.Printf("OK (row id %d)\n", res.RowID)
		default:
			fmt.Printf("OK, %s\n", res.Message)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, col := range res.Columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
	for _, row := range res.Rows {
		for i, col := range res.Columns {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, row[col].Render())
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	fmt.Printf("(%d rows)\n", len(res.Rows))
}
