package executor

import "github.com/sakachris/simpldb/internal/sqltypes"

// Result is the Go rendering of spec.md §6's QueryResult.
type Result struct {
	Success      bool
	Message      string
	Columns      []string // projected column order, SELECT only
	Rows         []map[string]sqltypes.Value
	RowsAffected int
	RowID        int64 // set by INSERT
	Err          *Error
}

func okResult(message string, rowsAffected int) *Result {
	return &Result{Success: true, Message: message, RowsAffected: rowsAffected}
}

func errResult(err *Error) *Result {
	return &Result{Success: false, Message: err.Error(), Err: err}
}
