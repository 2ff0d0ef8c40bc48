package executor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/schema"
	"github.com/sakachris/simpldb/internal/sqltypes"
	"github.com/sakachris/simpldb/internal/storage"
)

// execSelect implements spec.md §4.5's SELECT contract: index-assisted
// candidate set, optional single JOIN, full WHERE re-check against the
// materialized rows, stable rightmost-to-leftmost ORDER BY (applied before
// projection, so it may name columns outside the select list), projection,
// then OFFSET before LIMIT.
func (e *Executor) execSelect(ctx context.Context, q *parser.Query) *Result {
	lock := e.tableLock(q.Table)
	lock.RLock()
	defer lock.RUnlock()

	sch, execErr := e.requireSchema(q.Table)
	if execErr != nil {
		return errResult(execErr)
	}

	if q.Join != nil && q.Join.Kind == parser.JoinRight {
		return errResult(asExecError(parser.ErrUnsupportedJoin, ErrParse))
	}

	rows, err := e.candidateRows(ctx, q.Table, q.TableAlias, q.Where)
	if err != nil {
		return errResult(asExecError(err, ErrInternal))
	}

	var combined []map[string]sqltypes.Value
	if q.Join != nil {
		combined, execErr = e.applyJoin(ctx, q, rows)
		if execErr != nil {
			return errResult(execErr)
		}
	} else {
		combined = make([]map[string]sqltypes.Value, len(rows))
		for i, r := range rows {
			combined[i] = r.Data
		}
	}

	filtered := combined[:0:0]
	for _, row := range combined {
		ok, evalErr := evaluateConditions(row, q.Where)
		if evalErr != nil {
			return errResult(evalErr)
		}
		if ok {
			filtered = append(filtered, row)
		}
	}

	sortRows(filtered, q.OrderBy)
	projected, cols := project(filtered, q.SelectColumns, sch, q.Join != nil)

	start := 0
	if q.Offset != nil {
		start = *q.Offset
	}
	if start > len(projected) {
		start = len(projected)
	}
	end := len(projected)
	if q.Limit != nil && start+*q.Limit < end {
		end = start + *q.Limit
	}
	page := projected[start:end]

	res := okResult(fmt.Sprintf("%d rows selected", len(page)), len(page))
	res.Rows = page
	res.Columns = cols
	return res
}

// candidateRows resolves the over-approximating candidate row set: the
// first WHERE predicate on an indexed, equality/range-comparable column
// drives an index lookup; otherwise a full scan.
func (e *Executor) candidateRows(ctx context.Context, table, alias string, where []parser.Condition) ([]storage.Row, error) {
	for _, cond := range where {
		col := bareColumn(cond.Column, alias, table)
		idx, ok := e.indexes.GetIndex(table, col)
		if !ok {
			continue
		}
		var ids []int64
		switch cond.Op {
		case parser.OpEQ:
			ids = idx.Search(cond.Value)
		case parser.OpLT:
			ids = idx.RangeSearch(nil, &cond.Value, false, false)
		case parser.OpLTE:
			ids = idx.RangeSearch(nil, &cond.Value, false, true)
		case parser.OpGT:
			ids = idx.RangeSearch(&cond.Value, nil, false, false)
		case parser.OpGTE:
			ids = idx.RangeSearch(&cond.Value, nil, true, false)
		default:
			continue
		}
		return e.fetchRows(ctx, table, ids)
	}
	return e.store.Scan(ctx, table)
}

func (e *Executor) fetchRows(ctx context.Context, table string, ids []int64) ([]storage.Row, error) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	rows := make([]storage.Row, 0, len(ids))
	for _, id := range ids {
		row, ok, err := e.store.Get(ctx, table, id)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// bareColumn strips a recognized "alias." prefix so it can be matched
// against a plain storage column name.
func bareColumn(col, alias, table string) string {
	if dot := strings.IndexByte(col, '.'); dot >= 0 {
		prefix := col[:dot]
		if prefix == alias || prefix == table {
			return col[dot+1:]
		}
	}
	return col
}

// applyJoin materializes the single JOIN clause: for each left-side
// candidate row it scans the joined table for matches, combining rows
// keyed "alias.column" as spec.md §4.5 requires. LEFT JOIN emits the left
// row with nulls for every right-hand column when nothing matches.
func (e *Executor) applyJoin(ctx context.Context, q *parser.Query, left []storage.Row) ([]map[string]sqltypes.Value, *Error) {
	join := q.Join
	rightSchema, ok := e.schemas.Get(join.Table)
	if !ok {
		return nil, newError(ErrNotFound, "joined table %q does not exist", join.Table)
	}
	rightRows, err := e.store.Scan(ctx, join.Table)
	if err != nil {
		return nil, asExecError(err, ErrInternal)
	}

	leftAlias := q.TableAlias
	leftCol := bareColumn(join.LeftCol, leftAlias, q.Table)
	rightCol := bareColumn(join.RightCol, join.Alias, join.Table)

	var out []map[string]sqltypes.Value
	for _, lrow := range left {
		leftVal, hasLeft := lrow.Data[leftCol]
		matched := false
		if hasLeft {
			for _, rrow := range rightRows {
				rightVal, hasRight := rrow.Data[rightCol]
				if !hasRight || !leftVal.Equal(rightVal) {
					continue
				}
				out = append(out, combineRow(q.TableAlias, lrow.Data, join.Alias, rrow.Data))
				matched = true
			}
		}
		if !matched && join.Kind == parser.JoinLeft {
			nulls := make(map[string]sqltypes.Value, len(rightSchema.Columns))
			for _, c := range rightSchema.Columns {
				nulls[c.Name] = sqltypes.Null
			}
			out = append(out, combineRow(q.TableAlias, lrow.Data, join.Alias, nulls))
		}
	}
	return out, nil
}

func combineRow(leftAlias string, left map[string]sqltypes.Value, rightAlias string, right map[string]sqltypes.Value) map[string]sqltypes.Value {
	combined := make(map[string]sqltypes.Value, len(left)+len(right))
	for k, v := range left {
		combined[leftAlias+"."+k] = v
	}
	for k, v := range right {
		combined[rightAlias+"."+k] = v
	}
	return combined
}

// evaluateConditions reports whether row satisfies every (AND-ed)
// condition.
func evaluateConditions(row map[string]sqltypes.Value, conds []parser.Condition) (bool, *Error) {
	for _, cond := range conds {
		v, ok := row[cond.Column]
		if !ok {
			v = sqltypes.Null
		}
		pass, err := evaluateCondition(v, cond)
		if err != nil {
			return false, err
		}
		if !pass {
			return false, nil
		}
	}
	return true, nil
}

func evaluateCondition(v sqltypes.Value, cond parser.Condition) (bool, *Error) {
	switch cond.Op {
	case parser.OpIsNull:
		return v.IsNull(), nil
	case parser.OpIsNotNull:
		return !v.IsNull(), nil
	case parser.OpEQ:
		return !v.IsNull() && v.Equal(cond.Value), nil
	case parser.OpNEQ:
		return v.IsNull() || !v.Equal(cond.Value), nil
	case parser.OpLT:
		return !v.IsNull() && v.Less(cond.Value), nil
	case parser.OpLTE:
		return !v.IsNull() && (v.Less(cond.Value) || v.Equal(cond.Value)), nil
	case parser.OpGT:
		return !v.IsNull() && cond.Value.Less(v), nil
	case parser.OpGTE:
		return !v.IsNull() && (cond.Value.Less(v) || v.Equal(cond.Value)), nil
	case parser.OpLike:
		if v.IsNull() {
			return false, nil
		}
		re, err := likeRegexp(cond.Value.Render())
		if err != nil {
			return false, newError(ErrInternal, "compiling LIKE pattern: %v", err)
		}
		return re.MatchString(v.Render()), nil
	}
	return false, newError(ErrInternal, "unknown WHERE operator %v", cond.Op)
}

// likeRegexp builds a regexp for a LIKE pattern where '%' is the only
// wildcard; every other regex metacharacter in the pattern is escaped, per
// spec.md §9's Open Question decision (closing the original's
// raw-regexp-substitution hazard).
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	segments := strings.Split(pattern, "%")
	for i, s := range segments {
		segments[i] = regexp.QuoteMeta(s)
	}
	return regexp.Compile("^" + strings.Join(segments, ".*") + "$")
}

// project selects and orders the requested columns out of each row. "*"
// keeps every column present in the row: schema order for an unjoined
// select, alphabetical "alias.column" order for a joined one (the combined
// map has no single declared order, so the first result row's keys, sorted,
// stand in for a column list).
func project(rows []map[string]sqltypes.Value, columns []string, sch *schema.Schema, joined bool) ([]map[string]sqltypes.Value, []string) {
	if len(columns) == 1 && columns[0] == "*" {
		if !joined {
			names := sch.ColumnNames()
			out := make([]map[string]sqltypes.Value, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return out, names
		}
		out := make([]map[string]sqltypes.Value, len(rows))
		copy(out, rows)
		cols := []string{}
		if len(rows) > 0 {
			cols = make([]string, 0, len(rows[0]))
			for k := range rows[0] {
				cols = append(cols, k)
			}
			sort.Strings(cols)
		}
		return out, cols
	}

	out := make([]map[string]sqltypes.Value, len(rows))
	for i, row := range rows {
		sel := make(map[string]sqltypes.Value, len(columns))
		for _, col := range columns {
			sel[col] = row[col]
		}
		out[i] = sel
	}
	return out, columns
}

// sortRows applies ORDER BY, stable and rightmost-to-leftmost so the
// leftmost key dominates; null sorts smallest.
func sortRows(rows []map[string]sqltypes.Value, order []parser.OrderTerm) {
	for i := len(order) - 1; i >= 0; i-- {
		term := order[i]
		sort.SliceStable(rows, func(a, b int) bool {
			va, vb := rows[a][term.Column], rows[b][term.Column]
			if term.Desc {
				return vb.Less(va)
			}
			return va.Less(vb)
		})
	}
}
