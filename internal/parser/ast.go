package parser

import "github.com/sakachris/simpldb/internal/sqltypes"

// QueryType identifies which statement variant a Query holds.
type QueryType int

const (
	CreateTable QueryType = iota
	DropTable
	CreateIndex
	DropIndex
	Insert
	Select
	Update
	Delete
)

func (q QueryType) String() string {
	switch q {
	case CreateTable:
		return "CREATE_TABLE"
	case DropTable:
		return "DROP_TABLE"
	case CreateIndex:
		return "CREATE_INDEX"
	case DropIndex:
		return "DROP_INDEX"
	case Insert:
		return "INSERT"
	case Select:
		return "SELECT"
	case Update:
		return "UPDATE"
	case Delete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// Op is a WHERE-clause comparison operator.
type Op int

const (
	OpEQ Op = iota
	OpNEQ
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpLike
	OpIsNull
	OpIsNotNull
)

// Condition is one WHERE-clause predicate. Conditions within a Query are
// implicitly AND-ed together (OR is out of scope per spec.md's Non-goals).
type Condition struct {
	Column string
	Op     Op
	Value  sqltypes.Value // zero Value for OpIsNull/OpIsNotNull
}

// JoinKind identifies the kind of JOIN a JoinClause requests.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
)

// JoinClause is the single JOIN a SELECT may carry (spec.md's Open
// Question: multiple joins are a ParseError, so at most one survives
// parsing).
type JoinClause struct {
	Kind     JoinKind
	Table    string
	Alias    string
	LeftCol  string // qualified "alias.column" on the left side of ON
	RightCol string // qualified "alias.column" on the right side of ON
}

// OrderTerm is one ORDER BY column plus direction.
type OrderTerm struct {
	Column string
	Desc   bool
}

// ColumnDef is one column definition inside CREATE TABLE.
type ColumnDef struct {
	Name        string
	Type        sqltypes.Type
	MaxLength   int
	Constraints []string // "PRIMARY_KEY" | "UNIQUE" | "NOT_NULL"
	Default     *sqltypes.Value
}

// Query is the typed AST produced by Parse. Exactly one of the embedded
// statement structs is meaningful, selected by Type.
type Query struct {
	Type   QueryType
	RawSQL string

	// CREATE TABLE / DROP TABLE / INSERT / UPDATE / DELETE / SELECT
	Table string

	// CREATE TABLE
	Columns []ColumnDef

	// CREATE INDEX / DROP INDEX
	IndexName string
	OnColumn  string
	Unique    bool

	// INSERT. InsertColumns is nil when the statement omitted the column
	// list ("INSERT INTO t VALUES (...)"), meaning InsertValues binds
	// positionally to every schema column in declaration order.
	InsertColumns []string
	InsertValues  []sqltypes.Value

	// SELECT
	SelectColumns []string // ["*"] for all
	TableAlias    string   // alias for Table, defaults to Table itself
	Join          *JoinClause
	OrderBy       []OrderTerm
	Limit         *int
	Offset        *int

	// UPDATE
	Assignments map[string]sqltypes.Value

	// SELECT / UPDATE / DELETE
	Where []Condition
}
