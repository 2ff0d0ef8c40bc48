package parser

import (
	"strconv"
	"strings"

	"github.com/sakachris/simpldb/internal/sqltypes"
)

// Parser is a recursive-descent parser over a Lexer's token stream, holding
// a one-token lookahead buffer.
type Parser struct {
	lex  *Lexer
	cur  Token
	peek Token
}

// Parse parses a single SQL statement (an optional trailing ';' is
// tolerated) into a typed Query.
func Parse(sql string) (*Query, error) {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return nil, &Error{Message: "empty SQL statement"}
	}
	p := &Parser{lex: NewLexer(trimmed)}
	p.advance()
	p.advance()

	var q *Query
	var err error
	switch {
	case p.curIs(CREATE) && p.peekIs(TABLE):
		q, err = p.parseCreateTable()
	case p.curIs(DROP) && p.peekIs(TABLE):
		q, err = p.parseDropTable()
	case p.curIs(CREATE):
		q, err = p.parseCreateIndex()
	case p.curIs(DROP) && p.peekIs(INDEX):
		q, err = p.parseDropIndex()
	case p.curIs(INSERT):
		q, err = p.parseInsert()
	case p.curIs(SELECT):
		q, err = p.parseSelect()
	case p.curIs(UPDATE):
		q, err = p.parseUpdate()
	case p.curIs(DELETE):
		q, err = p.parseDelete()
	default:
		return nil, errf(p.cur.Pos, "unsupported statement starting with %q", p.cur.Value)
	}
	if err != nil {
		return nil, err
	}
	if p.cur.Type != EOF {
		return nil, errf(p.cur.Pos, "unexpected trailing input %q", p.cur.Value)
	}
	q.RawSQL = trimmed
	return q, nil
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.Next()
}

func (p *Parser) curIs(t TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t TokenType) bool { return p.peek.Type == t }

func (p *Parser) expect(t TokenType) (Token, error) {
	if p.cur.Type != t {
		return Token{}, errf(p.cur.Pos, "expected %s, got %q", t, p.cur.Value)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

func (p *Parser) ident() (string, error) {
	if p.cur.Type != IDENT {
		return "", errf(p.cur.Pos, "expected identifier, got %q", p.cur.Value)
	}
	name := p.cur.Value
	p.advance()
	return name, nil
}

// --- CREATE TABLE ---

func (p *Parser) parseCreateTable() (*Query, error) {
	p.advance() // CREATE
	p.advance() // TABLE
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var cols []ColumnDef
	for {
		col, err := p.parseColumnDef()
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
		if p.curIs(COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &Query{Type: CreateTable, Table: name, Columns: cols}, nil
}

func (p *Parser) parseColumnDef() (ColumnDef, error) {
	name, err := p.ident()
	if err != nil {
		return ColumnDef{}, err
	}
	typeName, err := p.ident()
	if err != nil {
		return ColumnDef{}, err
	}
	typ, err := typeFromName(typeName)
	if err != nil {
		return ColumnDef{}, errf(p.cur.Pos, "%v", err)
	}
	col := ColumnDef{Name: name, Type: typ}

	if p.curIs(LPAREN) {
		p.advance()
		lenTok, err := p.expect(INT)
		if err != nil {
			return ColumnDef{}, err
		}
		n, convErr := strconv.Atoi(lenTok.Value)
		if convErr != nil {
			return ColumnDef{}, errf(lenTok.Pos, "invalid length %q", lenTok.Value)
		}
		col.MaxLength = n
		if _, err := p.expect(RPAREN); err != nil {
			return ColumnDef{}, err
		}
	}

	for {
		switch {
		case p.curIs(PRIMARY):
			p.advance()
			if _, err := p.expect(KEY); err != nil {
				return ColumnDef{}, err
			}
			col.Constraints = append(col.Constraints, "PRIMARY_KEY")
		case p.curIs(UNIQUE):
			p.advance()
			col.Constraints = append(col.Constraints, "UNIQUE")
		case p.curIs(NOT):
			p.advance()
			if _, err := p.expect(NULL_); err != nil {
				return ColumnDef{}, err
			}
			col.Constraints = append(col.Constraints, "NOT_NULL")
		case p.curIs(DEFAULT):
			p.advance()
			v, err := p.parseLiteral()
			if err != nil {
				return ColumnDef{}, err
			}
			col.Default = &v
		default:
			return col, nil
		}
	}
}

func typeFromName(name string) (sqltypes.Type, error) {
	t := sqltypes.Type(strings.ToUpper(name))
	if !t.IsValid() {
		return "", errf(0, "unknown column type %q", name)
	}
	return t, nil
}

// --- DROP TABLE ---

func (p *Parser) parseDropTable() (*Query, error) {
	p.advance() // DROP
	p.advance() // TABLE
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	return &Query{Type: DropTable, Table: name}, nil
}

// --- CREATE [UNIQUE] INDEX ---

func (p *Parser) parseCreateIndex() (*Query, error) {
	p.advance() // CREATE
	unique := false
	if p.curIs(UNIQUE) {
		unique = true
		p.advance()
	}
	if _, err := p.expect(INDEX); err != nil {
		return nil, err
	}
	indexName, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ON); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	column, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return &Query{Type: CreateIndex, Table: table, IndexName: indexName, OnColumn: column, Unique: unique}, nil
}

// --- DROP INDEX ---

func (p *Parser) parseDropIndex() (*Query, error) {
	p.advance() // DROP
	p.advance() // INDEX
	indexName, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ON); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, err
	}
	return &Query{Type: DropIndex, Table: table, IndexName: indexName}, nil
}

// --- INSERT ---

func (p *Parser) parseInsert() (*Query, error) {
	p.advance() // INSERT
	if _, err := p.expect(INTO); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, err
	}
	// The column list is optional: "INSERT INTO t VALUES (...)" inserts
	// positionally into every schema column in declaration order.
	var cols []string
	if p.curIs(LPAREN) {
		p.advance()
		for {
			name, err := p.ident()
			if err != nil {
				return nil, err
			}
			cols = append(cols, name)
			if p.curIs(COMMA) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(VALUES); err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	var vals []sqltypes.Value
	for {
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
		if p.curIs(COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if cols != nil && len(cols) != len(vals) {
		return nil, errf(p.cur.Pos, "column count (%d) doesn't match value count (%d)", len(cols), len(vals))
	}
	return &Query{Type: Insert, Table: table, InsertColumns: cols, InsertValues: vals}, nil
}

// --- SELECT ---

func (p *Parser) parseSelect() (*Query, error) {
	p.advance() // SELECT
	var cols []string
	if p.curIs(STAR) {
		p.advance()
		cols = []string{"*"}
	} else {
		for {
			col, err := p.qualifiedName()
			if err != nil {
				return nil, err
			}
			cols = append(cols, col)
			if p.curIs(COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(FROM); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, err
	}

	q := &Query{Type: Select, Table: table, SelectColumns: cols, TableAlias: table}

	if p.curIs(IDENT) {
		// Table alias, e.g. "FROM users u" — consumed whether or not a
		// JOIN follows.
		alias, err := p.ident()
		if err != nil {
			return nil, err
		}
		q.TableAlias = alias
	}

	if p.isJoinStart() {
		join, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q.Join = join
		if p.isJoinStart() {
			return nil, errf(p.cur.Pos, "multiple JOIN clauses are not supported")
		}
	}

	if p.curIs(WHERE) {
		p.advance()
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if p.curIs(ORDER) {
		p.advance()
		if _, err := p.expect(BY); err != nil {
			return nil, err
		}
		order, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		q.OrderBy = order
	}

	if p.curIs(LIMIT) {
		p.advance()
		limTok, err := p.expect(INT)
		if err != nil {
			return nil, err
		}
		n, _ := strconv.Atoi(limTok.Value)
		q.Limit = &n
		if p.curIs(OFFSET) {
			p.advance()
			offTok, err := p.expect(INT)
			if err != nil {
				return nil, err
			}
			m, _ := strconv.Atoi(offTok.Value)
			q.Offset = &m
		}
	}

	return q, nil
}

func (p *Parser) isJoinStart() bool {
	return p.curIs(JOIN) || p.curIs(INNER) || p.curIs(LEFT) || p.curIs(RIGHT)
}

func (p *Parser) parseJoin() (*JoinClause, error) {
	kind := JoinInner
	switch p.cur.Type {
	case INNER:
		p.advance()
	case LEFT:
		kind = JoinLeft
		p.advance()
	case RIGHT:
		kind = JoinRight
		p.advance()
	}
	if _, err := p.expect(JOIN); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, err
	}
	alias := table
	if p.curIs(IDENT) {
		alias, err = p.ident()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(ON); err != nil {
		return nil, err
	}
	left, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EQ); err != nil {
		return nil, err
	}
	right, err := p.qualifiedName()
	if err != nil {
		return nil, err
	}
	return &JoinClause{Kind: kind, Table: table, Alias: alias, LeftCol: left, RightCol: right}, nil
}

// qualifiedName parses "ident" or "ident.ident".
func (p *Parser) qualifiedName() (string, error) {
	name, err := p.ident()
	if err != nil {
		return "", err
	}
	if p.curIs(DOT) {
		p.advance()
		rest, err := p.ident()
		if err != nil {
			return "", err
		}
		return name + "." + rest, nil
	}
	return name, nil
}

// --- UPDATE ---

func (p *Parser) parseUpdate() (*Query, error) {
	p.advance() // UPDATE
	table, err := p.ident()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SET); err != nil {
		return nil, err
	}
	assignments := make(map[string]sqltypes.Value)
	for {
		col, err := p.ident()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(EQ); err != nil {
			return nil, err
		}
		v, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		assignments[col] = v
		if p.curIs(COMMA) {
			p.advance()
			continue
		}
		break
	}
	q := &Query{Type: Update, Table: table, Assignments: assignments}
	if p.curIs(WHERE) {
		p.advance()
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}
	return q, nil
}

// --- DELETE ---

func (p *Parser) parseDelete() (*Query, error) {
	p.advance() // DELETE
	if _, err := p.expect(FROM); err != nil {
		return nil, err
	}
	table, err := p.ident()
	if err != nil {
		return nil, err
	}
	q := &Query{Type: Delete, Table: table}
	if p.curIs(WHERE) {
		p.advance()
		where, err := p.parseWhere()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}
	return q, nil
}

// --- WHERE ---

func (p *Parser) parseWhere() ([]Condition, error) {
	var conds []Condition
	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
		if p.curIs(AND) {
			p.advance()
			continue
		}
		break
	}
	return conds, nil
}

func (p *Parser) parseCondition() (Condition, error) {
	col, err := p.qualifiedName()
	if err != nil {
		return Condition{}, err
	}

	if p.curIs(IS) {
		p.advance()
		if p.curIs(NOT) {
			p.advance()
			if _, err := p.expect(NULL_); err != nil {
				return Condition{}, err
			}
			return Condition{Column: col, Op: OpIsNotNull}, nil
		}
		if _, err := p.expect(NULL_); err != nil {
			return Condition{}, err
		}
		return Condition{Column: col, Op: OpIsNull}, nil
	}

	if p.curIs(LIKE) {
		p.advance()
		v, err := p.parseLiteral()
		if err != nil {
			return Condition{}, err
		}
		return Condition{Column: col, Op: OpLike, Value: v}, nil
	}

	op, err := p.parseCompareOp()
	if err != nil {
		return Condition{}, err
	}
	v, err := p.parseLiteral()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Column: col, Op: op, Value: v}, nil
}

func (p *Parser) parseCompareOp() (Op, error) {
	var op Op
	switch p.cur.Type {
	case EQ:
		op = OpEQ
	case NEQ:
		op = OpNEQ
	case LT:
		op = OpLT
	case LTE:
		op = OpLTE
	case GT:
		op = OpGT
	case GTE:
		op = OpGTE
	default:
		return 0, errf(p.cur.Pos, "expected comparison operator, got %q", p.cur.Value)
	}
	p.advance()
	return op, nil
}

// --- ORDER BY ---

func (p *Parser) parseOrderBy() ([]OrderTerm, error) {
	var terms []OrderTerm
	for {
		col, err := p.qualifiedName()
		if err != nil {
			return nil, err
		}
		desc := false
		switch {
		case p.curIs(ASC):
			p.advance()
		case p.curIs(DESC):
			desc = true
			p.advance()
		}
		terms = append(terms, OrderTerm{Column: col, Desc: desc})
		if p.curIs(COMMA) {
			p.advance()
			continue
		}
		break
	}
	return terms, nil
}

// --- literals ---

func (p *Parser) parseLiteral() (sqltypes.Value, error) {
	tok := p.cur
	switch tok.Type {
	case INT:
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return sqltypes.Null, errf(tok.Pos, "invalid integer literal %q", tok.Value)
		}
		p.advance()
		return sqltypes.NewInt(n), nil
	case FLOAT:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return sqltypes.Null, errf(tok.Pos, "invalid float literal %q", tok.Value)
		}
		p.advance()
		return sqltypes.NewFloat(f), nil
	case STRING:
		p.advance()
		return sqltypes.NewText(tok.Value), nil
	case TRUE_:
		p.advance()
		return sqltypes.NewBool(true), nil
	case FALSE_:
		p.advance()
		return sqltypes.NewBool(false), nil
	case NULL_:
		p.advance()
		return sqltypes.Null, nil
	}
	return sqltypes.Null, errf(tok.Pos, "expected a literal value, got %q", tok.Value)
}
