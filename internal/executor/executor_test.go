package executor

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/sakachris/simpldb/internal/catalog"
	"github.com/sakachris/simpldb/internal/index"
	"github.com/sakachris/simpldb/internal/parser"
	"github.com/sakachris/simpldb/internal/schema"
	"github.com/sakachris/simpldb/internal/storage/memory"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	cat, err := catalog.Open(t.TempDir())
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return New(schema.NewManager(), cat, memory.New(), index.NewManager())
}

func run(t *testing.T, e *Executor, sql string) *Result {
	t.Helper()
	q, err := parser.Parse(sql)
	if err != nil {
		t.Fatalf("parser.Parse(%q): %v", sql, err)
	}
	return e.Execute(context.Background(), q)
}

func requireOK(t *testing.T, res *Result) *Result {
	t.Helper()
	if !res.Success {
		t.Fatalf("expected success, got error: %v", res.Err)
	}
	return res
}

func requireErr(t *testing.T, res *Result, kind ErrKind) *Result {
	t.Helper()
	if res.Success {
		t.Fatalf("expected failure of kind %v, got success", kind)
	}
	if res.Err.Kind != kind {
		t.Fatalf("expected error kind %v, got %v (%s)", kind, res.Err.Kind, res.Err.Message)
	}
	return res
}

func setupUsers(t *testing.T, e *Executor) {
	t.Helper()
	requireOK(t, run(t, e, `CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		name VARCHAR(50) NOT NULL,
		email VARCHAR(100) UNIQUE,
		age INTEGER
	)`))
}

func TestCreateTableThenDescribeViaInsert(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)

	res := requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	if res.RowID == 0 {
		t.Fatalf("expected nonzero row id")
	}
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireErr(t, run(t, e, `CREATE TABLE users (id INTEGER)`), ErrSchemaKind)
}

func TestInsertWithoutColumnListBindsPositionally(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	res := requireOK(t, run(t, e, `INSERT INTO users VALUES (1, 'Ada', 'ada@example.com', 30)`))
	if res.RowID == 0 {
		t.Fatalf("expected nonzero row id")
	}
	sel := requireOK(t, run(t, e, `SELECT * FROM users WHERE id = 1`))
	if len(sel.Rows) != 1 || sel.Rows[0]["name"].Render() != "Ada" {
		t.Fatalf("unexpected row: %+v", sel.Rows)
	}
}

func TestInsertEnforcesUniqueConstraint(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	requireErr(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (2, 'Bea', 'ada@example.com', 31)`), ErrConstraintViolation)
}

func TestInsertEnforcesNotNull(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireErr(t, run(t, e, `INSERT INTO users (id, email, age) VALUES (1, 'ada@example.com', 30)`), ErrConstraintViolation)
}

func TestInsertAggregatesMultipleColumnErrors(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	// name is omitted (NOT_NULL violation) and age is not a valid integer
	// (type error); both must be reported, not just whichever is found first.
	res := requireErr(t, run(t, e, `INSERT INTO users (id, email, age) VALUES (1, 'ada@example.com', 'thirty')`), ErrConstraintViolation)
	if !strings.Contains(res.Message, "name") || !strings.Contains(res.Message, "age") {
		t.Fatalf("expected the aggregated error to mention both bad columns, got: %s", res.Message)
	}
}

func TestSelectFullScanAndProjection(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (2, 'Bea', 'bea@example.com', 25)`))

	res := requireOK(t, run(t, e, `SELECT name, age FROM users WHERE age > 20 ORDER BY age DESC`))
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0]["name"].Render() != "Ada" {
		t.Fatalf("expected Ada first (ORDER BY age DESC), got %v", res.Rows[0]["name"])
	}
}

func TestSelectUsesIndexForEquality(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (2, 'Bea', 'bea@example.com', 25)`))

	res := requireOK(t, run(t, e, `SELECT * FROM users WHERE email = 'bea@example.com'`))
	if len(res.Rows) != 1 || res.Rows[0]["name"].Render() != "Bea" {
		t.Fatalf("expected single row for Bea, got %+v", res.Rows)
	}
}

func TestSelectLimitOffset(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	for i := 1; i <= 5; i++ {
		n := strconv.Itoa(i)
		requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (`+n+`, 'N`+n+`', 'n`+n+`@example.com', `+strconv.Itoa(20+i)+`)`))
	}
	res := requireOK(t, run(t, e, `SELECT * FROM users ORDER BY id ASC LIMIT 2 OFFSET 1`))
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	if res.Rows[0]["id"].Render() != "2" {
		t.Fatalf("expected row id=2 first after offset 1, got %v", res.Rows[0]["id"])
	}
}

func TestSelectLike(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada Lovelace', 'ada@example.com', 30)`))
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (2, 'Bea', 'bea@example.com', 25)`))

	res := requireOK(t, run(t, e, `SELECT name FROM users WHERE name LIKE 'Ada%'`))
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row matching LIKE pattern, got %d", len(res.Rows))
	}
}

func TestUpdateAndUniqueCheckExcludesSelf(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))

	res := requireOK(t, run(t, e, `UPDATE users SET email = 'ada@example.com' WHERE id = 1`))
	if res.RowsAffected != 1 {
		t.Fatalf("expected 1 row updated, got %d", res.RowsAffected)
	}
}

func TestUpdateRejectsUniqueViolationAgainstOtherRow(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (2, 'Bea', 'bea@example.com', 25)`))
	requireErr(t, run(t, e, `UPDATE users SET email = 'ada@example.com' WHERE id = 2`), ErrConstraintViolation)
}

func TestDelete(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	res := requireOK(t, run(t, e, `DELETE FROM users WHERE id = 1`))
	if res.RowsAffected != 1 {
		t.Fatalf("expected 1 row deleted, got %d", res.RowsAffected)
	}
	sel := requireOK(t, run(t, e, `SELECT * FROM users`))
	if len(sel.Rows) != 0 {
		t.Fatalf("expected no rows left, got %d", len(sel.Rows))
	}
}

func TestCreateAndDropIndex(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `CREATE INDEX idx_users_age ON users(age)`))
	requireOK(t, run(t, e, `DROP INDEX idx_users_age ON users`))
}

func TestJoinKeyedByAlias(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, title VARCHAR(100))`))
	requireOK(t, run(t, e, `INSERT INTO users (id, name, email, age) VALUES (1, 'Ada', 'ada@example.com', 30)`))
	requireOK(t, run(t, e, `INSERT INTO posts (id, author_id, title) VALUES (1, 1, 'Hello World')`))

	res := requireOK(t, run(t, e, `SELECT u.name, p.title FROM users u INNER JOIN posts p ON u.id = p.author_id`))
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 joined row, got %d", len(res.Rows))
	}
	if res.Rows[0]["u.name"].Render() != "Ada" || res.Rows[0]["p.title"].Render() != "Hello World" {
		t.Fatalf("unexpected joined row: %+v", res.Rows[0])
	}
}

func TestRightJoinIsRejected(t *testing.T) {
	e := newTestExecutor(t)
	setupUsers(t, e)
	requireOK(t, run(t, e, `CREATE TABLE posts (id INTEGER PRIMARY KEY, author_id INTEGER, title VARCHAR(100))`))
	requireErr(t, run(t, e, `SELECT * FROM users u RIGHT JOIN posts p ON u.id = p.author_id`), ErrParse)
}

func TestSelectFromMissingTable(t *testing.T) {
	e := newTestExecutor(t)
	requireErr(t, run(t, e, `SELECT * FROM ghosts`), ErrNotFound)
}
