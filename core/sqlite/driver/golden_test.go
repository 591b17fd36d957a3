package driver_test

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/driver"
)

// goldenCase is a query whose rendered result must be identical for every
// backend.
type goldenCase struct {
	name  string
	setup string
	args  []any
	query string
	want  string
}

var goldenCases = []goldenCase{
	{
		name:  "basic_integer",
		setup: `CREATE TABLE t (v INTEGER); INSERT INTO t VALUES (42);`,
		query: `SELECT v FROM t`,
		want:  "42",
	},
	{
		name:  "unicode_text",
		setup: `CREATE TABLE t (v TEXT); INSERT INTO t VALUES ('בְּרֵאשִׁית בָּרָא אֱלֹהִים');`,
		query: `SELECT v, length(v) FROM t`,
		want:  "בְּרֵאשִׁית בָּרָא אֱלֹהִים|27",
	},
	{
		name:  "null_handling",
		setup: `CREATE TABLE t (a TEXT, b INTEGER); INSERT INTO t VALUES (NULL, NULL);`,
		query: `SELECT a, b, coalesce(a, 'dflt'), a IS NULL FROM t`,
		want:  "<NULL>|<NULL>|dflt|1",
	},
	{
		name:  "blob_data",
		setup: `CREATE TABLE t (v BLOB); INSERT INTO t VALUES (X'DEADBEEF');`,
		query: `SELECT lower(hex(v)), length(v), typeof(v) FROM t`,
		want:  "deadbeef|4|blob",
	},
	{
		name:  "float_precision",
		setup: `CREATE TABLE t (v REAL); INSERT INTO t VALUES (3.141592653589793);`,
		query: `SELECT printf('%.15f', v), v * 2 FROM t`,
		want:  "3.141592653589793|6.283185307179586",
	},
	{
		name:  "aggregate_sum",
		setup: `CREATE TABLE t (v INTEGER); WITH RECURSIVE n(i) AS (SELECT 1 UNION ALL SELECT i+1 FROM n WHERE i < 100) INSERT INTO t SELECT i FROM n;`,
		query: `SELECT sum(v), count(*), min(v), max(v) FROM t`,
		want:  "5050|100|1|100",
	},
	{
		name:  "string_functions",
		setup: `CREATE TABLE t (v TEXT); INSERT INTO t VALUES ('Hello World');`,
		query: `SELECT upper(v), lower(v), length(v), substr(v, 7), replace(v, 'World', 'There') FROM t`,
		want:  "HELLO WORLD|hello world|11|World|Hello There",
	},
	{
		name:  "multi_row_order",
		setup: `CREATE TABLE t (id INTEGER, v TEXT); INSERT INTO t VALUES (1, 'charlie'), (2, 'alpha'), (3, 'bravo');`,
		query: `SELECT v FROM t ORDER BY v`,
		want:  "alpha,bravo,charlie",
	},
	{
		name:  "bound_parameters",
		setup: `CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT, score REAL);`,
		args:  []any{1000, "Name", 2.5},
		query: `INSERT INTO t VALUES (?, ?, ?) RETURNING id, name, score`,
		want:  "1000|Name|2.5",
	},
	{
		name:  "group_by",
		setup: `CREATE TABLE t (k TEXT, v INTEGER); INSERT INTO t VALUES ('a', 1), ('b', 2), ('a', 3), ('b', 4), ('c', 5);`,
		query: `SELECT k, sum(v) FROM t GROUP BY k ORDER BY k`,
		want:  "a|4,b|6,c|5",
	},
	{
		name: "join",
		setup: `CREATE TABLE u (id INTEGER, name TEXT); CREATE TABLE o (uid INTEGER, total INTEGER);
			INSERT INTO u VALUES (1, 'ada'), (2, 'bob');
			INSERT INTO o VALUES (1, 10), (1, 5), (2, 7);`,
		query: `SELECT u.name, sum(o.total) FROM u JOIN o ON o.uid = u.id GROUP BY u.id ORDER BY u.id`,
		want:  "ada|15,bob|7",
	},
	{
		name:  "integer_limits",
		query: `SELECT 9223372036854775807, -9223372036854775808, 9223372036854775807 + 1.0 > 0`,
		want:  "9223372036854775807|-9223372036854775808|1",
	},
}

// render runs c against db and flattens the result: columns joined by "|",
// rows by ",".
func render(db *sql.DB, c goldenCase) (string, error) {
	if c.setup != "" {
		if _, err := db.Exec(c.setup); err != nil {
			return "", fmt.Errorf("setup: %w", err)
		}
	}
	rows, err := db.Query(c.query, c.args...)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	var out []string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		cells := make([]string, len(vals))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				cells[i] = "<NULL>"
			case []byte:
				cells[i] = string(v)
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		out = append(out, strings.Join(cells, "|"))
	}
	return strings.Join(out, ","), rows.Err()
}

func openGolden(t *testing.T, driverName, file string) *sql.DB {
	t.Helper()
	db, err := sql.Open(driverName, filepath.Join(t.TempDir(), file))
	if err != nil {
		t.Fatalf("sql.Open(%s) failed: %v", driverName, err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGoldenResults(t *testing.T) {
	for _, c := range goldenCases {
		t.Run(c.name, func(t *testing.T) {
			db := openGolden(t, driver.DriverName(), "golden.db")
			got, err := render(db, c)
			if err != nil {
				t.Fatalf("%s: %v", driver.DriverType(), err)
			}
			if got != c.want {
				t.Errorf("%s driver diverged\n  got:  %s\n  want: %s", driver.DriverType(), got, c.want)
			}
		})
	}
}
