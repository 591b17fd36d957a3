package sqlite_test

import (
	"bytes"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

func prepare(t *testing.T, conn *sqlite.Conn, sql string) *sqlite.Stmt {
	t.Helper()
	s, err := conn.Prepare(sql)
	if err != nil {
		t.Fatalf("Prepare(%q) failed: %v", sql, err)
	}
	t.Cleanup(func() { s.Finalize() })
	return s
}

func step(t *testing.T, s *sqlite.Stmt, want sqlite.StepResult) {
	t.Helper()
	got, err := s.Step()
	if err != nil {
		t.Fatalf("Step(%q) failed: %v", s.SQL(), err)
	}
	if got != want {
		t.Fatalf("Step(%q) = %s, want %s", s.SQL(), got, want)
	}
}

func TestSelectConstantRow(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT 10+7 AS A, 'x' AS B")

	if s.ColumnCount() != 2 || s.ParamCount() != 0 {
		t.Fatalf("ColumnCount/ParamCount = %d/%d", s.ColumnCount(), s.ParamCount())
	}
	if got := s.ColumnNames(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("ColumnNames() = %v", got)
	}
	if s.State() != sqlite.StateReady {
		t.Errorf("initial state = %s", s.State())
	}

	step(t, s, sqlite.StepRow)
	if s.State() != sqlite.StateHasRow {
		t.Errorf("state after row = %s", s.State())
	}
	if v, err := s.Int64(0); err != nil || v != 17 {
		t.Errorf("Int64(0) = %d, %v", v, err)
	}
	if v, err := s.Text(1); err != nil || v != "x" {
		t.Errorf("Text(1) = %q, %v", v, err)
	}
	if typ, _ := s.ColumnType(0); typ != sqlite.Integer {
		t.Errorf("ColumnType(0) = %s", typ)
	}
	if typ, _ := s.ColumnType(1); typ != sqlite.Text {
		t.Errorf("ColumnType(1) = %s", typ)
	}

	step(t, s, sqlite.StepDone)
	if s.State() != sqlite.StateReady {
		t.Errorf("state after done = %s, want ready", s.State())
	}
}

func TestInsertReuseWithRebinding(t *testing.T) {
	conn := openMemory(t)
	mustExec(t, conn, "CREATE TABLE users(id INTEGER PRIMARY KEY, name TEXT, email TEXT, note TEXT)")

	ins := prepare(t, conn, "INSERT INTO users VALUES (?, ?, ?, ?)")
	if ins.ParamCount() != 4 || ins.ColumnCount() != 0 {
		t.Fatalf("ParamCount/ColumnCount = %d/%d", ins.ParamCount(), ins.ColumnCount())
	}

	rows := []struct {
		id    int64
		name  string
		email string
	}{
		{1000, "Name", "a@b.com"},
		{1001, "Other", "c@d.org"},
	}
	for _, r := range rows {
		if err := ins.BindInt64(1, r.id); err != nil {
			t.Fatal(err)
		}
		if err := ins.BindText(2, r.name); err != nil {
			t.Fatal(err)
		}
		if err := ins.BindText(3, r.email); err != nil {
			t.Fatal(err)
		}
		if err := ins.BindNull(4); err != nil {
			t.Fatal(err)
		}
		step(t, ins, sqlite.StepDone)
		if err := ins.Reset(); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
	}

	sel := prepare(t, conn, "SELECT id, name, email, note FROM users ORDER BY id")
	var got []int64
	for row, err := range sel.Rows() {
		if err != nil {
			t.Fatal(err)
		}
		id, _ := row.Int64(0)
		got = append(got, id)
		null, err := row.IsNull(3)
		if err != nil || !null {
			t.Errorf("note for %d: IsNull = %v, %v", id, null, err)
		}
		if note, _ := row.Text(3); note != "" {
			t.Errorf("NULL note read as %q", note)
		}
	}
	if !slices.Equal(got, []int64{1000, 1001}) {
		t.Errorf("ids = %v", got)
	}
}

func TestFinalizedStatementIsMisuse(t *testing.T) {
	conn := openMemory(t)
	s, err := conn.Prepare("SELECT 1")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if err := s.Finalize(); err != nil {
		t.Errorf("second Finalize = %v, want nil", err)
	}
	if s.State() != sqlite.StateFinalized {
		t.Errorf("state = %s", s.State())
	}

	checks := map[string]error{
		"step":  func() error { _, err := s.Step(); return err }(),
		"reset": s.Reset(),
		"clear": s.ClearBindings(),
		"bind":  s.BindInt64(1, 1),
		"read":  func() error { _, err := s.Int64(0); return err }(),
	}
	for op, err := range checks {
		if !errors.Is(err, sqlite.CodeMisuse) {
			t.Errorf("%s after Finalize = %v, want misuse", op, err)
		}
	}
	if s.ColumnName(0) != "" {
		t.Error("ColumnName after Finalize should be empty")
	}
	if conn.OpenStatements() != 0 {
		t.Errorf("OpenStatements() = %d", conn.OpenStatements())
	}
}

func TestBindRules(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT ?, ?")

	for _, i := range []int{0, -1, 3} {
		if err := s.BindInt64(i, 1); !errors.Is(err, sqlite.CodeRange) {
			t.Errorf("BindInt64(%d) = %v, want CodeRange", i, err)
		}
	}
	if err := s.BindAll(1, 2, 3); !errors.Is(err, sqlite.CodeRange) {
		t.Errorf("BindAll with 3 args = %v, want CodeRange", err)
	}
	if err := s.BindAny(1, struct{}{}); !errors.Is(err, sqlite.CodeMismatch) {
		t.Errorf("BindAny(struct) = %v, want CodeMismatch", err)
	}

	if err := s.BindAll(7, "seven"); err != nil {
		t.Fatal(err)
	}
	step(t, s, sqlite.StepRow)
	if err := s.BindInt64(1, 8); !errors.Is(err, sqlite.CodeMisuse) {
		t.Errorf("bind while a row is pending = %v, want misuse", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}

	// Bindings survive Reset and are dropped by ClearBindings.
	step(t, s, sqlite.StepRow)
	if v, _ := s.Int64(0); v != 7 {
		t.Errorf("binding after Reset = %d, want 7", v)
	}
	s.Reset()
	if err := s.ClearBindings(); err != nil {
		t.Fatal(err)
	}
	step(t, s, sqlite.StepRow)
	if null, _ := s.IsNull(0); !null {
		t.Error("ClearBindings should leave NULL")
	}
}

func TestBindCopiesBuffers(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT ?")

	buf := []byte("original")
	if err := s.BindBlob(1, buf); err != nil {
		t.Fatal(err)
	}
	copy(buf, "XXXXXXXX")
	step(t, s, sqlite.StepRow)
	got, err := s.Blob(0)
	if err != nil || string(got) != "original" {
		t.Errorf("Blob(0) = %q, %v", got, err)
	}
	got[0] = 'Z'
	again, _ := s.Blob(0)
	if string(again) != "original" {
		t.Error("Blob must return a private copy")
	}
	s.Reset()

	if err := s.BindBlob(1, nil); err != nil {
		t.Fatal(err)
	}
	step(t, s, sqlite.StepRow)
	if typ, _ := s.ColumnType(0); typ != sqlite.Blob {
		t.Errorf("nil blob bound as %s, want BLOB", typ)
	}
}

func TestNamedParameters(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT :a, @b, $c, ?")

	if s.ParamCount() != 4 {
		t.Fatalf("ParamCount = %d", s.ParamCount())
	}
	names := []string{s.ParamName(1), s.ParamName(2), s.ParamName(3), s.ParamName(4), s.ParamName(5)}
	if !slices.Equal(names, []string{":a", "@b", "$c", "", ""}) {
		t.Errorf("ParamName = %q", names)
	}
	for name, want := range map[string]int{"a": 1, ":a": 1, "b": 2, "@b": 2, "$c": 3} {
		if got, err := s.ParamIndex(name); err != nil || got != want {
			t.Errorf("ParamIndex(%q) = %d, %v; want %d", name, got, err, want)
		}
	}
	if _, err := s.ParamIndex("zzz"); !errors.Is(err, sqlite.CodeRange) {
		t.Errorf("ParamIndex(zzz) = %v, want CodeRange", err)
	}

	s.BindNamed("a", 1)
	s.BindNamed("@b", 2.5)
	s.BindNamed("c", "three")
	s.BindBool(4, true)
	step(t, s, sqlite.StepRow)

	row, err := s.Row()
	if err != nil {
		t.Fatal(err)
	}
	want := []sqlite.Value{sqlite.IntValue(1), sqlite.FloatValue(2.5), sqlite.TextValue("three"), sqlite.IntValue(1)}
	if len(row) != len(want) {
		t.Fatalf("Row() = %v", row)
	}
	for i := range want {
		if row[i].Type() != want[i].Type() || row[i].Text() != want[i].Text() {
			t.Errorf("column %d = %s, want %s", i, row[i], want[i])
		}
	}
}

func TestColumnAccessRules(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT 1, 2")

	if _, err := s.Int64(0); !errors.Is(err, sqlite.CodeMisuse) {
		t.Errorf("read before Step = %v, want misuse", err)
	}
	step(t, s, sqlite.StepRow)
	for _, i := range []int{-1, 2} {
		if _, err := s.Text(i); !errors.Is(err, sqlite.CodeRange) {
			t.Errorf("Text(%d) = %v, want CodeRange", i, err)
		}
	}
	if name := s.ColumnName(5); name != "" {
		t.Errorf("ColumnName(5) = %q", name)
	}
	step(t, s, sqlite.StepDone)
	if _, err := s.Int64(0); !errors.Is(err, sqlite.CodeMisuse) {
		t.Errorf("read after done = %v, want misuse", err)
	}
}

func TestNullReadsAsZero(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT NULL")
	step(t, s, sqlite.StepRow)

	i, _ := s.Int64(0)
	f, _ := s.Float(0)
	txt, _ := s.Text(0)
	b, _ := s.Blob(0)
	ok, _ := s.Bool(0)
	tm, err := s.Time(0)
	if i != 0 || f != 0 || txt != "" || b != nil || ok || err != nil || !tm.IsZero() {
		t.Errorf("NULL read as %d %v %q %v %v %v %v", i, f, txt, b, ok, tm, err)
	}
	if null, _ := s.IsNull(0); !null {
		t.Error("IsNull(0) = false")
	}
}

func TestAutoResetMatchesExplicitReset(t *testing.T) {
	conn := openMemory(t)
	mustExec(t, conn, "CREATE TABLE t(x)")
	mustExec(t, conn, "INSERT INTO t VALUES (1), (2), (3)")

	collect := func(s *sqlite.Stmt) []int64 {
		var out []int64
		for row, err := range s.Rows() {
			if err != nil {
				t.Fatal(err)
			}
			v, _ := row.Int64(0)
			out = append(out, v)
		}
		return out
	}

	auto := prepare(t, conn, "SELECT x FROM t ORDER BY x")
	first := collect(auto)
	second := collect(auto)

	explicit := prepare(t, conn, "SELECT x FROM t ORDER BY x")
	collect(explicit)
	if err := explicit.Reset(); err != nil {
		t.Fatal(err)
	}
	third := collect(explicit)

	if !slices.Equal(first, []int64{1, 2, 3}) || !slices.Equal(first, second) || !slices.Equal(second, third) {
		t.Errorf("runs differ: %v %v %v", first, second, third)
	}
}

func TestRowsBreakResets(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT value FROM json_each('[1,2,3]')")

	for range s.Rows() {
		break
	}
	if s.State() != sqlite.StateReady {
		t.Fatalf("state after break = %s, want ready", s.State())
	}
	n := 0
	for _, err := range s.Rows() {
		if err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != 3 {
		t.Errorf("rows after break = %d, want 3", n)
	}
}

func TestScanAndTime(t *testing.T) {
	conn := openMemory(t)
	mustExec(t, conn, "CREATE TABLE ev(id INTEGER, at TEXT, payload BLOB, score REAL, ok INTEGER)")

	at := time.Date(2025, 6, 1, 12, 30, 0, 250_000_000, time.UTC)
	mustExec(t, conn, "INSERT INTO ev VALUES (?, ?, ?, ?, ?)", 9, at, []byte{1, 2}, 0.5, true)

	s := prepare(t, conn, "SELECT id, at, payload, score, ok FROM ev")
	step(t, s, sqlite.StepRow)

	var (
		id      int
		when    time.Time
		payload []byte
		score   float64
		ok      bool
	)
	if err := s.Scan(&id, &when, &payload, &score, &ok); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if id != 9 || !when.Equal(at) || !bytes.Equal(payload, []byte{1, 2}) || score != 0.5 || !ok {
		t.Errorf("Scan = %d %v %v %v %v", id, when, payload, score, ok)
	}

	var a, b, c, d, e, f any
	if err := s.Scan(&a, &b, &c, &d, &e, &f); !errors.Is(err, sqlite.CodeRange) {
		t.Errorf("Scan with too many targets = %v, want CodeRange", err)
	}
	var ch chan int
	if err := s.Scan(&ch); !errors.Is(err, sqlite.CodeMismatch) {
		t.Errorf("Scan into chan = %v, want CodeMismatch", err)
	}
}

func TestTimeRejectsNumbers(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT 86400, 1.5, strftime('%Y-%m-%dT%H:%M:%fZ', 86400, 'unixepoch')")
	step(t, s, sqlite.StepRow)

	for _, col := range []int{0, 1} {
		if tm, err := s.Time(col); !errors.Is(err, sqlite.CodeMismatch) {
			t.Errorf("Time(%d) = %v, %v; want CodeMismatch", col, tm, err)
		}
	}
	want := time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)
	if tm, err := s.Time(2); err != nil || !tm.Equal(want) {
		t.Errorf("Time(2) = %v, %v; want %v", tm, err, want)
	}

	var when time.Time
	var n int64
	if err := s.Scan(&when); !errors.Is(err, sqlite.CodeMismatch) {
		t.Errorf("Scan(integer into time) = %v, want CodeMismatch", err)
	}
	if err := s.Scan(&n); err != nil || n != 86400 {
		t.Errorf("Scan(&n) = %d, %v", n, err)
	}
}

func TestColumnMetadata(t *testing.T) {
	conn := openMemory(t)
	mustExec(t, conn, "CREATE TABLE people(full_name VARCHAR(40))")
	s := prepare(t, conn, "SELECT full_name AS n, 1 + 1 FROM people")

	if decl, ok := s.DeclType(0); !ok || decl != "VARCHAR(40)" {
		t.Errorf("DeclType(0) = %q, %v", decl, ok)
	}
	if tbl, ok := s.TableName(0); !ok || tbl != "people" {
		t.Errorf("TableName(0) = %q, %v", tbl, ok)
	}
	if orig, ok := s.OriginName(0); !ok || orig != "full_name" {
		t.Errorf("OriginName(0) = %q, %v", orig, ok)
	}
	if db, ok := s.DatabaseName(0); !ok || db != "main" {
		t.Errorf("DatabaseName(0) = %q, %v", db, ok)
	}
	if s.ColumnName(0) != "n" {
		t.Errorf("ColumnName(0) = %q", s.ColumnName(0))
	}
	if _, ok := s.DeclType(1); ok {
		t.Error("expression column should have no declared type")
	}
	if _, ok := s.TableName(1); ok {
		t.Error("expression column should have no table")
	}
}

func TestStepFailureThenRebind(t *testing.T) {
	conn := openMemory(t)
	mustExec(t, conn, "CREATE TABLE t(id INTEGER PRIMARY KEY)")
	s := prepare(t, conn, "INSERT INTO t VALUES (?)")

	s.BindInt64(1, 1)
	step(t, s, sqlite.StepDone)

	_, err := s.Step()
	if !errors.Is(err, sqlite.CodeConstraint) {
		t.Fatalf("duplicate insert = %v, want constraint", err)
	}
	if err := s.BindInt64(1, 2); err != nil {
		t.Fatalf("bind after failed step = %v", err)
	}
	step(t, s, sqlite.StepDone)
	if err := s.Reset(); err != nil {
		t.Errorf("Reset = %v", err)
	}
}

func TestStmtConn(t *testing.T) {
	conn := openMemory(t)
	s := prepare(t, conn, "SELECT 1")
	if s.Conn() != conn {
		t.Fatal("Conn() should return the owner while open")
	}
}
