package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

func openConn(t *testing.T, dsn string) *Conn {
	t.Helper()
	dc, err := (&Driver{}).Open(dsn)
	if err != nil {
		t.Fatalf("Open(%q) error = %v", dsn, err)
	}
	c := dc.(*Conn)
	t.Cleanup(func() { c.Close() })
	return c
}

func countRows(t *testing.T, c *Conn, table string) int64 {
	t.Helper()
	s, err := c.Raw().Prepare("SELECT count(*) FROM " + table)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Finalize()
	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	n, _ := s.Int64(0)
	return n
}

func TestTxCommitAndRollback(t *testing.T) {
	c := openConn(t, "")
	if err := c.Raw().Exec("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}

	tx, err := c.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := c.Raw().Exec("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, errTxDone) {
		t.Errorf("second Commit() error = %v, want errTxDone", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Rollback() after Commit() error = %v, want nil", err)
	}

	tx, err = c.Begin()
	if err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := c.Raw().Exec("INSERT INTO t VALUES (2)"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if !tx.(*Tx).IsClosed() {
		t.Error("IsClosed() = false after Rollback()")
	}
	if got := countRows(t, c, "t"); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}
}

func TestTxNestedBegin(t *testing.T) {
	c := openConn(t, "")
	tx, err := c.Begin()
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Rollback()
	if _, err := c.Begin(); err == nil {
		t.Error("second Begin() succeeded while a transaction is open")
	}
	if err := c.ResetSession(context.Background()); !errors.Is(err, driver.ErrBadConn) {
		t.Errorf("ResetSession() in a transaction = %v, want ErrBadConn", err)
	}
}

func TestTxIsolationLevels(t *testing.T) {
	tests := []struct {
		level sql.IsolationLevel
		ok    bool
	}{
		{sql.LevelDefault, true},
		{sql.LevelSerializable, true},
		{sql.LevelReadCommitted, false},
		{sql.LevelSnapshot, false},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			c := openConn(t, "")
			tx, err := c.BeginTx(context.Background(), driver.TxOptions{Isolation: driver.IsolationLevel(tt.level)})
			if (err == nil) != tt.ok {
				t.Fatalf("BeginTx(%v) error = %v, want ok = %v", tt.level, err, tt.ok)
			}
			if tx != nil {
				tx.Rollback()
			}
		})
	}
}

func TestTxReadOnly(t *testing.T) {
	c := openConn(t, "")
	if err := c.Raw().Exec("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}

	tx, err := c.BeginTx(context.Background(), driver.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("BeginTx(ReadOnly) error = %v", err)
	}
	if !tx.(*Tx).IsReadOnly() {
		t.Error("IsReadOnly() = false")
	}
	err = c.Raw().Exec("INSERT INTO t VALUES (1)")
	if !errors.Is(err, sqlite.CodeReadOnly) {
		t.Errorf("write in read-only tx error = %v, want CodeReadOnly", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	if err := c.Raw().Exec("INSERT INTO t VALUES (1)"); err != nil {
		t.Errorf("write after read-only tx error = %v", err)
	}
}

func TestTxLockModes(t *testing.T) {
	for _, lock := range []string{"deferred", "immediate", "exclusive"} {
		t.Run(lock, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lock.db")
			c := openConn(t, path+"?_txlock="+lock)
			if c.begin != txLocks[lock] {
				t.Errorf("begin = %q, want %q", c.begin, txLocks[lock])
			}
			tx, err := c.Begin()
			if err != nil {
				t.Fatalf("Begin() error = %v", err)
			}
			if err := tx.Commit(); err != nil {
				t.Fatalf("Commit() error = %v", err)
			}
		})
	}
}

func TestSavepoints(t *testing.T) {
	c := openConn(t, "")
	if err := c.Raw().Exec("CREATE TABLE t (v INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if err := c.Savepoint("outside"); err == nil {
		t.Error("Savepoint() outside a transaction succeeded")
	}

	dtx, err := c.Begin()
	if err != nil {
		t.Fatal(err)
	}
	tx := dtx.(*Tx)
	if err := tx.Savepoint(""); err == nil {
		t.Error("Savepoint(\"\") succeeded")
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"insert 1", func() error { return c.Raw().Exec("INSERT INTO t VALUES (1)") }},
		{"savepoint a", func() error { return tx.Savepoint("a") }},
		{"insert 2", func() error { return c.Raw().Exec("INSERT INTO t VALUES (2)") }},
		{"savepoint quoted", func() error { return tx.Savepoint(`we"ird`) }},
		{"insert 3", func() error { return c.Raw().Exec("INSERT INTO t VALUES (3)") }},
		{"rollback to a", func() error { return tx.RollbackToSavepoint("a") }},
		{"insert 4", func() error { return c.Raw().Exec("INSERT INTO t VALUES (4)") }},
		{"release a", func() error { return tx.ReleaseSavepoint("a") }},
	}
	for _, s := range steps {
		if err := s.run(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
	}
	if err := tx.ReleaseSavepoint("a"); !errors.Is(err, sqlite.CodeError) {
		t.Errorf("releasing a released savepoint error = %v, want CodeError", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if got := countRows(t, c, "t"); got != 2 {
		t.Errorf("rows = %d, want 2", got)
	}
	if err := tx.Savepoint("late"); !errors.Is(err, errTxDone) {
		t.Errorf("Savepoint() after Commit() error = %v, want errTxDone", err)
	}
}

func TestConnClosed(t *testing.T) {
	c := openConn(t, "")
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.IsValid() {
		t.Error("IsValid() = true after Close()")
	}
	if err := c.Ping(context.Background()); !errors.Is(err, driver.ErrBadConn) {
		t.Errorf("Ping() error = %v, want ErrBadConn", err)
	}
	if _, err := c.Prepare("SELECT 1"); !errors.Is(err, driver.ErrBadConn) {
		t.Errorf("Prepare() error = %v, want ErrBadConn", err)
	}
}
