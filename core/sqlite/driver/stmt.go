package driver

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Stmt implements driver.Stmt around a prepared sqlite.Stmt.
type Stmt struct {
	conn *Conn
	stmt *sqlite.Stmt
	rows *Rows // open result set, if any
}

var (
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtExecContext  = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
)

// Close finalizes the statement.
func (s *Stmt) Close() error {
	return s.stmt.Finalize()
}

// NumInput returns the number of parameters, so database/sql can check the
// argument count before calling Exec or Query.
func (s *Stmt) NumInput() int {
	return s.stmt.ParamCount()
}

// Exec executes the statement with positional arguments.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), namedValues(args))
}

// ExecContext executes the statement, discarding any rows.
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := bindArgs(s.stmt, args); err != nil {
		return nil, err
	}
	if err := drain(ctx, s.stmt); err != nil {
		s.stmt.Reset()
		return nil, s.conn.translate(err)
	}
	return s.conn.result(), nil
}

// Query executes the statement with positional arguments.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), namedValues(args))
}

// QueryContext executes the statement and returns its rows. The rows
// reset the statement when closed so it can be queried again.
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := bindArgs(s.stmt, args); err != nil {
		return nil, err
	}
	s.rows = newRows(ctx, s.stmt, func() error {
		s.rows = nil
		return s.stmt.Reset()
	})
	return s.rows, nil
}

// ready rewinds a statement whose previous result set was left open.
func (s *Stmt) ready() error {
	if s.rows != nil {
		s.rows.Close()
	}
	if s.stmt.State() == sqlite.StateHasRow {
		return s.stmt.Reset()
	}
	return nil
}

func namedValues(args []driver.Value) []driver.NamedValue {
	nv := make([]driver.NamedValue, len(args))
	for i, v := range args {
		nv[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return nv
}

// bindArgs clears previous bindings and binds args by name when named and
// by ordinal otherwise.
func bindArgs(s *sqlite.Stmt, args []driver.NamedValue) error {
	if err := s.ClearBindings(); err != nil {
		return err
	}
	for _, a := range args {
		var err error
		if a.Name != "" {
			err = s.BindNamed(a.Name, a.Value)
		} else {
			err = s.BindAny(a.Ordinal, a.Value)
		}
		if err != nil {
			return fmt.Errorf("sqlexpress: argument %s: %w", argLabel(a), err)
		}
	}
	return nil
}

func argLabel(a driver.NamedValue) string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("$%d", a.Ordinal)
}

// drain steps s to completion, checking ctx between steps.
func drain(ctx context.Context, s *sqlite.Stmt) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := s.Step()
		if err != nil {
			return err
		}
		if res == sqlite.StepDone {
			return nil
		}
	}
}
