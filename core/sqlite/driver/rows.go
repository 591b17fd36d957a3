package driver

import (
	"context"
	"database/sql/driver"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Rows implements driver.Rows by stepping a sqlite.Stmt.
type Rows struct {
	ctx     context.Context
	stmt    *sqlite.Stmt
	release func() error
	columns []string
	decl    []string
	closed  bool
}

var (
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*Rows)(nil)
)

func newRows(ctx context.Context, s *sqlite.Stmt, release func() error) *Rows {
	r := &Rows{ctx: ctx, stmt: s, release: release, columns: s.ColumnNames()}
	r.decl = make([]string, len(r.columns))
	for i := range r.decl {
		d, _ := s.DeclType(i)
		r.decl[i] = strings.ToUpper(d)
	}
	return r
}

// Columns returns the result column names.
func (r *Rows) Columns() []string {
	return r.columns
}

// Close hands the statement back to its owner.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.release()
}

// Next steps to the next row and copies it into dest.
func (r *Rows) Next(dest []driver.Value) error {
	if r.closed {
		return io.EOF
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	res, err := r.stmt.Step()
	if err != nil {
		return err
	}
	if res == sqlite.StepDone {
		return io.EOF
	}

	row, err := r.stmt.Row()
	if err != nil {
		return err
	}
	for i := range dest {
		if i >= len(row) {
			break
		}
		dest[i] = r.convert(i, row[i])
	}
	return nil
}

// convert returns v as a driver value. Text in a column declared as a date
// or timestamp is parsed into time.Time when it reads as one.
func (r *Rows) convert(i int, v sqlite.Value) driver.Value {
	if v.Type() == sqlite.Text && isTimeDecl(r.decl[i]) {
		if t, err := sqlite.ParseTime(v.Text()); err == nil {
			return t
		}
	}
	return v.Any()
}

func isTimeDecl(decl string) bool {
	switch decl {
	case "DATE", "DATETIME", "TIMESTAMP":
		return true
	}
	return false
}

// ColumnTypeDatabaseTypeName returns the declared type of column i in upper
// case, or "" for expressions.
func (r *Rows) ColumnTypeDatabaseTypeName(i int) string {
	return r.decl[i]
}

var (
	scanInt64   = reflect.TypeFor[int64]()
	scanFloat   = reflect.TypeFor[float64]()
	scanString  = reflect.TypeFor[string]()
	scanBytes   = reflect.TypeFor[[]byte]()
	scanBool    = reflect.TypeFor[bool]()
	scanTime    = reflect.TypeFor[time.Time]()
	scanUnknown = reflect.TypeFor[any]()
)

// ColumnTypeScanType maps the declared type to a Go type using the
// engine's column affinity rules.
func (r *Rows) ColumnTypeScanType(i int) reflect.Type {
	d := r.decl[i]
	switch {
	case d == "":
		return scanUnknown
	case isTimeDecl(d):
		return scanTime
	case d == "BOOLEAN" || d == "BOOL":
		return scanBool
	case strings.Contains(d, "INT"):
		return scanInt64
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return scanString
	case strings.Contains(d, "BLOB"):
		return scanBytes
	case strings.Contains(d, "REAL"), strings.Contains(d, "FLOA"), strings.Contains(d, "DOUB"):
		return scanFloat
	}
	return scanUnknown
}
