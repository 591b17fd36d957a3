package driver

import (
	"database/sql/driver"
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// ValueConverter converts Go values to the driver values the sqlite
// package binds: nil, int64, float64, string, []byte and time.Time.
type ValueConverter struct{}

// ConvertValue converts v. Unsigned integers above math.MaxInt64 and
// unsupported types fail with sqlite.CodeMismatch.
func (ValueConverter) ConvertValue(v any) (driver.Value, error) {
	switch v.(type) {
	case nil, int64, float64, string, []byte, bool, time.Time:
		return v, nil
	}
	val, err := sqlite.ValueOf(v)
	if err != nil {
		return nil, err
	}
	return val.Any(), nil
}

var converter = ValueConverter{}

// Result implements driver.Result.
type Result struct {
	lastInsertID int64
	rowsAffected int64
}

// LastInsertId returns the rowid of the last successful INSERT on the
// connection.
func (r *Result) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

// RowsAffected returns the rows changed by the statement.
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
