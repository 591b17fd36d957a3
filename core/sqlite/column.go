package sqlite

import (
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite/engine"
)

// readable checks that column i of the current row can be read. Caller
// holds s.mu.
func (s *Stmt) readable(i int) error {
	if _, err := s.live("column"); err != nil {
		return err
	}
	if s.state != StateHasRow {
		return misuse("column", "no row available; Step must return StepRow first")
	}
	if i < 0 || i >= s.colCount {
		return outOfRange("column", "column index %d out of range [0, %d)", i, s.colCount)
	}
	return nil
}

// ColumnType returns the dynamic storage class of column i in the current
// row. It may differ from row to row and from the declared type.
func (s *Stmt) ColumnType(i int) (Type, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readable(i); err != nil {
		return 0, err
	}
	return Type(s.h.st.ColumnType(i)), nil
}

// IsNull reports whether column i of the current row is NULL.
func (s *Stmt) IsNull(i int) (bool, error) {
	t, err := s.ColumnType(i)
	return t == Null, err
}

// Int64 returns column i as an integer. NULL reads as 0.
func (s *Stmt) Int64(i int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readable(i); err != nil {
		return 0, err
	}
	return s.h.st.ColumnInt64(i), nil
}

// Int returns column i as an int. NULL reads as 0.
func (s *Stmt) Int(i int) (int, error) {
	v, err := s.Int64(i)
	return int(v), err
}

// Float returns column i as a float64. NULL reads as 0.
func (s *Stmt) Float(i int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readable(i); err != nil {
		return 0, err
	}
	return s.h.st.ColumnFloat(i), nil
}

// Text returns column i as text. NULL reads as "".
func (s *Stmt) Text(i int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readable(i); err != nil {
		return "", err
	}
	return s.h.st.ColumnText(i), nil
}

// Blob returns a copy of column i's bytes. NULL reads as nil.
func (s *Stmt) Blob(i int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readable(i); err != nil {
		return nil, err
	}
	return s.h.st.ColumnBlob(i), nil
}

// Bool returns whether column i is a non-zero number.
func (s *Stmt) Bool(i int) (bool, error) {
	v, err := s.Value(i)
	return v.Bool(), err
}

// Time parses column i as a timestamp written by BindTime or by the
// engine's date functions. NULL reads as the zero time. Integer and float
// cells fail with CodeMismatch.
func (s *Stmt) Time(i int) (time.Time, error) {
	v, err := s.Value(i)
	if err != nil {
		return time.Time{}, err
	}
	return v.Time()
}

// Value returns column i with its dynamic type.
func (s *Stmt) Value(i int) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readable(i); err != nil {
		return Value{}, err
	}
	return s.value(i), nil
}

func (s *Stmt) value(i int) Value {
	switch s.h.st.ColumnType(i) {
	case engine.TypeInteger:
		return IntValue(s.h.st.ColumnInt64(i))
	case engine.TypeFloat:
		return FloatValue(s.h.st.ColumnFloat(i))
	case engine.TypeText:
		return TextValue(s.h.st.ColumnText(i))
	case engine.TypeBlob:
		b := s.h.st.ColumnBlob(i)
		if b == nil {
			b = []byte{}
		}
		return Value{typ: Blob, b: b}
	}
	return NullValue()
}

// Row returns every column of the current row.
func (s *Stmt) Row() ([]Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.colCount == 0 {
		if _, err := s.live("column"); err != nil {
			return nil, err
		}
		if s.state != StateHasRow {
			return nil, misuse("column", "no row available; Step must return StepRow first")
		}
		return nil, nil
	}
	if err := s.readable(0); err != nil {
		return nil, err
	}
	row := make([]Value, s.colCount)
	for i := range row {
		row[i] = s.value(i)
	}
	return row, nil
}

// Scan copies the current row into dest, one pointer per column. Supported
// targets are *int64, *int, *float64, *string, *[]byte, *bool, *time.Time,
// *Value and *any. Fewer targets than columns leaves the rest unread.
func (s *Stmt) Scan(dest ...any) error {
	row, err := s.Row()
	if err != nil {
		return err
	}
	if len(dest) > len(row) {
		return outOfRange("scan", "%d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		v := row[i]
		switch d := d.(type) {
		case *int64:
			*d = v.Int64()
		case *int:
			*d = int(v.Int64())
		case *float64:
			*d = v.Float()
		case *string:
			*d = v.Text()
		case *[]byte:
			*d = v.Blob()
		case *bool:
			*d = v.Bool()
		case *time.Time:
			t, err := v.Time()
			if err != nil {
				return err
			}
			*d = t
		case *Value:
			*d = v
		case *any:
			*d = v.Any()
		default:
			return &Error{Code: CodeMismatch, Op: "scan", Detail: "unsupported destination type"}
		}
	}
	return nil
}

// ColumnName returns the name of result column i, or "" when i is out of
// range. It is available in any state but StateFinalized.
func (s *Stmt) ColumnName(i int) string {
	name, _ := s.meta(i, engine.Stmt.ColumnName)
	return name
}

// ColumnNames returns the names of all result columns.
func (s *Stmt) ColumnNames() []string {
	names := make([]string, s.colCount)
	for i := range names {
		names[i] = s.ColumnName(i)
	}
	return names
}

// DeclType returns the type column i was declared with in the schema.
// Expressions and views have none.
func (s *Stmt) DeclType(i int) (string, bool) {
	return s.meta(i, engine.Stmt.ColumnDeclType)
}

// TableName returns the table column i was read from, when it comes
// directly from a table column.
func (s *Stmt) TableName(i int) (string, bool) {
	return s.meta(i, engine.Stmt.ColumnTableName)
}

// OriginName returns the table column name behind result column i.
func (s *Stmt) OriginName(i int) (string, bool) {
	return s.meta(i, engine.Stmt.ColumnOriginName)
}

// DatabaseName returns the schema ("main", "temp", ...) column i was read
// from.
func (s *Stmt) DatabaseName(i int) (string, bool) {
	return s.meta(i, engine.Stmt.ColumnDatabaseName)
}

func (s *Stmt) meta(i int, get func(engine.Stmt, int) string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateFinalized || i < 0 || i >= s.colCount {
		return "", false
	}
	v := get(s.h.st, i)
	return v, v != ""
}
