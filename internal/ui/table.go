package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Table collects rows and renders them as aligned columns.
type Table struct {
	Columns []string
	Null    string // text for NULL cells; "NULL" when empty

	rows  [][]string
	nulls [][]bool
}

// NewTable returns a table with the given header.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row of plain strings.
func (t *Table) Append(cells ...string) {
	t.rows = append(t.rows, cells)
	t.nulls = append(t.nulls, make([]bool, len(cells)))
}

// AppendValues adds a row of engine values, remembering which are NULL so
// they render dim.
func (t *Table) AppendValues(vals []sqlite.Value) {
	cells := make([]string, len(vals))
	nulls := make([]bool, len(vals))
	for i, v := range vals {
		cells[i] = FormatValue(v, t.null())
		nulls[i] = v.IsNull()
	}
	t.rows = append(t.rows, cells)
	t.nulls = append(t.nulls, nulls)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

func (t *Table) null() string {
	if t.Null == "" {
		return "NULL"
	}
	return t.Null
}

// Render writes the table. Widths are measured before coloring, so escape
// codes never disturb the alignment.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	header := make([]string, len(t.Columns))
	rule := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = Bold.Sprint(pad(c, widths[i]))
		rule[i] = strings.Repeat("-", widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(header, "  "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, "  ")); err != nil {
		return err
	}

	for r, row := range t.rows {
		out := make([]string, len(widths))
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = pad(row[i], widths[i])
				if t.nulls[r][i] {
					cell = Dim.Sprint(cell)
				}
			}
			out[i] = cell
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(out, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// FormatValue renders v for a table cell: blobs as hex literals, NULL as
// null, everything else as its text form.
func FormatValue(v sqlite.Value, null string) string {
	switch v.Type() {
	case sqlite.Null:
		return null
	case sqlite.Blob:
		return v.String()
	}
	return v.Text()
}
