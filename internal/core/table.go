package core

import (
	"fmt"
	"strconv"
	"time"
)

// Column is a named, ordered sequence of cell values.
//
// Cell values are one of string, int64, float64, bool, time.Time or nil.
// nil is the absence marker: empty cells after ingestion and the right-hand
// fill of an unmatched LEFT_OUTER row.
type Column struct {
	Name   string
	Values []any
}

// Table is an ordered set of equally long columns.
// Lookup by name returns the first column with that name.
type Table struct {
	Name    string
	columns []*Column
	rows    int
}

// NewTable builds a table from columns, rejecting columns of unequal length.
func NewTable(name string, columns ...*Column) (*Table, error) {
	t := &Table{Name: name}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("table %q: column %d is nil", name, i)
		}
		if i == 0 {
			t.rows = len(col.Values)
		} else if len(col.Values) != t.rows {
			return nil, fmt.Errorf("table %q: column %q has %d rows, want %d",
				name, col.Name, len(col.Values), t.rows)
		}
		t.columns = append(t.columns, col)
	}
	return t, nil
}

// MustTable is NewTable that panics on error. Intended for fixtures.
func MustTable(name string, columns ...*Column) *Table {
	t, err := NewTable(name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// NewColumn is shorthand for building a column from literal values.
func NewColumn(name string, values ...any) *Column {
	return &Column{Name: name, Values: values}
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// ColumnNames returns column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the table's columns. Callers must not append to the slice.
func (t *Table) Columns() []*Column { return t.columns }

// Column returns the first column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	i := t.indexOf(name)
	if i < 0 {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	return t.indexOf(name) >= 0
}

func (t *Table) indexOf(name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy whose column headers and value slices are private,
// so renaming or normalizing the clone never reaches the original.
func (t *Table) Clone() *Table {
	cp := &Table{Name: t.Name, rows: t.rows, columns: make([]*Column, len(t.columns))}
	for i, c := range t.columns {
		values := make([]any, len(c.Values))
		copy(values, c.Values)
		cp.columns[i] = &Column{Name: c.Name, Values: values}
	}
	return cp
}

// Select projects the named columns, in the order given.
func (t *Table) Select(names []string) (*Table, error) {
	out := &Table{Name: t.Name, rows: t.rows, columns: make([]*Column, 0, len(names))}
	for _, name := range names {
		col, ok := t.Column(name)
		if !ok {
			return nil, &ColumnNotFoundError{Table: t.Name, Column: name}
		}
		out.columns = append(out.columns, col)
	}
	return out, nil
}

// FormatValue renders a cell the way keys, previews and exports show it.
// nil renders as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
