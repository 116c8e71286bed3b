package core

// DefaultRequiredColumns are cleaned when no configuration overrides them.
var DefaultRequiredColumns = []string{"Completion %"}

// DropRowsMissing removes rows with no value in any of the given columns.
// Columns absent from the table are ignored. It returns the table unchanged
// when nothing is dropped, otherwise a new table, plus the dropped count.
func DropRowsMissing(t *Table, columns []string) (*Table, int) {
	var checked []*Column
	for _, name := range columns {
		if col, ok := t.Column(name); ok {
			checked = append(checked, col)
		}
	}
	if len(checked) == 0 {
		return t, 0
	}

	keep := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		missing := false
		for _, col := range checked {
			if col.Values[i] == nil {
				missing = true
				break
			}
		}
		if !missing {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.rows {
		return t, 0
	}

	columnsOut := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		values := make([]any, len(keep))
		for n, i := range keep {
			values[n] = c.Values[i]
		}
		columnsOut[j] = &Column{Name: c.Name, Values: values}
	}
	out := &Table{Name: t.Name, columns: columnsOut, rows: len(keep)}
	return out, t.rows - len(keep)
}
