package core

// DefaultPreviewRows is the preview size used when the caller passes none.
const DefaultPreviewRows = 50

// Preview is a display-ready slice of a table.
type Preview struct {
	Name      string     `json:"name"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
	Truncated bool       `json:"truncated"`
}

// BuildPreview renders the first limit rows of the selected columns.
// An empty column list means all columns; limit <= 0 means DefaultPreviewRows.
func BuildPreview(t *Table, columns []string, limit int) (*Preview, error) {
	if len(columns) > 0 {
		var err error
		if t, err = t.Select(columns); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = DefaultPreviewRows
	}

	n := t.NumRows()
	if n > limit {
		n = limit
	}
	p := &Preview{
		Name:      t.Name,
		Columns:   t.ColumnNames(),
		Rows:      make([][]string, n),
		TotalRows: t.NumRows(),
		Truncated: t.NumRows() > n,
	}
	for i := 0; i < n; i++ {
		row := make([]string, t.NumColumns())
		for j, c := range t.columns {
			row[j] = FormatValue(c.Values[i])
		}
		p.Rows[i] = row
	}
	return p, nil
}
